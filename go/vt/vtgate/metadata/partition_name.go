/*
Copyright 2026 The Shardql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metadata

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"
)

// PartitionPrefix marks the backing index of a table partition.
const PartitionPrefix = ".partitioned."

var partitionEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// PartitionName identifies one partition of a partitioned table by the values
// of its partition columns, in declaration order. A nil value is the NULL
// partition.
type PartitionName struct {
	Table  TableIdent
	Values []*string
}

// NewPartitionName is a shorthand constructor taking non-null values.
func NewPartitionName(table TableIdent, values ...string) PartitionName {
	vals := make([]*string, len(values))
	for i := range values {
		vals[i] = &values[i]
	}
	return PartitionName{Table: table, Values: vals}
}

// Ident is the encoded form of the values, stable across processes.
func (p PartitionName) Ident() string {
	b, _ := json.Marshal(p.Values)
	return strings.ToLower(partitionEncoding.EncodeToString(b))
}

// IndexName is the name of the index backing this partition,
// e.g. ".partitioned.parted.<ident>".
func (p PartitionName) IndexName() string {
	return PartitionPrefix + p.Table.IndexName() + "." + p.Ident()
}

func (p PartitionName) String() string { return p.IndexName() }

// ParsePartitionName reverses IndexName for the given table.
func ParsePartitionName(table TableIdent, indexName string) (PartitionName, error) {
	prefix := PartitionPrefix + table.IndexName() + "."
	if !strings.HasPrefix(indexName, prefix) {
		return PartitionName{}, fmt.Errorf("%q is not a partition of %s", indexName, table)
	}
	raw, err := partitionEncoding.DecodeString(strings.ToUpper(indexName[len(prefix):]))
	if err != nil {
		return PartitionName{}, fmt.Errorf("invalid partition ident in %q: %w", indexName, err)
	}
	var values []*string
	if err := json.Unmarshal(raw, &values); err != nil {
		return PartitionName{}, fmt.Errorf("invalid partition values in %q: %w", indexName, err)
	}
	return PartitionName{Table: table, Values: values}, nil
}

// IsPartitionOf reports whether indexName backs a partition of table.
func IsPartitionOf(table TableIdent, indexName string) bool {
	return strings.HasPrefix(indexName, PartitionPrefix+table.IndexName()+".")
}
