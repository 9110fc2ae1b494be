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
	"fmt"
	"strings"

	"shardql.io/shardql/go/sqltypes"
)

// RowGranularity is the coarsest scope at which a value can vary. The order
// matters: a statement's granularity is the max of everything it touches.
type RowGranularity int

const (
	Cluster RowGranularity = iota
	Partition
	Shard
	Doc
)

var granularityNames = []string{"CLUSTER", "PARTITION", "SHARD", "DOC"}

func (g RowGranularity) String() string {
	if g < Cluster || g > Doc {
		return fmt.Sprintf("RowGranularity(%d)", int(g))
	}
	return granularityNames[g]
}

// MarshalText implements encoding.TextMarshaler.
func (g RowGranularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// MaxGranularity returns the coarser of two granularities.
func MaxGranularity(a, b RowGranularity) RowGranularity {
	return max(a, b)
}

// ColumnPolicy decides what happens with columns that are not part of the
// static schema, for tables and object columns alike.
type ColumnPolicy int

const (
	// Dynamic adds unknown columns to the schema with an inferred type.
	Dynamic ColumnPolicy = iota
	// Strict rejects unknown columns.
	Strict
	// Ignored stores unknown columns without indexing or validating them.
	Ignored
)

func (p ColumnPolicy) String() string {
	switch p {
	case Dynamic:
		return "dynamic"
	case Strict:
		return "strict"
	case Ignored:
		return "ignored"
	}
	return fmt.Sprintf("ColumnPolicy(%d)", int(p))
}

// ParseColumnPolicy reads the mapping value of a policy; an empty value and
// "true" are dynamic, "false" is ignored, as in the index mapping format.
func ParseColumnPolicy(s string) (ColumnPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "true", "dynamic":
		return Dynamic, nil
	case "strict":
		return Strict, nil
	case "false", "ignored":
		return Ignored, nil
	}
	return Dynamic, fmt.Errorf("invalid column policy %q", s)
}

// ReferenceInfo is the static schema entry of a column.
type ReferenceInfo struct {
	Ident       ReferenceIdent
	Granularity RowGranularity
	Type        sqltypes.DataType
	// ObjectType is the column policy applied to the children of an object
	// column. It is meaningless for primitive columns.
	ObjectType ColumnPolicy
}

// NewReferenceInfo returns a doc-granularity column with a dynamic object policy.
func NewReferenceInfo(ident ReferenceIdent, typ sqltypes.DataType) ReferenceInfo {
	return ReferenceInfo{Ident: ident, Granularity: Doc, Type: typ, ObjectType: Dynamic}
}

func (r ReferenceInfo) String() string {
	return fmt.Sprintf("Ref{%s, %s}", r.Ident, r.Type.Name())
}

// IndexReferenceInfo describes a fulltext index column defined over other columns.
type IndexReferenceInfo struct {
	ReferenceInfo
	Analyzer string
	Columns  []ReferenceInfo
}
