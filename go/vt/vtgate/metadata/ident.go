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

// Package metadata holds the schema facts that analysis and planning share:
// identifiers for tables, columns and functions, the static description of a
// column, row granularity and the routing result handed to the executor.
package metadata

import (
	"encoding/json"
	"strings"
)

// DocSchema is the schema user tables live in when none is given.
const DocSchema = "doc"

// ColumnIdent identifies a column, or a sub-field of an object column. It is
// comparable and can be used as a map key.
type ColumnIdent struct {
	name string
	// path holds the sub-field names joined with '.', empty for top-level columns.
	path string
}

// NewColumnIdent builds an identifier from a column name and an optional path.
func NewColumnIdent(name string, path ...string) ColumnIdent {
	return ColumnIdent{name: name, path: strings.Join(path, ".")}
}

// ColumnIdentFromFQN parses a dotted column name like "details.address.city".
func ColumnIdentFromFQN(fqn string) ColumnIdent {
	name, path, _ := strings.Cut(fqn, ".")
	return ColumnIdent{name: name, path: path}
}

// GetChild returns the identifier of the sub-field childName of parent.
func GetChild(parent ColumnIdent, childName string) ColumnIdent {
	if parent.path == "" {
		return ColumnIdent{name: parent.name, path: childName}
	}
	return ColumnIdent{name: parent.name, path: parent.path + "." + childName}
}

// Name is the top-level column name.
func (c ColumnIdent) Name() string { return c.name }

// Path returns the sub-field names, nil for a top-level column.
func (c ColumnIdent) Path() []string {
	if c.path == "" {
		return nil
	}
	return strings.Split(c.path, ".")
}

// IsColumn is true for top-level columns.
func (c ColumnIdent) IsColumn() bool { return c.path == "" }

// IsEmpty is true for the zero value.
func (c ColumnIdent) IsEmpty() bool { return c.name == "" }

// Parent returns the enclosing object column. ok is false for top-level columns.
func (c ColumnIdent) Parent() (parent ColumnIdent, ok bool) {
	if c.path == "" {
		return ColumnIdent{}, false
	}
	idx := strings.LastIndexByte(c.path, '.')
	if idx < 0 {
		return ColumnIdent{name: c.name}, true
	}
	return ColumnIdent{name: c.name, path: c.path[:idx]}, true
}

// LeafName is the last element of the path, or the name itself.
func (c ColumnIdent) LeafName() string {
	if c.path == "" {
		return c.name
	}
	return c.path[strings.LastIndexByte(c.path, '.')+1:]
}

// FQN is the dotted representation.
func (c ColumnIdent) FQN() string {
	if c.path == "" {
		return c.name
	}
	return c.name + "." + c.path
}

func (c ColumnIdent) String() string { return c.FQN() }

// MarshalJSON renders the column by its dotted name.
func (c ColumnIdent) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.FQN())
}

// UnmarshalJSON reads a dotted column name.
func (c *ColumnIdent) UnmarshalJSON(b []byte) error {
	var fqn string
	if err := json.Unmarshal(b, &fqn); err != nil {
		return err
	}
	*c = ColumnIdentFromFQN(fqn)
	return nil
}

// TableIdent identifies a table within a schema.
type TableIdent struct {
	Schema string
	Name   string
}

// NewTableIdent returns the identifier, defaulting to the doc schema.
func NewTableIdent(schema, name string) TableIdent {
	if schema == "" {
		schema = DocSchema
	}
	return TableIdent{Schema: schema, Name: name}
}

// FQN is schema.name.
func (t TableIdent) FQN() string {
	return t.Schema + "." + t.Name
}

// IndexName is the name of the backing index of an unpartitioned table.
// Tables in the doc schema use their bare name.
func (t TableIdent) IndexName() string {
	if t.Schema == "" || t.Schema == DocSchema {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t TableIdent) String() string { return t.FQN() }

// ReferenceIdent identifies a column of a specific table.
type ReferenceIdent struct {
	Table  TableIdent
	Column ColumnIdent
}

// NewReferenceIdent is a shorthand constructor.
func NewReferenceIdent(table TableIdent, column string, path ...string) ReferenceIdent {
	return ReferenceIdent{Table: table, Column: NewColumnIdent(column, path...)}
}

func (r ReferenceIdent) String() string {
	return r.Table.FQN() + "." + r.Column.FQN()
}
