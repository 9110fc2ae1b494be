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

// Package table defines how analysis sees tables: their columns, their
// dynamic column policy and where their rows live.
package table

import (
	"context"
	"slices"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// TableInfo is the schema of a table. Implementations are immutable and
// safe for concurrent use.
type TableInfo interface {
	Ident() metadata.TableIdent
	RowGranularity() metadata.RowGranularity

	// GetReferenceInfo looks up a column of the static schema. A missing
	// column is not an error; see GetDynamic.
	GetReferenceInfo(column metadata.ColumnIdent) (metadata.ReferenceInfo, bool)
	// Columns returns the top level columns, ordered by name.
	Columns() []metadata.ReferenceInfo
	// ColumnPolicy is the policy for columns missing from the static schema.
	ColumnPolicy() metadata.ColumnPolicy

	PrimaryKey() []metadata.ColumnIdent
	ClusteredBy() (metadata.ColumnIdent, bool)
	IsPartitioned() bool
	PartitionedBy() []metadata.ColumnIdent
	Partitions() []metadata.PartitionName

	// GetRouting resolves where the rows matching where are stored, right
	// now. preference selects which copy of each shard is read.
	GetRouting(ctx context.Context, where *symbols.WhereClause, preference string) (*metadata.Routing, error)
}

// SchemaInfo resolves the tables of one schema.
type SchemaInfo interface {
	// GetTableInfo fails with an UnknownTable error when the table doesn't exist.
	GetTableInfo(ctx context.Context, ident metadata.TableIdent) (TableInfo, error)
}

// Schemas resolves tables across schemas.
type Schemas map[string]SchemaInfo

var _ SchemaInfo = Schemas(nil)

// GetTableInfo implements SchemaInfo.
func (s Schemas) GetTableInfo(ctx context.Context, ident metadata.TableIdent) (TableInfo, error) {
	schema, ok := s[ident.Schema]
	if !ok {
		return nil, vterrors.NewErrorf(codes.NotFound, vterrors.UnknownSchema, "unknown schema '%s'", ident.Schema)
	}
	return schema.GetTableInfo(ctx, ident)
}

// Names returns the schema names, sorted.
func (s Schemas) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownTable returns the error for a table that doesn't exist.
func UnknownTable(ident metadata.TableIdent) error {
	return vterrors.NewErrorf(codes.NotFound, vterrors.UnknownTable, "unknown table '%s'", ident.FQN())
}

// UnknownColumn returns the error for a column rejected by a strict policy.
func UnknownColumn(table metadata.TableIdent, column metadata.ColumnIdent) error {
	return vterrors.NewErrorf(codes.NotFound, vterrors.BadFieldError, "unknown column '%s' in table '%s'", column.FQN(), table.FQN())
}
