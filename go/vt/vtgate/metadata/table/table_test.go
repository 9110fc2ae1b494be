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

package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

type fakeTable struct {
	ident   metadata.TableIdent
	policy  metadata.ColumnPolicy
	columns map[metadata.ColumnIdent]metadata.ReferenceInfo
}

func (f *fakeTable) Ident() metadata.TableIdent              { return f.ident }
func (f *fakeTable) RowGranularity() metadata.RowGranularity { return metadata.Doc }
func (f *fakeTable) GetReferenceInfo(c metadata.ColumnIdent) (metadata.ReferenceInfo, bool) {
	info, ok := f.columns[c]
	return info, ok
}
func (f *fakeTable) Columns() []metadata.ReferenceInfo         { return nil }
func (f *fakeTable) ColumnPolicy() metadata.ColumnPolicy       { return f.policy }
func (f *fakeTable) PrimaryKey() []metadata.ColumnIdent        { return nil }
func (f *fakeTable) ClusteredBy() (metadata.ColumnIdent, bool) { return metadata.ColumnIdent{}, false }
func (f *fakeTable) IsPartitioned() bool                       { return false }
func (f *fakeTable) PartitionedBy() []metadata.ColumnIdent     { return nil }
func (f *fakeTable) Partitions() []metadata.PartitionName      { return nil }
func (f *fakeTable) GetRouting(context.Context, *symbols.WhereClause, string) (*metadata.Routing, error) {
	return metadata.EmptyRouting(), nil
}

func newFakeTable(policy metadata.ColumnPolicy) *fakeTable {
	ident := metadata.NewTableIdent("doc", "t")
	obj := func(name string, p metadata.ColumnPolicy) metadata.ReferenceInfo {
		info := metadata.NewReferenceInfo(metadata.NewReferenceIdent(ident, name), sqltypes.Object)
		info.ObjectType = p
		return info
	}
	return &fakeTable{
		ident:  ident,
		policy: policy,
		columns: map[metadata.ColumnIdent]metadata.ReferenceInfo{
			metadata.NewColumnIdent("strict_obj"):  obj("strict_obj", metadata.Strict),
			metadata.NewColumnIdent("ignored_obj"): obj("ignored_obj", metadata.Ignored),
			metadata.NewColumnIdent("dyn_obj"):     obj("dyn_obj", metadata.Dynamic),
		},
	}
}

func TestGetDynamicTablePolicy(t *testing.T) {
	ref, err := GetDynamic(newFakeTable(metadata.Dynamic), metadata.NewColumnIdent("extra"))
	require.NoError(t, err)
	assert.Equal(t, sqltypes.Undefined, ref.ValueType())
	assert.Equal(t, metadata.Dynamic, ref.Info().ObjectType)
	assert.Equal(t, "extra", ref.Info().Ident.Column.FQN())

	ref, err = GetDynamic(newFakeTable(metadata.Ignored), metadata.NewColumnIdent("extra"))
	require.NoError(t, err)
	assert.Equal(t, metadata.Ignored, ref.Info().ObjectType)

	_, err = GetDynamic(newFakeTable(metadata.Strict), metadata.NewColumnIdent("extra"))
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, vterrors.Code(err))
	assert.Equal(t, vterrors.BadFieldError, vterrors.ErrState(err))
	assert.Contains(t, err.Error(), "'extra'")
}

func TestGetDynamicParentPolicy(t *testing.T) {
	strictTable := newFakeTable(metadata.Strict)

	_, err := GetDynamic(strictTable, metadata.NewColumnIdent("strict_obj", "x"))
	assert.Error(t, err)

	ref, err := GetDynamic(strictTable, metadata.NewColumnIdent("dyn_obj", "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, "dyn_obj.x.y", ref.Info().Ident.Column.FQN())

	ref, err = GetDynamic(newFakeTable(metadata.Dynamic), metadata.NewColumnIdent("ignored_obj", "x"))
	require.NoError(t, err)
	assert.Equal(t, metadata.Ignored, ref.Info().ObjectType)
}

type oneTable struct{ t TableInfo }

func (o oneTable) GetTableInfo(_ context.Context, ident metadata.TableIdent) (TableInfo, error) {
	if ident != o.t.Ident() {
		return nil, UnknownTable(ident)
	}
	return o.t, nil
}

func TestSchemas(t *testing.T) {
	ctx := context.Background()
	tbl := newFakeTable(metadata.Dynamic)
	schemas := Schemas{"doc": oneTable{tbl}, "sys": oneTable{tbl}}
	assert.Equal(t, []string{"doc", "sys"}, schemas.Names())

	got, err := schemas.GetTableInfo(ctx, tbl.ident)
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	_, err = schemas.GetTableInfo(ctx, metadata.NewTableIdent("doc", "nope"))
	assert.Equal(t, vterrors.UnknownTable, vterrors.ErrState(err))
	assert.EqualError(t, err, "unknown table 'doc.nope'")

	_, err = schemas.GetTableInfo(ctx, metadata.NewTableIdent("other", "t"))
	assert.Equal(t, vterrors.UnknownSchema, vterrors.ErrState(err))
}
