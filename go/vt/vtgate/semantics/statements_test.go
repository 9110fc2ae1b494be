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

package semantics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/evalengine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

func TestSelectLimitOffset(t *testing.T) {
	a := selectOn(t, "users")
	_, ok := a.Limit()
	assert.False(t, ok)

	a.SetLimit(10)
	limit, ok := a.Limit()
	require.True(t, ok)
	assert.Equal(t, 10, limit)

	a.SetLimit(-1)
	_, ok = a.Limit()
	assert.False(t, ok)

	a.SetOffset(-5)
	assert.Equal(t, 0, a.Offset())
	a.SetOffset(5)
	assert.Equal(t, 5, a.Offset())
}

func TestSelectNormalizesOrderBy(t *testing.T) {
	a := selectOn(t, "users")
	score := column(t, a.Analysis, "score")
	a.AddOrderBy(OrderBy{Symbol: function(t, a.Analysis, evalengine.OpIsNull, symbols.NullLiteral), Descending: true})
	a.AddOrderBy(OrderBy{Symbol: score})
	require.NoError(t, a.Normalize())

	orderBy := a.OrderBy()
	require.Len(t, orderBy, 2)
	assert.Equal(t, true, orderBy[0].Symbol.(*symbols.Literal).Value())
	assert.True(t, orderBy[0].Descending)
	assert.Same(t, score, orderBy[1].Symbol)
}

func TestDeleteAnalysis(t *testing.T) {
	a := NewDeleteAnalysis(testEnv(t))
	assert.Equal(t, DeleteStatement, a.Type())
	assert.True(t, a.IsDelete())
}

func insertInto(t *testing.T, name string, columns ...string) *InsertAnalysis {
	t.Helper()
	a := NewInsertAnalysis(testEnv(t))
	require.NoError(t, a.Table(context.Background(), metadata.NewTableIdent("doc", name)))
	for _, c := range columns {
		_, err := a.AddColumn(metadata.ColumnIdentFromFQN(c))
		require.NoError(t, err)
	}
	return a
}

func TestInsertValueRows(t *testing.T) {
	a := insertInto(t, "users", "id", "name")
	assert.Equal(t, InsertStatement, a.Type())

	require.NoError(t, a.AddValueRow(symbols.MustLiteral("7"), symbols.MustLiteral("alice")))
	require.NoError(t, a.AddValueRow(symbols.MustLiteral(int64(8)), symbols.NullLiteral))

	rows := a.ValueRows()
	require.Len(t, rows, 2)
	assert.Equal(t, sqltypes.Long, rows[0][0].ValueType())
	assert.EqualValues(t, 7, rows[0][0].Value())
	assert.Equal(t, "alice", rows[0][1].Value())
	assert.True(t, rows[1][1].IsNull())
	assert.Equal(t, []string{"7", "8"}, a.RoutingValues())
}

func TestInsertRejectsBadRows(t *testing.T) {
	a := insertInto(t, "users", "id", "name")

	err := a.AddValueRow(symbols.MustLiteral("7"))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))

	err = a.AddValueRow(symbols.MustLiteral("abc"), symbols.MustLiteral("alice"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "Validation failed for id")
	assert.Empty(t, a.ValueRows())

	_, err = a.AddColumn(metadata.NewColumnIdent("name"))
	require.Error(t, err)
	assert.Equal(t, codes.AlreadyExists, vterrors.Code(err))
}

func TestInsertWithoutTable(t *testing.T) {
	a := NewInsertAnalysis(testEnv(t))
	_, err := a.AddColumn(metadata.NewColumnIdent("id"))
	require.Error(t, err)
	assert.Equal(t, codes.Internal, vterrors.Code(err))
}

func updateOn(t *testing.T, name string) *UpdateAnalysis {
	t.Helper()
	a := NewUpdateAnalysis(testEnv(t))
	require.NoError(t, a.Table(context.Background(), metadata.NewTableIdent("doc", name)))
	return a
}

func TestUpdateAssignments(t *testing.T) {
	a := updateOn(t, "users")
	assert.Equal(t, UpdateStatement, a.Type())

	require.NoError(t, a.AddAssignment(metadata.NewColumnIdent("score"), symbols.MustLiteral("1.5")))
	age := column(t, a.Analysis, "details.age")
	require.NoError(t, a.AddAssignment(metadata.NewColumnIdent("name"), age))

	assignments := a.Assignments()
	require.Len(t, assignments, 2)
	assert.Equal(t, sqltypes.Double, assignments[0].Value.ValueType())
	assert.Equal(t, 1.5, assignments[0].Value.(*symbols.Literal).Value())
	assert.Same(t, age, assignments[1].Value)

	err := a.AddAssignment(metadata.NewColumnIdent("score"), symbols.MustLiteral("2"))
	require.Error(t, err)
	assert.Equal(t, codes.AlreadyExists, vterrors.Code(err))
}

func TestUpdateRejectsRoutingColumns(t *testing.T) {
	a := updateOn(t, "users")
	err := a.AddAssignment(metadata.NewColumnIdent("id"), symbols.MustLiteral(int64(2)))
	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, vterrors.Code(err))
	assert.Equal(t, vterrors.NotSupportedYet, vterrors.ErrState(err))

	a = updateOn(t, "events")
	err = a.AddAssignment(metadata.NewColumnIdent("day"), symbols.MustLiteral("2024-01-01"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "partitioned by")
}

func TestUpdateValidatesLiterals(t *testing.T) {
	a := updateOn(t, "users")
	err := a.AddAssignment(metadata.NewColumnIdent("score"), symbols.MustLiteral("abc"))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
	assert.Empty(t, a.Assignments())
}
