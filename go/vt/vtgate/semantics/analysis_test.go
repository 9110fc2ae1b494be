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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/srvtopo/srvtopotest"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/evalengine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/doc"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

func testEnv(t *testing.T) Env {
	t.Helper()
	schema := doc.NewDocSchemaInfo(srvtopotest.NewServer(t), srvtopo.NewOperationRouting("n1"), time.Minute)
	return Env{
		Schemas:   table.Schemas{"doc": schema},
		Functions: evalengine.NewFunctions(),
	}
}

func usersIdent() metadata.TableIdent { return metadata.NewTableIdent("doc", "users") }

func selectOn(t *testing.T, name string, parameters ...any) *SelectAnalysis {
	t.Helper()
	a := NewSelectAnalysis(testEnv(t), parameters...)
	require.NoError(t, a.Table(context.Background(), metadata.NewTableIdent("doc", name)))
	return a
}

func column(t *testing.T, a *Analysis, fqn string) symbols.Ref {
	t.Helper()
	ref, err := a.AllocateReference(metadata.ReferenceIdent{Table: a.TableInfo().Ident(), Column: metadata.ColumnIdentFromFQN(fqn)})
	require.NoError(t, err)
	return ref
}

func function(t *testing.T, a *Analysis, name string, args ...symbols.Symbol) *symbols.Function {
	t.Helper()
	types := make([]sqltypes.DataType, len(args))
	for i, arg := range args {
		types[i] = arg.ValueType()
	}
	info, err := a.FunctionInfo(metadata.NewFunctionIdent(name, types...))
	require.NoError(t, err)
	return a.AllocateFunction(info, args...)
}

func TestTable(t *testing.T) {
	a := NewSelectAnalysis(testEnv(t))
	assert.Equal(t, SelectStatement, a.Type())
	assert.Equal(t, metadata.Cluster, a.RowGranularity())

	err := a.Table(context.Background(), metadata.NewTableIdent("doc", "nope"))
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, vterrors.Code(err))
	assert.Equal(t, vterrors.UnknownTable, vterrors.ErrState(err))
	assert.Nil(t, a.TableInfo())

	require.NoError(t, a.Table(context.Background(), usersIdent()))
	assert.Equal(t, usersIdent(), a.TableInfo().Ident())
	assert.Equal(t, metadata.Doc, a.RowGranularity())
}

func TestAllocateReference(t *testing.T) {
	a := selectOn(t, "users")
	ident := metadata.NewReferenceIdent(usersIdent(), "name")

	first, err := a.AllocateReference(ident)
	require.NoError(t, err)
	second, err := a.AllocateReference(ident)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, sqltypes.String, first.ValueType())
	assert.Len(t, a.References(), 1)

	_, err = a.AllocateUniqueReference(ident)
	require.Error(t, err)
	assert.Equal(t, codes.AlreadyExists, vterrors.Code(err))
	assert.Equal(t, vterrors.DupFieldName, vterrors.ErrState(err))

	_, err = a.AllocateReference(metadata.NewReferenceIdent(metadata.NewTableIdent("doc", "accounts"), "id"))
	assert.Equal(t, vterrors.UnknownTable, vterrors.ErrState(err))
}

func TestAllocateReferenceWithoutTable(t *testing.T) {
	a := NewSelectAnalysis(testEnv(t))
	_, err := a.AllocateReference(metadata.NewReferenceIdent(usersIdent(), "name"))
	var noTable *NoTableError
	require.True(t, errors.As(err, &noTable))
	assert.Equal(t, codes.Internal, vterrors.Code(err))
}

func TestAllocateReferenceColumnPolicy(t *testing.T) {
	users := selectOn(t, "users")
	ref := column(t, users.Analysis, "nickname")
	dyn, ok := ref.(*symbols.DynamicReference)
	require.True(t, ok)
	assert.Equal(t, sqltypes.Undefined, dyn.ValueType())
	assert.Equal(t, metadata.Dynamic, dyn.Info().ObjectType)

	accounts := selectOn(t, "accounts")
	_, err := accounts.AllocateReference(metadata.NewReferenceIdent(accounts.TableInfo().Ident(), "nickname"))
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, vterrors.Code(err))
	assert.Equal(t, vterrors.BadFieldError, vterrors.ErrState(err))

	logs := selectOn(t, "logs")
	ref = column(t, logs.Analysis, "level")
	assert.Equal(t, metadata.Ignored, ref.Info().ObjectType)
}

func TestGranularityOnlyGrows(t *testing.T) {
	a := NewSelectAnalysis(testEnv(t))
	a.raiseGranularity(metadata.Shard)
	a.raiseGranularity(metadata.Partition)
	assert.Equal(t, metadata.Shard, a.RowGranularity())

	require.NoError(t, a.Table(context.Background(), usersIdent()))
	column(t, a.Analysis, "id")
	assert.Equal(t, metadata.Doc, a.RowGranularity())
}

func TestAllocateFunction(t *testing.T) {
	a := selectOn(t, "users")
	score := column(t, a.Analysis, "score")

	lower1 := function(t, a.Analysis, evalengine.FnLower, column(t, a.Analysis, "name"))
	lower2 := function(t, a.Analysis, evalengine.FnLower, column(t, a.Analysis, "name"))
	assert.Same(t, lower1, lower2)
	assert.False(t, a.HasAggregates())

	function(t, a.Analysis, evalengine.FnSum, score)
	assert.True(t, a.HasAggregates())
	assert.Len(t, a.Functions(), 2)

	_, err := a.FunctionInfo(metadata.NewFunctionIdent("no_such_function", sqltypes.Long))
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, vterrors.Code(err))
	assert.Equal(t, vterrors.UnknownFunction, vterrors.ErrState(err))
	assert.Contains(t, err.Error(), "no_such_function(long)")
}

func TestNormalizeInputValueCoercion(t *testing.T) {
	a := selectOn(t, "users")
	id := column(t, a.Analysis, "id")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral("42"), id)
	require.NoError(t, err)
	assert.Equal(t, sqltypes.Long, lit.ValueType())
	assert.Equal(t, int64(42), lit.Value())

	_, err = a.NormalizeInputValue(symbols.MustLiteral("abc"), id)
	require.Error(t, err)
	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "id", validation.Column)
	assert.Contains(t, err.Error(), "id")
	assert.Contains(t, err.Error(), "wrong type 'string'. expected: 'long'")
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
	assert.Equal(t, vterrors.WrongValue, vterrors.ErrState(err))

	lit, err = a.NormalizeInputValue(symbols.NullLiteral, id)
	require.NoError(t, err)
	assert.True(t, lit.IsNull())
}

func TestNormalizeInputValueEvaluates(t *testing.T) {
	a := selectOn(t, "users", "7")
	id := column(t, a.Analysis, "id")

	param, err := a.ParameterAt(0)
	require.NoError(t, err)
	lit, err := a.NormalizeInputValue(param, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), lit.Value())

	sum := function(t, a.Analysis, evalengine.FnAdd, symbols.MustLiteral(int64(1)), symbols.MustLiteral(int64(2)))
	lit, err = a.NormalizeInputValue(sum, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), lit.Value())

	_, err = a.NormalizeInputValue(column(t, a.Analysis, "score"), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid value of type")
}

func TestNormalizeInputValueDynamic(t *testing.T) {
	a := selectOn(t, "users")
	nickname := column(t, a.Analysis, "nickname")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral("bob"), nickname)
	require.NoError(t, err)
	assert.Equal(t, "bob", lit.Value())
	assert.Equal(t, sqltypes.String, nickname.ValueType())

	lit, err = a.NormalizeInputValue(symbols.MustLiteral(5), nickname)
	require.NoError(t, err)
	assert.Equal(t, "5", lit.Value())
}

func TestNormalizeInputValueObject(t *testing.T) {
	a := selectOn(t, "users")
	details := column(t, a.Analysis, "details")

	input := map[string]any{"a": 1, "age": "7"}
	lit, err := a.NormalizeInputValue(symbols.MustLiteral(input), details)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int32(1), "age": int32(7)}, lit.Value())
	assert.Equal(t, map[string]any{"a": 1, "age": "7"}, input, "input must not be modified")

	newColumns := a.NewColumns()
	require.Len(t, newColumns, 1)
	assert.Equal(t, "details.a", newColumns[0].Ident.Column.FQN())
	assert.Equal(t, sqltypes.Integer, newColumns[0].Type)

	_, err = a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"age": "old"}), details)
	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "details.age", validation.Column)
}

func TestNormalizeInputValueNestedObject(t *testing.T) {
	a := selectOn(t, "users")
	details := column(t, a.Analysis, "details")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral(map[string]any{
		"address": map[string]any{"city": "Graz", "zip": 8010},
	}), details)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"address": map[string]any{"city": "Graz", "zip": int32(8010)},
	}, lit.Value())
	assert.Len(t, a.NewColumns(), 3)
}

func TestNormalizeInputValueNestedNullLeavesTypeOpen(t *testing.T) {
	a := selectOn(t, "users")
	details := column(t, a.Analysis, "details")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"x": nil, "age": 3}), details)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": nil, "age": int32(3)}, lit.Value())
	assert.Empty(t, a.NewColumns())

	_, err = a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"x": 5}), details)
	require.NoError(t, err)
	newColumns := a.NewColumns()
	require.Len(t, newColumns, 1)
	assert.Equal(t, "details.x", newColumns[0].Ident.Column.FQN())
	assert.Equal(t, sqltypes.Integer, newColumns[0].Type)

	_, err = a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"x": "five"}), details)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
}

func TestNormalizeInputValueStrictObject(t *testing.T) {
	a := selectOn(t, "users")
	settings := column(t, a.Analysis, "settings")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"theme": 5}), settings)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "5"}, lit.Value())

	_, err = a.NormalizeInputValue(symbols.MustLiteral(map[string]any{"color": "red"}), settings)
	require.Error(t, err)
	assert.Equal(t, vterrors.BadFieldError, vterrors.ErrState(err))
}

func TestNormalizeInputValueIgnoredObject(t *testing.T) {
	a := selectOn(t, "logs")
	payload := column(t, a.Analysis, "payload")

	value := map[string]any{"anything": map[string]any{"goes": true}}
	lit, err := a.NormalizeInputValue(symbols.MustLiteral(value), payload)
	require.NoError(t, err)
	assert.Equal(t, value, lit.Value())
	assert.Empty(t, a.NewColumns())
}

func TestNormalizeInputValueAllNullObject(t *testing.T) {
	a := selectOn(t, "users")
	details := column(t, a.Analysis, "details")

	lit, err := a.NormalizeInputValue(symbols.MustLiteral(map[string]any{
		"age":   nil,
		"inner": map[string]any{"x": nil},
	}), details)
	require.NoError(t, err)
	assert.Same(t, symbols.NullLiteral, lit)

	lit, err = a.NormalizeInputValue(symbols.MustLiteral(map[string]any{}), details)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, lit.Value())
}

func TestNormalizeIsIdempotent(t *testing.T) {
	a := selectOn(t, "users")
	id := column(t, a.Analysis, "id")
	two := function(t, a.Analysis, evalengine.FnAdd, symbols.MustLiteral(int64(1)), symbols.MustLiteral(int64(1)))
	a.SetOutputSymbols([]symbols.Symbol{id, function(t, a.Analysis, evalengine.FnMultiply, symbols.MustLiteral(int64(2)), symbols.MustLiteral(int64(3)))})
	require.NoError(t, a.SetWhereClause(function(t, a.Analysis, evalengine.OpEq, id, two)))

	require.NoError(t, a.Normalize())
	outputs := symbols.KeyOf(a.OutputSymbols())
	where := a.WhereClause().Query().Key()
	assert.Equal(t, "lit:long:6", a.OutputSymbols()[1].Key())
	assert.Contains(t, where, "lit:long:2")

	require.NoError(t, a.Normalize())
	assert.Equal(t, outputs, symbols.KeyOf(a.OutputSymbols()))
	assert.Equal(t, where, a.WhereClause().Query().Key())
}

func TestWhereClauseNoMatch(t *testing.T) {
	a := selectOn(t, "users")
	assert.False(t, a.NoMatch())
	assert.False(t, a.WhereClause().HasQuery())

	eq := function(t, a.Analysis, evalengine.OpEq, symbols.MustLiteral(int64(1)), symbols.MustLiteral(int64(2)))
	require.NoError(t, a.SetWhereClause(eq))
	assert.True(t, a.NoMatch())

	require.NoError(t, a.SetWhereClause(symbols.TrueLiteral))
	assert.False(t, a.NoMatch())
	assert.False(t, a.WhereClause().HasQuery())
}

func TestClusteredByLiteral(t *testing.T) {
	a := selectOn(t, "users")
	a.SetClusteredByLiteral(symbols.MustLiteral(int64(3)))
	value, ok := a.WhereClause().ClusteredBy()
	require.True(t, ok)
	assert.Equal(t, int64(3), value.Value())
	assert.Same(t, value, a.ClusteredByLiteral())

	id := column(t, a.Analysis, "id")
	require.NoError(t, a.SetWhereClause(function(t, a.Analysis, evalengine.OpEq, id, symbols.MustLiteral(int64(3)))))
	value, ok = a.WhereClause().ClusteredBy()
	require.True(t, ok)
	assert.Same(t, a.ClusteredByLiteral(), value)
	assert.True(t, a.WhereClause().HasQuery())

	_, ok = symbols.MatchAll.ClusteredBy()
	assert.False(t, ok)
}

func TestVersionAndParameters(t *testing.T) {
	a := NewDeleteAnalysis(testEnv(t), "a", 2)
	assert.Equal(t, DeleteStatement, a.Type())
	assert.True(t, a.IsDelete())

	_, ok := a.Version()
	assert.False(t, ok)
	a.SetVersion(4)
	v, ok := a.Version()
	require.True(t, ok)
	assert.EqualValues(t, 4, v)

	assert.Equal(t, []any{"a", 2}, a.Parameters())
	p, err := a.ParameterAt(1)
	require.NoError(t, err)
	assert.Equal(t, sqltypes.Integer, p.ValueType())

	_, err = a.ParameterAt(2)
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
	assert.Equal(t, vterrors.WrongArguments, vterrors.ErrState(err))
	_, err = a.ParameterAt(-1)
	require.Error(t, err)
}

type clusterName string

func (c clusterName) Resolve(info metadata.ReferenceInfo) (any, bool) {
	if info.Ident.Column.FQN() != "cluster_name" {
		return nil, false
	}
	return string(c), true
}

func TestNormalizeResolvesClusterReferences(t *testing.T) {
	env := testEnv(t)
	env.Resolver = clusterName("prod")
	a := NewSelectAnalysis(env)

	info := metadata.NewReferenceInfo(metadata.NewReferenceIdent(metadata.NewTableIdent("sys", "cluster"), "cluster_name"), sqltypes.String)
	info.Granularity = metadata.Cluster
	a.SetOutputSymbols([]symbols.Symbol{symbols.NewReference(info)})
	a.SetOutputNames([]string{"cluster_name"})

	require.NoError(t, a.Normalize())
	assert.Equal(t, []string{"cluster_name"}, a.OutputNames())
	assert.Equal(t, `lit:string:"prod"`, a.OutputSymbols()[0].Key())
}
