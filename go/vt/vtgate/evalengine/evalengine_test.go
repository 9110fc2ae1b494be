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

package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

func mustScalar(t *testing.T, f *Functions, name string, argTypes ...sqltypes.DataType) Scalar {
	t.Helper()
	impl, ok := f.Get(metadata.NewFunctionIdent(name, argTypes...))
	require.True(t, ok, "%s not found", name)
	s, ok := impl.(Scalar)
	require.True(t, ok)
	return s
}

func TestFunctionsGet(t *testing.T) {
	f := NewFunctions()

	impl, ok := f.Get(metadata.NewFunctionIdent(FnAdd, sqltypes.Integer, sqltypes.Long))
	require.True(t, ok)
	assert.Equal(t, sqltypes.Long, impl.Info().ReturnType)
	assert.Equal(t, "add(integer,long)", impl.Info().Ident.Key())

	impl, ok = f.Get(metadata.NewFunctionIdent(FnAdd, sqltypes.Integer, sqltypes.Double))
	require.True(t, ok)
	assert.Equal(t, sqltypes.Double, impl.Info().ReturnType)

	_, ok = f.Get(metadata.NewFunctionIdent(FnAdd, sqltypes.String, sqltypes.Long))
	assert.False(t, ok)
	_, ok = f.Get(metadata.NewFunctionIdent("no_such_function"))
	assert.False(t, ok)

	impl, ok = f.Get(metadata.NewFunctionIdent(FnSum, sqltypes.Integer))
	require.True(t, ok)
	assert.True(t, impl.Info().IsAggregate())
}

func TestScalars(t *testing.T) {
	f := NewFunctions()
	cases := []struct {
		name     string
		argTypes []sqltypes.DataType
		args     []any
		want     any
	}{
		{OpEq, []sqltypes.DataType{sqltypes.Integer, sqltypes.Long}, []any{int32(1), int64(1)}, true},
		{OpLt, []sqltypes.DataType{sqltypes.String, sqltypes.String}, []any{"a", "b"}, true},
		{OpGte, []sqltypes.DataType{sqltypes.Double, sqltypes.Integer}, []any{1.5, int32(2)}, false},
		{OpEq, []sqltypes.DataType{sqltypes.Integer, sqltypes.Null}, []any{int32(1), nil}, nil},
		{OpAnd, []sqltypes.DataType{sqltypes.Boolean, sqltypes.Boolean}, []any{nil, false}, false},
		{OpAnd, []sqltypes.DataType{sqltypes.Boolean, sqltypes.Boolean}, []any{nil, true}, nil},
		{OpOr, []sqltypes.DataType{sqltypes.Boolean, sqltypes.Boolean}, []any{nil, true}, true},
		{OpNot, []sqltypes.DataType{sqltypes.Boolean}, []any{true}, false},
		{OpIsNull, []sqltypes.DataType{sqltypes.String}, []any{nil}, true},
		{FnAdd, []sqltypes.DataType{sqltypes.Integer, sqltypes.Integer}, []any{int32(40), int32(2)}, int64(42)},
		{FnDivide, []sqltypes.DataType{sqltypes.Long, sqltypes.Long}, []any{int64(7), int64(2)}, int64(3)},
		{FnMultiply, []sqltypes.DataType{sqltypes.Double, sqltypes.Long}, []any{1.5, int64(2)}, 3.0},
		{FnLower, []sqltypes.DataType{sqltypes.String}, []any{"ABC"}, "abc"},
		{FnCharLength, []sqltypes.DataType{sqltypes.String}, []any{"héllo"}, int32(5)},
		{FnConcat, []sqltypes.DataType{sqltypes.String, sqltypes.Long}, []any{"a", int64(1)}, "a1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mustScalar(t, f, tc.name, tc.argTypes...).Evaluate(tc.args...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	f := NewFunctions()
	_, err := mustScalar(t, f, FnDivide, sqltypes.Long, sqltypes.Long).Evaluate(int64(1), int64(0))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, vterrors.Code(err))
}

func TestAggregates(t *testing.T) {
	f := NewFunctions()
	newState := func(name string, argTypes ...sqltypes.DataType) AggregationState {
		impl, ok := f.Get(metadata.NewFunctionIdent(name, argTypes...))
		require.True(t, ok)
		return impl.(Aggregate).NewState()
	}
	run := func(name string, argType sqltypes.DataType, shards ...[]any) any {
		final := newState(name, argType)
		for _, rows := range shards {
			partial := newState(name, argType)
			for _, v := range rows {
				require.NoError(t, partial.Add(v))
			}
			require.NoError(t, final.Merge(partial))
		}
		return final.Value()
	}

	assert.Equal(t, int64(3), run(FnCount, sqltypes.Integer, []any{int32(1), nil}, []any{int32(2), int32(3)}))
	assert.Equal(t, int64(6), run(FnSum, sqltypes.Integer, []any{int32(1), nil}, []any{int32(2), int32(3)}))
	assert.Equal(t, 2.0, run(FnAvg, sqltypes.Integer, []any{int32(1)}, []any{int32(2), int32(3)}))
	assert.Equal(t, int32(1), run(FnMin, sqltypes.Integer, []any{int32(3)}, []any{int32(1), nil}))
	assert.Equal(t, "b", run(FnMax, sqltypes.String, []any{"a"}, []any{"b"}))
	assert.Nil(t, run(FnSum, sqltypes.Double, []any{nil}))

	countAll := newState(FnCount)
	require.NoError(t, countAll.Add())
	require.NoError(t, countAll.Add())
	assert.Equal(t, int64(2), countAll.Value())

	assert.Error(t, newState(FnSum, sqltypes.Long).Merge(newState(FnAvg, sqltypes.Long)))
}

type clusterName string

func (c clusterName) Resolve(info metadata.ReferenceInfo) (any, bool) {
	if info.Ident.Column.FQN() == "name" {
		return string(c), true
	}
	return nil, false
}

func TestNormalizerFoldsConstants(t *testing.T) {
	f := NewFunctions()
	n := NewEvaluatingNormalizer(f, metadata.Cluster, nil)

	add, _ := f.Get(metadata.NewFunctionIdent(FnAdd, sqltypes.Long, sqltypes.Long))
	eq, _ := f.Get(metadata.NewFunctionIdent(OpEq, sqltypes.Long, sqltypes.Long))
	idRef := symbols.NewReference(metadata.NewReferenceInfo(
		metadata.NewReferenceIdent(metadata.NewTableIdent("doc", "t"), "id"), sqltypes.Long))

	sum := symbols.NewFunction(add.Info(), symbols.MustLiteral(int64(1)), symbols.NewParameter(0, int64(2)))
	got, err := n.Normalize(sum)
	require.NoError(t, err)
	assert.Equal(t, symbols.MustLiteral(int64(3)).Key(), got.Key())

	// id = 1 + 2 folds the right side only.
	cmp := symbols.NewFunction(eq.Info(), idRef, sum)
	got, err = n.Normalize(cmp)
	require.NoError(t, err)
	folded, ok := got.(*symbols.Function)
	require.True(t, ok)
	assert.Same(t, idRef, folded.Arg(0))
	assert.Equal(t, int64(3), folded.Arg(1).(*symbols.Literal).Value())

	again, err := n.Normalize(got)
	require.NoError(t, err)
	assert.Equal(t, got.Key(), again.Key())
}

func TestNormalizerResolvesReferences(t *testing.T) {
	f := NewFunctions()
	sysCluster := metadata.NewTableIdent("sys", "cluster")
	nameInfo := metadata.NewReferenceInfo(metadata.NewReferenceIdent(sysCluster, "name"), sqltypes.String)
	nameInfo.Granularity = metadata.Cluster
	docInfo := metadata.NewReferenceInfo(metadata.NewReferenceIdent(sysCluster, "name"), sqltypes.String)

	n := NewEvaluatingNormalizer(f, metadata.Cluster, clusterName("prod"))
	got, err := n.Normalize(symbols.NewReference(nameInfo))
	require.NoError(t, err)
	assert.Equal(t, "prod", got.(*symbols.Literal).Value())

	ref := symbols.NewReference(docInfo)
	got, err = n.Normalize(ref)
	require.NoError(t, err)
	assert.Same(t, ref, got)
}

func TestNormalizerPropagatesErrors(t *testing.T) {
	f := NewFunctions()
	n := NewEvaluatingNormalizer(f, metadata.Cluster, nil)
	div, _ := f.Get(metadata.NewFunctionIdent(FnDivide, sqltypes.Long, sqltypes.Long))

	_, err := n.Normalize(symbols.NewFunction(div.Info(), symbols.MustLiteral(int64(1)), symbols.MustLiteral(int64(0))))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}
