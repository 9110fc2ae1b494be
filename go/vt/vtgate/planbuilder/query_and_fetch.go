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

package planbuilder

import (
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/engine"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/semantics"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

func planQueryAndFetch(a *semantics.SelectAnalysis, routing *metadata.Routing) (engine.Plan, error) {
	if a.Having() != nil {
		return nil, vterrors.NewErrorf(codes.Unimplemented, vterrors.NotSupportedYet, "HAVING without aggregation is not supported")
	}
	outputs := a.OutputSymbols()
	toCollect := append([]symbols.Symbol(nil), outputs...)

	var (
		orderBy    []int
		descending []bool
		nullsFirst []bool
	)
	for _, o := range a.OrderBy() {
		idx := indexOf(toCollect, o.Symbol)
		if idx < 0 {
			idx = len(toCollect)
			toCollect = append(toCollect, o.Symbol)
		}
		orderBy = append(orderBy, idx)
		descending = append(descending, o.Descending)
		nullsFirst = append(nullsFirst, o.NullsFirst)
	}

	collectTypes := make([]sqltypes.DataType, len(toCollect))
	for i, s := range toCollect {
		collectTypes[i] = s.ValueType()
	}
	orderSymbols := make([]symbols.Symbol, len(orderBy))
	for i, idx := range orderBy {
		orderSymbols[i] = symbols.NewInputColumn(idx, collectTypes[idx])
	}

	limit, hasLimit := a.Limit()
	offset := a.Offset()

	var collectProjections []engine.Projection
	if hasLimit {
		collectProjections = append(collectProjections, &engine.TopNProjection{
			Limit:      limit + offset,
			OutputList: engine.InputColumns(collectTypes),
			OrderBy:    orderSymbols,
			Descending: descending,
			NullsFirst: nullsFirst,
		})
	}
	collect := engine.NewCollectNode("collect", routing, toCollect, a.WhereClause(), collectProjections...)
	collect.MaxRowGranularity = a.RowGranularity()

	needsMerge := routing.NumShards() > 1 || len(orderBy) > 0 || hasLimit || offset > 0 || len(toCollect) > len(outputs)
	if !needsMerge {
		return engine.NewQueryAndFetch(collect, nil, a.OutputNames()), nil
	}

	if !hasLimit {
		limit = engine.NoLimit
	}
	merge := engine.NewMergeNode("localMerge", len(routing.NodeIDs()), collect.OutputTypes(), &engine.TopNProjection{
		Limit:      limit,
		Offset:     offset,
		OutputList: engine.InputColumns(collectTypes)[:len(outputs)],
		OrderBy:    orderSymbols,
		Descending: descending,
		NullsFirst: nullsFirst,
	})
	merge.OrderByIndices = orderBy
	merge.Descending = descending
	merge.NullsFirst = nullsFirst
	return engine.NewQueryAndFetch(collect, merge, a.OutputNames()), nil
}

func indexOf(in []symbols.Symbol, s symbols.Symbol) int {
	for i, candidate := range in {
		if candidate.Key() == s.Key() {
			return i
		}
	}
	return -1
}

func outputTypes(a *semantics.SelectAnalysis) []sqltypes.DataType {
	outputs := a.OutputSymbols()
	types := make([]sqltypes.DataType, len(outputs))
	for i, s := range outputs {
		types[i] = s.ValueType()
	}
	return types
}
