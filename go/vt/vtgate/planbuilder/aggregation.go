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

// aggregationSplitter splits the aggregate functions of a statement into a
// partial step run on the shards and a final step run on the handler.
type aggregationSplitter struct {
	toCollect []symbols.Symbol
	partials  []*symbols.Aggregation
	finals    []*symbols.Aggregation
	index     map[string]int
}

// rewrite replaces every aggregate function in s by a column of the final
// aggregation output.
func (as *aggregationSplitter) rewrite(s symbols.Symbol) (symbols.Symbol, error) {
	switch s := s.(type) {
	case *symbols.Function:
		if s.Info().IsAggregate() {
			i := as.split(s)
			return symbols.NewInputColumn(i, s.ValueType()), nil
		}
		args := s.Args()
		for i, arg := range args {
			rewritten, err := as.rewrite(arg)
			if err != nil {
				return nil, err
			}
			args[i] = rewritten
		}
		return symbols.NewFunction(s.Info(), args...), nil
	case symbols.Ref:
		return nil, vterrors.NewErrorf(codes.InvalidArgument, vterrors.WrongArguments,
			"'%s' must appear in the GROUP BY clause or be used in an aggregation function", s)
	}
	return s, nil
}

func (as *aggregationSplitter) split(fn *symbols.Function) int {
	if i, ok := as.index[fn.Key()]; ok {
		return i
	}
	inputs := make([]symbols.Symbol, fn.NumArgs())
	for j, arg := range fn.Args() {
		inputs[j] = symbols.NewInputColumn(len(as.toCollect), arg.ValueType())
		as.toCollect = append(as.toCollect, arg)
	}
	i := len(as.partials)
	as.partials = append(as.partials, symbols.NewAggregation(fn.Info(), inputs, symbols.Iter, symbols.Partial))
	as.finals = append(as.finals, symbols.NewAggregation(fn.Info(),
		[]symbols.Symbol{symbols.NewInputColumn(i, sqltypes.Undefined)}, symbols.Partial, symbols.Final))
	as.index[fn.Key()] = i
	return i
}

func planGlobalAggregate(a *semantics.SelectAnalysis, routing *metadata.Routing) (engine.Plan, error) {
	as := &aggregationSplitter{index: make(map[string]int)}

	outputs := a.OutputSymbols()
	for i, s := range outputs {
		rewritten, err := as.rewrite(s)
		if err != nil {
			return nil, err
		}
		outputs[i] = rewritten
	}
	var having symbols.Symbol
	if a.Having() != nil {
		var err error
		if having, err = as.rewrite(a.Having()); err != nil {
			return nil, err
		}
	}

	collect := engine.NewCollectNode("collect", routing, as.toCollect, a.WhereClause(),
		&engine.AggregationProjection{Aggregations: as.partials})
	collect.MaxRowGranularity = a.RowGranularity()

	finalTypes := make([]sqltypes.DataType, len(as.finals))
	for i, f := range as.finals {
		finalTypes[i] = f.ValueType()
	}
	projections := []engine.Projection{&engine.AggregationProjection{Aggregations: as.finals}}
	if having != nil {
		projections = append(projections, &engine.FilterProjection{Query: having, OutputList: engine.InputColumns(finalTypes)})
	}
	limit, hasLimit := a.Limit()
	if !hasLimit {
		limit = engine.NoLimit
	}
	projections = append(projections, &engine.TopNProjection{Limit: limit, Offset: a.Offset(), OutputList: outputs})

	merge := engine.NewMergeNode("mergeOnHandler", len(routing.NodeIDs()), collect.OutputTypes(), projections...)
	return engine.NewGlobalAggregate(collect, merge)
}
