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

package engine

import (
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

var _ PlannedRelation = (*GlobalAggregate)(nil)

// GlobalAggregate aggregates over all rows of a table without grouping.
// The shards compute partial results, the handler merges them into a
// single row. As a relation it is opaque: its fields can't be resolved.
type GlobalAggregate struct {
	id      uuid.UUID
	collect *CollectNode
	merge   *MergeNode
}

// NewGlobalAggregate combines collect, which must end with an aggregation
// to PARTIAL, and merge, which must aggregate from PARTIAL.
func NewGlobalAggregate(collect *CollectNode, merge *MergeNode) (*GlobalAggregate, error) {
	if collect == nil || merge == nil {
		return nil, vterrors.New(codes.Internal, "[BUG] global aggregate needs a collect and a merge node")
	}
	if !aggregatesTo(collect.Projections, symbols.Partial) {
		return nil, vterrors.Errorf(codes.Internal, "[BUG] collect node %s doesn't aggregate to %s", collect.Name, symbols.Partial)
	}
	if !aggregatesFrom(merge.Projections, symbols.Partial) {
		return nil, vterrors.Errorf(codes.Internal, "[BUG] merge node %s doesn't aggregate from %s", merge.Name, symbols.Partial)
	}
	return &GlobalAggregate{id: uuid.New(), collect: collect, merge: merge}, nil
}

func (g *GlobalAggregate) CollectNode() *CollectNode              { return g.collect }
func (g *GlobalAggregate) MergeNode() *MergeNode                  { return g.merge }
func (g *GlobalAggregate) ID() uuid.UUID                          { return g.id }
func (g *GlobalAggregate) Accept(v PlanVisitor) error             { return v.VisitGlobalAggregate(g) }
func (g *GlobalAggregate) AcceptRelation(v RelationVisitor) error { return v.VisitPlannedAnalyzedRelation(g) }
func (g *GlobalAggregate) Inputs() []Plan                         { return []Plan{g.collect, g.merge} }
func (g *GlobalAggregate) OutputTypes() []sqltypes.DataType       { return g.merge.OutputTypes() }

func (g *GlobalAggregate) Field(path metadata.ColumnIdent) (Field, error) {
	return Field{}, vterrors.Wrapf(ErrUnsupportedOnNode, "Field(%s) on GlobalAggregate", path)
}

func (g *GlobalAggregate) WritableField(path metadata.ColumnIdent) (Field, error) {
	return Field{}, vterrors.Wrapf(ErrUnsupportedOnNode, "WritableField(%s) on GlobalAggregate", path)
}

func (g *GlobalAggregate) Fields() ([]Field, error) {
	return nil, vterrors.Wrap(ErrUnsupportedOnNode, "Fields on GlobalAggregate")
}

func (g *GlobalAggregate) description() PlanDescription {
	return PlanDescription{
		OperatorType: "GlobalAggregate",
		Other:        addToOther(nil, "OutputTypes", typeNames(g.OutputTypes())),
	}
}

func aggregatesTo(projections []Projection, step symbols.AggregationStep) bool {
	for _, p := range projections {
		if agg, ok := p.(*AggregationProjection); ok && len(agg.Aggregations) > 0 {
			return agg.Aggregations[0].ToStep() == step
		}
	}
	return false
}

func aggregatesFrom(projections []Projection, step symbols.AggregationStep) bool {
	for _, p := range projections {
		if agg, ok := p.(*AggregationProjection); ok && len(agg.Aggregations) > 0 {
			return agg.Aggregations[0].FromStep() == step
		}
	}
	return false
}

func typeNames(types []sqltypes.DataType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Name()
	}
	return out
}
