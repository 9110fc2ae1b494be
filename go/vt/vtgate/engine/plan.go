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

// Package engine holds the plan model: the nodes that collect rows on the
// shards, the nodes that merge them on the handler, and the plans that
// combine both.
package engine

import (
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

// Plan is a node of a plan tree. Plans are immutable once built and may be
// shared between goroutines.
type Plan interface {
	// ID identifies the node within the job that executes it.
	ID() uuid.UUID
	// Accept calls the method of v for the concrete type of the node.
	Accept(v PlanVisitor) error
	// Inputs returns the nodes this node consumes.
	Inputs() []Plan
	// OutputTypes are the types of the columns the node produces.
	OutputTypes() []sqltypes.DataType

	description() PlanDescription
}

// PlanVisitor has one method per kind of node.
type PlanVisitor interface {
	VisitCollectNode(node *CollectNode) error
	VisitMergeNode(node *MergeNode) error
	VisitGlobalAggregate(plan *GlobalAggregate) error
	VisitQueryAndFetch(plan *QueryAndFetch) error
	VisitNoopPlan(plan *NoopPlan) error
}

// BasePlanVisitor can be embedded by visitors that only care about some
// node kinds. Every method does nothing.
type BasePlanVisitor struct{}

func (BasePlanVisitor) VisitCollectNode(*CollectNode) error         { return nil }
func (BasePlanVisitor) VisitMergeNode(*MergeNode) error             { return nil }
func (BasePlanVisitor) VisitGlobalAggregate(*GlobalAggregate) error { return nil }
func (BasePlanVisitor) VisitQueryAndFetch(*QueryAndFetch) error     { return nil }
func (BasePlanVisitor) VisitNoopPlan(*NoopPlan) error               { return nil }

// ErrUnsupportedOnNode is returned by planned relations that can't be
// looked into.
var ErrUnsupportedOnNode = vterrors.NewErrorf(codes.Unimplemented, vterrors.NotSupportedYet, "operation not supported on this plan")

// Field is an output column of a relation.
type Field struct {
	Path metadata.ColumnIdent
	Type sqltypes.DataType
}

// PlannedRelation is a plan that another statement can select from.
type PlannedRelation interface {
	Plan
	// Field returns the output column at path.
	Field(path metadata.ColumnIdent) (Field, error)
	// WritableField returns the output column at path if rows can be
	// written through it.
	WritableField(path metadata.ColumnIdent) (Field, error)
	// Fields returns all output columns.
	Fields() ([]Field, error)
	// AcceptRelation calls v.VisitPlannedAnalyzedRelation.
	AcceptRelation(v RelationVisitor) error
}

// RelationVisitor visits the relations of a statement.
type RelationVisitor interface {
	VisitPlannedAnalyzedRelation(relation PlannedRelation) error
}

// Walk calls fn for plan and all its inputs, depth first, parents first.
// It stops at the first error.
func Walk(plan Plan, fn func(Plan) error) error {
	if err := fn(plan); err != nil {
		return err
	}
	for _, input := range plan.Inputs() {
		if err := Walk(input, fn); err != nil {
			return err
		}
	}
	return nil
}

func outputTypesOf(projections []Projection, fallback []sqltypes.DataType) []sqltypes.DataType {
	if len(projections) == 0 {
		return fallback
	}
	return symbolTypes(projections[len(projections)-1].Outputs())
}
