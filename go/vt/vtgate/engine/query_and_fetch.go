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
	"slices"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

var _ PlannedRelation = (*QueryAndFetch)(nil)

// QueryAndFetch collects rows on the shards and, if there is more than
// one upstream or the rows need ordering or a limit, merges them on the
// handler.
type QueryAndFetch struct {
	id          uuid.UUID
	collect     *CollectNode
	localMerge  *MergeNode
	outputNames []string
}

// NewQueryAndFetch returns the plan. localMerge may be nil.
func NewQueryAndFetch(collect *CollectNode, localMerge *MergeNode, outputNames []string) *QueryAndFetch {
	return &QueryAndFetch{
		id:          uuid.New(),
		collect:     collect,
		localMerge:  localMerge,
		outputNames: slices.Clone(outputNames),
	}
}

func (q *QueryAndFetch) CollectNode() *CollectNode              { return q.collect }
func (q *QueryAndFetch) LocalMerge() *MergeNode                 { return q.localMerge }
func (q *QueryAndFetch) OutputNames() []string                  { return slices.Clone(q.outputNames) }
func (q *QueryAndFetch) ID() uuid.UUID                          { return q.id }
func (q *QueryAndFetch) Accept(v PlanVisitor) error             { return v.VisitQueryAndFetch(q) }
func (q *QueryAndFetch) AcceptRelation(v RelationVisitor) error { return v.VisitPlannedAnalyzedRelation(q) }

func (q *QueryAndFetch) Inputs() []Plan {
	if q.localMerge == nil {
		return []Plan{q.collect}
	}
	return []Plan{q.collect, q.localMerge}
}

func (q *QueryAndFetch) OutputTypes() []sqltypes.DataType {
	if q.localMerge != nil {
		return q.localMerge.OutputTypes()
	}
	return q.collect.OutputTypes()
}

// Fields returns one field per output name.
func (q *QueryAndFetch) Fields() ([]Field, error) {
	types := q.OutputTypes()
	fields := make([]Field, len(q.outputNames))
	for i, name := range q.outputNames {
		fields[i] = Field{Path: metadata.ColumnIdentFromFQN(name)}
		if i < len(types) {
			fields[i].Type = types[i]
		}
	}
	return fields, nil
}

func (q *QueryAndFetch) Field(path metadata.ColumnIdent) (Field, error) {
	fields, _ := q.Fields()
	for _, f := range fields {
		if f.Path == path {
			return f, nil
		}
	}
	return Field{}, vterrors.NewErrorf(codes.NotFound, vterrors.BadFieldError, "unknown column '%s' in relation", path)
}

// WritableField fails: rows of a query can't be written.
func (q *QueryAndFetch) WritableField(path metadata.ColumnIdent) (Field, error) {
	return Field{}, vterrors.Wrapf(ErrUnsupportedOnNode, "WritableField(%s) on QueryAndFetch", path)
}

func (q *QueryAndFetch) description() PlanDescription {
	var other map[string]any
	if len(q.outputNames) > 0 {
		other = addToOther(other, "Columns", q.outputNames)
	}
	return PlanDescription{
		OperatorType: "QueryAndFetch",
		Other:        other,
	}
}
