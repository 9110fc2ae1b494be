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

	"shardql.io/shardql/go/sqltypes"
)

var _ Plan = (*MergeNode)(nil)

// MergeNode combines the rows of NumUpstreams upstreams. The rows are
// merge sorted by the order by columns if there are any, then the
// projections are applied.
type MergeNode struct {
	id           uuid.UUID
	Name         string
	NumUpstreams int
	InputTypes   []sqltypes.DataType
	Projections  []Projection

	// OrderByIndices are input columns the upstreams are sorted by.
	OrderByIndices []int
	Descending     []bool
	NullsFirst     []bool

	// ExecutionNodes are the nodes merging, empty for the handler.
	ExecutionNodes []string
}

// NewMergeNode returns a merge node with a fresh id.
func NewMergeNode(name string, numUpstreams int, inputTypes []sqltypes.DataType, projections ...Projection) *MergeNode {
	return &MergeNode{
		id:           uuid.New(),
		Name:         name,
		NumUpstreams: numUpstreams,
		InputTypes:   slices.Clone(inputTypes),
		Projections:  projections,
	}
}

func (m *MergeNode) ID() uuid.UUID              { return m.id }
func (m *MergeNode) Accept(v PlanVisitor) error { return v.VisitMergeNode(m) }
func (m *MergeNode) Inputs() []Plan             { return nil }
func (m *MergeNode) IsSorted() bool             { return len(m.OrderByIndices) > 0 }

// OutputTypes are the types after the last projection.
func (m *MergeNode) OutputTypes() []sqltypes.DataType {
	return outputTypesOf(m.Projections, m.InputTypes)
}

// Limit returns the limit and offset of the last top-n projection.
func (m *MergeNode) Limit() (limit, offset int, ok bool) {
	for i := len(m.Projections) - 1; i >= 0; i-- {
		if topN, isTopN := m.Projections[i].(*TopNProjection); isTopN {
			return topN.Limit, topN.Offset, true
		}
	}
	return NoLimit, 0, false
}

func (m *MergeNode) description() PlanDescription {
	other := map[string]any{
		"Upstreams": m.NumUpstreams,
	}
	if len(m.Projections) > 0 {
		other["Projections"] = projectionStrings(m.Projections)
	}
	if m.IsSorted() {
		other["OrderBy"] = m.OrderByIndices
	}
	if len(m.ExecutionNodes) > 0 {
		other["Nodes"] = m.ExecutionNodes
	}
	return PlanDescription{
		OperatorType: "Merge",
		Variant:      m.Name,
		Other:        other,
	}
}
