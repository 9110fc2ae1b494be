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
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

var _ Plan = (*CollectNode)(nil)

// CollectNode reads rows on the shards of its routing. Each shard
// evaluates ToCollect for the rows matching Where, then applies the
// projections in order.
type CollectNode struct {
	id          uuid.UUID
	Name        string
	Routing     *metadata.Routing
	ToCollect   []symbols.Symbol
	Where       *symbols.WhereClause
	Projections []Projection
	// MaxRowGranularity is the finest granularity of anything collected.
	MaxRowGranularity metadata.RowGranularity
}

// NewCollectNode returns a collect node with a fresh id.
func NewCollectNode(name string, routing *metadata.Routing, toCollect []symbols.Symbol, where *symbols.WhereClause, projections ...Projection) *CollectNode {
	if where == nil {
		where = symbols.MatchAll
	}
	return &CollectNode{
		id:                uuid.New(),
		Name:              name,
		Routing:           routing,
		ToCollect:         slices.Clone(toCollect),
		Where:             where,
		Projections:       projections,
		MaxRowGranularity: metadata.Doc,
	}
}

func (c *CollectNode) ID() uuid.UUID              { return c.id }
func (c *CollectNode) Accept(v PlanVisitor) error { return v.VisitCollectNode(c) }
func (c *CollectNode) Inputs() []Plan             { return nil }

// OutputTypes are the types after the last projection.
func (c *CollectNode) OutputTypes() []sqltypes.DataType {
	return outputTypesOf(c.Projections, symbolTypes(c.ToCollect))
}

// ExecutionNodes are the nodes the collect runs on.
func (c *CollectNode) ExecutionNodes() []string {
	if c.Routing == nil {
		return nil
	}
	return c.Routing.NodeIDs()
}

func (c *CollectNode) description() PlanDescription {
	other := map[string]any{
		"ToCollect":   symbolStrings(c.ToCollect),
		"Granularity": c.MaxRowGranularity.String(),
	}
	if c.Where.HasQuery() || c.Where.NoMatch() {
		other["Where"] = c.Where.String()
	}
	if c.Routing != nil {
		other["Nodes"] = c.Routing.NodeIDs()
		other["Shards"] = c.Routing.NumShards()
	}
	if len(c.Projections) > 0 {
		other["Projections"] = projectionStrings(c.Projections)
	}
	return PlanDescription{
		OperatorType: "Collect",
		Variant:      c.Name,
		Other:        other,
	}
}

func symbolStrings(in []symbols.Symbol) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}
