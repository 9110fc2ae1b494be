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
	"fmt"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// Projection is a transformation applied to the rows flowing through a
// collect or merge node. Its outputs refer to the columns of its input
// through symbols.InputColumn.
type Projection interface {
	Outputs() []symbols.Symbol
	String() string
}

// AggregationProjection moves aggregations from one step to the next:
// ITER to PARTIAL on the shards, PARTIAL to FINAL on the handler.
type AggregationProjection struct {
	Aggregations []*symbols.Aggregation
}

func (p *AggregationProjection) Outputs() []symbols.Symbol {
	out := make([]symbols.Symbol, len(p.Aggregations))
	for i, a := range p.Aggregations {
		out[i] = a
	}
	return out
}

func (p *AggregationProjection) String() string {
	return fmt.Sprintf("Aggregation%v", p.Aggregations)
}

// TopNProjection orders rows and applies limit and offset. A Limit of
// NoLimit keeps all rows.
type TopNProjection struct {
	Limit      int
	Offset     int
	OutputList []symbols.Symbol
	OrderBy    []symbols.Symbol
	Descending []bool
	NullsFirst []bool
}

// NoLimit is the TopNProjection limit that keeps all rows.
const NoLimit = -1

func (p *TopNProjection) Outputs() []symbols.Symbol { return p.OutputList }

// IsOrdered reports whether rows are sorted.
func (p *TopNProjection) IsOrdered() bool { return len(p.OrderBy) > 0 }

func (p *TopNProjection) String() string {
	return fmt.Sprintf("TopN(limit=%d, offset=%d, order=%v)", p.Limit, p.Offset, p.OrderBy)
}

// FilterProjection drops rows for which Query isn't true.
type FilterProjection struct {
	Query      symbols.Symbol
	OutputList []symbols.Symbol
}

func (p *FilterProjection) Outputs() []symbols.Symbol { return p.OutputList }

func (p *FilterProjection) String() string {
	return fmt.Sprintf("Filter(%s)", p.Query)
}

// InputColumns returns InputColumn symbols for types, one per column.
func InputColumns(types []sqltypes.DataType) []symbols.Symbol {
	out := make([]symbols.Symbol, len(types))
	for i, t := range types {
		out[i] = symbols.NewInputColumn(i, t)
	}
	return out
}

func symbolTypes(in []symbols.Symbol) []sqltypes.DataType {
	out := make([]sqltypes.DataType, len(in))
	for i, s := range in {
		out[i] = s.ValueType()
	}
	return out
}

func projectionStrings(projections []Projection) []string {
	out := make([]string, len(projections))
	for i, p := range projections {
		out[i] = p.String()
	}
	return out
}
