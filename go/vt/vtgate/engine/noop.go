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

	"shardql.io/shardql/go/sqltypes"
)

var _ Plan = (*NoopPlan)(nil)

// NoopPlan produces no rows. It is planned for statements that can't match
// anything, without asking where the table lives.
type NoopPlan struct {
	id          uuid.UUID
	outputTypes []sqltypes.DataType
}

// NewNoopPlan returns a plan producing no rows of outputTypes.
func NewNoopPlan(outputTypes []sqltypes.DataType) *NoopPlan {
	return &NoopPlan{id: uuid.New(), outputTypes: outputTypes}
}

func (n *NoopPlan) ID() uuid.UUID                    { return n.id }
func (n *NoopPlan) Accept(v PlanVisitor) error       { return v.VisitNoopPlan(n) }
func (n *NoopPlan) Inputs() []Plan                   { return nil }
func (n *NoopPlan) OutputTypes() []sqltypes.DataType { return n.outputTypes }

func (n *NoopPlan) description() PlanDescription {
	return PlanDescription{OperatorType: "Noop"}
}
