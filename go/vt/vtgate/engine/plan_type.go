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
	"bytes"
	"encoding/json"
)

// PlanType classifies a plan by its top level node.
type PlanType int8

const (
	PlanUnknown PlanType = iota
	PlanNoop
	PlanGlobalAggregate
	PlanQueryAndFetch
	PlanCollect
	PlanMerge
)

func (p PlanType) String() string {
	switch p {
	case PlanNoop:
		return "Noop"
	case PlanGlobalAggregate:
		return "GlobalAggregate"
	case PlanQueryAndFetch:
		return "QueryAndFetch"
	case PlanCollect:
		return "Collect"
	case PlanMerge:
		return "Merge"
	default:
		return "Unknown"
	}
}

// TypeOf returns the PlanType of plan.
func TypeOf(plan Plan) PlanType {
	switch plan.(type) {
	case *NoopPlan:
		return PlanNoop
	case *GlobalAggregate:
		return PlanGlobalAggregate
	case *QueryAndFetch:
		return PlanQueryAndFetch
	case *CollectNode:
		return PlanCollect
	case *MergeNode:
		return PlanMerge
	default:
		return PlanUnknown
	}
}

// MarshalPlan serializes the description of plan into JSON.
func MarshalPlan(plan Plan) ([]byte, error) {
	marshalPlan := struct {
		Type         string
		Instructions PlanDescription
	}{
		Type:         TypeOf(plan).String(),
		Instructions: PlanToDescription(plan),
	}

	b := new(bytes.Buffer)
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(marshalPlan); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
