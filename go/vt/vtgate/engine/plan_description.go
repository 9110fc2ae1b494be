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
)

// PlanDescription is used to create a serializable representation of the Plan tree
type PlanDescription struct {
	OperatorType string
	Variant      string         `json:",omitempty"`
	ID           uuid.UUID      `json:"-"`
	Other        map[string]any `json:",omitempty"`
	Inputs       []PlanDescription
}

// PlanToDescription transforms a plan tree into a corresponding PlanDescription tree
func PlanToDescription(in Plan) PlanDescription {
	this := in.description()
	this.ID = in.ID()

	for _, input := range in.Inputs() {
		this.Inputs = append(this.Inputs, PlanToDescription(input))
	}

	if len(in.Inputs()) == 0 {
		this.Inputs = []PlanDescription{}
	}

	return this
}

func addToOther(other map[string]any, key string, value any) map[string]any {
	if other == nil {
		other = map[string]any{}
	}
	other[key] = value
	return other
}
