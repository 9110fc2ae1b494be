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

package metadata

import (
	"encoding/json"
	"slices"
	"sort"
)

// Locations maps a node id to the shards, by index name, it has to serve.
type Locations map[string]map[string][]int

// Routing is the set of (node, index, shard) triples a query must visit.
// It is immutable once built and safe for concurrent reads.
type Routing struct {
	locations Locations
}

// NewRouting wraps locations. Shard lists are copied and sorted.
func NewRouting(locations Locations) *Routing {
	out := make(Locations, len(locations))
	for node, indices := range locations {
		m := make(map[string][]int, len(indices))
		for index, shards := range indices {
			s := slices.Clone(shards)
			sort.Ints(s)
			m[index] = s
		}
		out[node] = m
	}
	return &Routing{locations: out}
}

// EmptyRouting is the routing of a table whose indices do not exist (yet).
func EmptyRouting() *Routing {
	return &Routing{locations: Locations{}}
}

// Locations returns a copy of the node → index → shards mapping.
func (r *Routing) Locations() Locations {
	return NewRouting(r.locations).locations
}

// HasLocations is false for an empty routing.
func (r *Routing) HasLocations() bool {
	return len(r.locations) > 0
}

// NodeIDs returns the participating nodes, sorted.
func (r *Routing) NodeIDs() []string {
	nodes := make([]string, 0, len(r.locations))
	for node := range r.locations {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

// Shards returns the shards node must serve for index.
func (r *Routing) Shards(node, index string) []int {
	return slices.Clone(r.locations[node][index])
}

// NumShards counts the (index, shard) pairs in the routing.
func (r *Routing) NumShards() int {
	n := 0
	for _, indices := range r.locations {
		for _, shards := range indices {
			n += len(shards)
		}
	}
	return n
}

// MarshalJSON renders the locations.
func (r *Routing) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.locations)
}
