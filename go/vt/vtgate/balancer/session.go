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

package balancer

import (
	"slices"

	"github.com/cespare/xxhash/v2"
)

// sessionBalancer implements the ReplicaBalancer interface. For a given
// session key it returns the same order for a shard for as long as the
// set of copies doesn't change. Different shards of the same session are
// spread over the nodes.
type sessionBalancer struct {
	session string
}

// Order sorts replicas by descending weight. Adding or removing a copy only
// changes the position of that copy.
func (b *sessionBalancer) Order(shard string, replicas []Replica, _ ...PickOption) []Replica {
	ordered := slices.Clone(replicas)
	weights := make(map[string]uint64, len(ordered))
	for _, r := range ordered {
		weights[r.NodeID()] = weight(r.NodeID(), b.session+"#"+shard)
	}
	slices.SortStableFunc(ordered, func(a, b Replica) int {
		wa, wb := weights[a.NodeID()], weights[b.NodeID()]
		switch {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		return 0
	})
	return ordered
}

// weight computes the weight of a copy by hashing its node and the session key together.
func weight(nodeID string, session string) uint64 {
	return xxhash.Sum64String(nodeID + "#" + session)
}
