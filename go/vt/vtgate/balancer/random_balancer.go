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
	"math/rand/v2"
	"slices"
)

/*

The randomBalancer provides a simple, stateless load balancing strategy that
uniformly distributes reads across all copies of a shard without considering
node affinity.

nodeBalancer is the random balancer with one node moved to the front: the
local node for _local, the named node for _prefer_node.

*/

func newRandomBalancer() ReplicaBalancer {
	return &randomBalancer{}
}

type randomBalancer struct{}

// Order shuffles replicas with uniform probability.
func (b *randomBalancer) Order(_ string, replicas []Replica, _ ...PickOption) []Replica {
	ordered := slices.Clone(replicas)
	rand.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	return ordered
}

type nodeBalancer struct {
	// node is the preferred node. Empty means the local node.
	node string
}

func (b *nodeBalancer) Order(shard string, replicas []Replica, opts ...PickOption) []Replica {
	node := b.node
	if node == "" {
		node = getOptions(opts).localNode
	}
	ordered := newRandomBalancer().Order(shard, replicas)
	if node == "" {
		return ordered
	}
	slices.SortStableFunc(ordered, func(a, b Replica) int {
		return rank(a.NodeID() == node) - rank(b.NodeID() == node)
	})
	return ordered
}
