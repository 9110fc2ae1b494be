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

package srvtopo

import (
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"

	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/balancer"
)

// ShardID names a shard of an index.
type ShardID struct {
	Index string
	Shard int
}

func (id ShardID) String() string {
	return fmt.Sprintf("[%s][%d]", id.Index, id.Shard)
}

// ShardIterator walks the copies of a shard in the order they should be
// tried.
type ShardIterator struct {
	id     ShardID
	copies []ShardRouting
	pos    int
}

// NewShardIterator iterates over copies in the given order.
func NewShardIterator(id ShardID, copies []ShardRouting) *ShardIterator {
	return &ShardIterator{id: id, copies: slices.Clone(copies)}
}

// ShardID returns the shard the iterator is for.
func (it *ShardIterator) ShardID() ShardID { return it.id }

// NextOrNil returns the next copy, nil once exhausted.
func (it *ShardIterator) NextOrNil() *ShardRouting {
	if it.pos >= len(it.copies) {
		return nil
	}
	sr := it.copies[it.pos]
	it.pos++
	return &sr
}

// Remaining is the number of copies NextOrNil will still return.
func (it *ShardIterator) Remaining() int { return len(it.copies) - it.pos }

// Reset rewinds the iterator.
func (it *ShardIterator) Reset() { it.pos = 0 }

// ShardForRouting maps a routing value to a shard of an index with
// numberOfShards shards.
func ShardForRouting(routing string, numberOfShards int) int {
	if numberOfShards <= 0 {
		return 0
	}
	return int(xxhash.Sum64String(routing) % uint64(numberOfShards))
}

// OperationRouting resolves the shards a read visits.
type OperationRouting struct {
	localNode string
}

// NewOperationRouting returns the routing of a process running on localNode.
func NewOperationRouting(localNode string) *OperationRouting {
	return &OperationRouting{localNode: localNode}
}

// ResolveSearchRouting maps each of the indices to the routing values a
// read has to use. It returns nil when there are no routing values, in
// which case every shard is read.
func (o *OperationRouting) ResolveSearchRouting(state *ClusterState, routingValues []string, indices []string) map[string][]string {
	if len(routingValues) == 0 {
		return nil
	}
	values := slices.Clone(routingValues)
	slices.Sort(values)
	values = slices.Compact(values)

	out := make(map[string][]string, len(indices))
	for _, index := range indices {
		if _, ok := state.Index(index); !ok {
			continue
		}
		out[index] = slices.Clone(values)
	}
	return out
}

// SearchShards returns one iterator per shard to read, ordered by index
// name and shard number. indices are the names the read was issued for and
// are only used for error reporting; concreteIndices are the indices
// actually read, each once however often it is named. When routing has an entry for an index, only the shards
// its values hash to are read.
//
// A concrete index that doesn't exist fails the whole call with an
// IndexMissingError.
func (o *OperationRouting) SearchShards(state *ClusterState, indices []string, concreteIndices []string, routing map[string][]string, preference string) ([]*ShardIterator, error) {
	pref := balancer.ParsePreference(preference)

	var iterators []*ShardIterator
	for _, index := range slices.Compact(slices.Sorted(slices.Values(concreteIndices))) {
		md, ok := state.Index(index)
		if !ok {
			return nil, vterrors.Wrapf(&IndexMissingError{Index: index}, "reading %v", indices)
		}
		for _, shard := range o.shards(md, routing[index]) {
			id := ShardID{Index: index, Shard: shard}
			copies := balancer.Order(pref, id.String(), state.ShardCopies(index, shard), balancer.WithLocalNode(o.localNode))
			iterators = append(iterators, NewShardIterator(id, copies))
		}
	}
	return iterators, nil
}

// shards returns the sorted shard numbers of md to read.
func (o *OperationRouting) shards(md *IndexMetadata, routingValues []string) []int {
	if len(routingValues) == 0 {
		shards := make([]int, md.NumberOfShards)
		for i := range shards {
			shards[i] = i
		}
		return shards
	}
	var shards []int
	for _, value := range routingValues {
		shards = append(shards, ShardForRouting(value, md.NumberOfShards))
	}
	slices.Sort(shards)
	return slices.Compact(shards)
}
