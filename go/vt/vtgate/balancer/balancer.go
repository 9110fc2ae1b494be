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

/*
Package balancer decides in which order the copies of a shard are tried.

Every shard has one primary and zero or more replicas, placed on different
nodes. A read may be served by any active copy; the preference string of a
request selects which:

	""                 random order
	_local             copies on the local node first
	_primary           the primary only
	_primary_first     the primary, then the replicas
	_replica           replicas only
	_replica_first     replicas, then the primary
	_only_node:<id>    copies on node <id> only
	_prefer_node:<id>  copies on node <id> first
	anything else      a session key: the same key picks the same copy

Inactive copies are always ordered last, so a caller looking at the first
copy only sees an inactive one when no active copy is left.
*/
package balancer

import (
	"slices"
	"strings"
)

// Replica is a copy of a shard.
type Replica interface {
	NodeID() string
	IsPrimary() bool
	IsActive() bool
}

// Mode is the kind of a Preference.
type Mode int

const (
	ModeRandom Mode = iota
	ModeLocal
	ModePrimary
	ModePrimaryFirst
	ModeReplica
	ModeReplicaFirst
	ModeOnlyNode
	ModePreferNode
	ModeSession
)

// Preference is a parsed preference string.
type Preference struct {
	Mode Mode
	// Node is set for ModeOnlyNode and ModePreferNode.
	Node string
	// Session is set for ModeSession.
	Session string
}

const (
	onlyNodePrefix   = "_only_node:"
	preferNodePrefix = "_prefer_node:"
)

// ParsePreference never fails: unknown strings are session keys.
func ParsePreference(s string) Preference {
	switch {
	case s == "":
		return Preference{Mode: ModeRandom}
	case s == "_local":
		return Preference{Mode: ModeLocal}
	case s == "_primary":
		return Preference{Mode: ModePrimary}
	case s == "_primary_first":
		return Preference{Mode: ModePrimaryFirst}
	case s == "_replica":
		return Preference{Mode: ModeReplica}
	case s == "_replica_first":
		return Preference{Mode: ModeReplicaFirst}
	case strings.HasPrefix(s, onlyNodePrefix):
		return Preference{Mode: ModeOnlyNode, Node: strings.TrimPrefix(s, onlyNodePrefix)}
	case strings.HasPrefix(s, preferNodePrefix):
		return Preference{Mode: ModePreferNode, Node: strings.TrimPrefix(s, preferNodePrefix)}
	}
	return Preference{Mode: ModeSession, Session: s}
}

func (p Preference) String() string {
	switch p.Mode {
	case ModeLocal:
		return "_local"
	case ModePrimary:
		return "_primary"
	case ModePrimaryFirst:
		return "_primary_first"
	case ModeReplica:
		return "_replica"
	case ModeReplicaFirst:
		return "_replica_first"
	case ModeOnlyNode:
		return onlyNodePrefix + p.Node
	case ModePreferNode:
		return preferNodePrefix + p.Node
	case ModeSession:
		return p.Session
	}
	return ""
}

// ReplicaBalancer orders the copies of a shard.
type ReplicaBalancer interface {
	// Order returns a new slice; replicas is not modified.
	Order(shard string, replicas []Replica, opts ...PickOption) []Replica
}

// New returns the balancer for pref.
func New(pref Preference) ReplicaBalancer {
	switch pref.Mode {
	case ModeSession:
		return &sessionBalancer{session: pref.Session}
	case ModeLocal:
		return &nodeBalancer{}
	case ModePreferNode, ModeOnlyNode:
		return &nodeBalancer{node: pref.Node}
	}
	return newRandomBalancer()
}

// Order applies pref to the copies of shard: it filters them, lets the
// balancer of pref order them and moves the inactive ones last.
func Order[R Replica](pref Preference, shard string, replicas []R, opts ...PickOption) []R {
	candidates := make([]Replica, 0, len(replicas))
	for _, r := range replicas {
		switch {
		case pref.Mode == ModePrimary && !r.IsPrimary():
			continue
		case pref.Mode == ModeReplica && r.IsPrimary():
			continue
		case pref.Mode == ModeOnlyNode && r.NodeID() != pref.Node:
			continue
		}
		candidates = append(candidates, r)
	}

	ordered := New(pref).Order(shard, candidates, opts...)
	switch pref.Mode {
	case ModePrimaryFirst:
		slices.SortStableFunc(ordered, func(a, b Replica) int { return rank(a.IsPrimary()) - rank(b.IsPrimary()) })
	case ModeReplicaFirst:
		slices.SortStableFunc(ordered, func(a, b Replica) int { return rank(!a.IsPrimary()) - rank(!b.IsPrimary()) })
	}
	slices.SortStableFunc(ordered, func(a, b Replica) int { return rank(a.IsActive()) - rank(b.IsActive()) })

	result := make([]R, len(ordered))
	for i, r := range ordered {
		result[i] = r.(R)
	}
	return result
}

// rank sorts true before false.
func rank(b bool) int {
	if b {
		return 0
	}
	return 1
}
