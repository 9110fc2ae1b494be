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
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/vterrors"
)

// ShardState is the allocation state of a shard copy.
type ShardState int

const (
	Unassigned ShardState = iota
	Initializing
	Started
	Relocating
)

var shardStateNames = map[ShardState]string{
	Unassigned:   "UNASSIGNED",
	Initializing: "INITIALIZING",
	Started:      "STARTED",
	Relocating:   "RELOCATING",
}

func (s ShardState) String() string {
	if name, ok := shardStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ShardState(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s ShardState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ShardState) UnmarshalText(b []byte) error {
	for state, name := range shardStateNames {
		if name == string(b) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown shard state %q", b)
}

// ShardRouting is the placement of one copy of a shard.
type ShardRouting struct {
	Index   string     `json:"index"`
	Shard   int        `json:"shard"`
	Node    string     `json:"node,omitempty"`
	Primary bool       `json:"primary,omitempty"`
	State   ShardState `json:"state"`
}

// NodeID implements balancer.Replica.
func (r ShardRouting) NodeID() string { return r.Node }

// IsPrimary implements balancer.Replica.
func (r ShardRouting) IsPrimary() bool { return r.Primary }

// IsActive is true when the copy can serve reads. A relocating copy serves
// until the relocation completes.
func (r ShardRouting) IsActive() bool {
	return r.State == Started || r.State == Relocating
}

func (r ShardRouting) String() string {
	role := "R"
	if r.Primary {
		role = "P"
	}
	return fmt.Sprintf("[%s][%d], node[%s], [%s], s[%s]", r.Index, r.Shard, r.Node, role, r.State)
}

// Node is a member of the cluster.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ColumnMapping is the stored definition of a column. Object columns carry
// their children in Properties.
type ColumnMapping struct {
	Type string `json:"type"`
	// Dynamic is the column policy of an object column.
	Dynamic    string                   `json:"dynamic,omitempty"`
	Properties map[string]ColumnMapping `json:"properties,omitempty"`
}

// IndexDefinition is a fulltext index defined over other columns.
type IndexDefinition struct {
	Analyzer string   `json:"analyzer,omitempty"`
	Columns  []string `json:"columns"`
}

// PartitionColumn names a partition column and its type.
type PartitionColumn struct {
	Column string `json:"column"`
	Type   string `json:"type"`
}

// Meta is the table level metadata stored with the mapping.
type Meta struct {
	PrimaryKeys   []string                   `json:"primary_keys,omitempty"`
	Routing       string                     `json:"routing,omitempty"`
	PartitionedBy []PartitionColumn          `json:"partitioned_by,omitempty"`
	Indices       map[string]IndexDefinition `json:"indices,omitempty"`
}

// Mapping is the stored schema of an index.
type Mapping struct {
	Dynamic    string                   `json:"dynamic,omitempty"`
	Properties map[string]ColumnMapping `json:"properties,omitempty"`
	Meta       Meta                     `json:"_meta"`
}

// IndexMetadata describes an index or the template of a partitioned table.
type IndexMetadata struct {
	Name             string   `json:"-"`
	NumberOfShards   int      `json:"number_of_shards"`
	NumberOfReplicas string   `json:"number_of_replicas,omitempty"`
	Aliases          []string `json:"aliases,omitempty"`
	Mapping          Mapping  `json:"mapping"`
}

// ClusterState is an immutable snapshot of the cluster metadata and of the
// shard placement. Every change produces a new snapshot with a higher
// Version.
type ClusterState struct {
	Version int64                     `json:"version"`
	Nodes   map[string]Node           `json:"nodes"`
	Indices map[string]*IndexMetadata `json:"indices"`
	// Templates hold the metadata of partitioned tables, keyed by the
	// index name of the table. Partitions are regular indices.
	Templates map[string]*IndexMetadata `json:"templates,omitempty"`
	Shards    []ShardRouting            `json:"shards"`

	once       sync.Once
	indexNames []string
	routing    map[string]map[int][]ShardRouting
}

// LoadClusterState decodes and validates a JSON snapshot.
func LoadClusterState(r io.Reader) (*ClusterState, error) {
	state := &ClusterState{}
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return nil, vterrors.Wrap(err, "decoding cluster state")
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return state, nil
}

// Validate checks that every shard copy belongs to a known index and shard
// and that assigned copies sit on a known node.
func (s *ClusterState) Validate() error {
	for _, sr := range s.Shards {
		md, ok := s.Indices[sr.Index]
		if !ok {
			return vterrors.Errorf(codes.InvalidArgument, "shard %s: unknown index", sr)
		}
		if sr.Shard < 0 || sr.Shard >= md.NumberOfShards {
			return vterrors.Errorf(codes.InvalidArgument, "shard %s: index has %d shards", sr, md.NumberOfShards)
		}
		if sr.State == Unassigned {
			continue
		}
		if _, ok := s.Nodes[sr.Node]; !ok {
			return vterrors.Errorf(codes.InvalidArgument, "shard %s: unknown node", sr)
		}
	}
	return nil
}

func (s *ClusterState) init() {
	s.once.Do(func() {
		s.indexNames = make([]string, 0, len(s.Indices))
		for name, md := range s.Indices {
			md.Name = name
			s.indexNames = append(s.indexNames, name)
		}
		slices.Sort(s.indexNames)
		for name, md := range s.Templates {
			md.Name = name
		}

		s.routing = make(map[string]map[int][]ShardRouting)
		for _, sr := range s.Shards {
			shards, ok := s.routing[sr.Index]
			if !ok {
				shards = make(map[int][]ShardRouting)
				s.routing[sr.Index] = shards
			}
			shards[sr.Shard] = append(shards[sr.Shard], sr)
		}
	})
}

// Index returns the metadata of a concrete index.
func (s *ClusterState) Index(name string) (*IndexMetadata, bool) {
	s.init()
	md, ok := s.Indices[name]
	return md, ok
}

// Template returns the metadata of a partitioned table.
func (s *ClusterState) Template(name string) (*IndexMetadata, bool) {
	s.init()
	md, ok := s.Templates[name]
	return md, ok
}

// IndexNames returns the sorted names of all concrete indices.
func (s *ClusterState) IndexNames() []string {
	s.init()
	return slices.Clone(s.indexNames)
}

// AliasedIndices returns the sorted names of the indices carrying alias.
func (s *ClusterState) AliasedIndices(alias string) []string {
	s.init()
	var out []string
	for _, name := range s.indexNames {
		if slices.Contains(s.Indices[name].Aliases, alias) {
			out = append(out, name)
		}
	}
	return out
}

// ShardCopies returns the copies of one shard, primary first.
func (s *ClusterState) ShardCopies(index string, shard int) []ShardRouting {
	s.init()
	copies := slices.Clone(s.routing[index][shard])
	slices.SortStableFunc(copies, func(a, b ShardRouting) int {
		switch {
		case a.Primary == b.Primary:
			return 0
		case a.Primary:
			return -1
		}
		return 1
	})
	return copies
}
