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

// Package srvtopotest provides a cluster state fixture for tests.
//
// The fixture has three nodes (n1, n2, n3) and these tables:
//
//	users     3 shards, 1 replica, dynamic, clustered by id
//	accounts  2 shards, strict, shard 1 relocating
//	logs      1 shard, ignored column policy
//	broken    2 shards, shard 1 has no active copy
//	events    partitioned by day, two partitions
//	metrics   partitioned by ts, no partitions yet
package srvtopotest

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/stretchr/testify/require"

	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/srvtopo/memorysrvtopo"
)

//go:embed cluster_state.json
var fixture []byte

// Fixture returns the raw JSON of the fixture.
func Fixture() []byte {
	return bytes.Clone(fixture)
}

// ClusterState decodes a fresh copy of the fixture.
func ClusterState(t testing.TB) *srvtopo.ClusterState {
	t.Helper()
	state, err := srvtopo.LoadClusterState(bytes.NewReader(fixture))
	require.NoError(t, err)
	return state
}

// NewServer serves a fresh copy of the fixture.
func NewServer(t testing.TB) *memorysrvtopo.Server {
	t.Helper()
	return memorysrvtopo.NewServer(ClusterState(t))
}
