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
	"context"
	"time"

	"github.com/spf13/pflag"

	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/servenv"
)

var (
	// srvTopoCacheTTL and srvTopoCacheRefresh control the behavior of
	// the caching for the cluster state.
	srvTopoCacheTTL     = 1 * time.Second
	srvTopoCacheRefresh = 1 * time.Second
	srvTopoTimeout      = 5 * time.Second
)

// setTimings sets the cache timings; tests use it to avoid the flags.
func setTimings(ttl, refresh, timeout time.Duration) {
	srvTopoCacheTTL, srvTopoCacheRefresh, srvTopoTimeout = ttl, refresh, timeout
}

func registerFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&srvTopoCacheTTL, "srv-topo-cache-ttl", srvTopoCacheTTL, "how long to use cached cluster state entries")
	fs.DurationVar(&srvTopoCacheRefresh, "srv-topo-cache-refresh", srvTopoCacheRefresh, "how frequently to refresh the cluster state cache")
	fs.DurationVar(&srvTopoTimeout, "srv-topo-timeout", srvTopoTimeout, "cluster state server timeout")
}

func init() {
	servenv.OnParse(registerFlags)
}

const (
	queryCategory  = "query"
	cachedCategory = "cached"
	errorCategory  = "error"
)

// ResilientServer is an implementation of Server that caches the cluster
// state of an underlying Server. When the underlying server fails, the last
// known state is served for up to the cache TTL.
type ResilientServer struct {
	underlying Server
	counts     *stats.CountersWithSingleLabel

	cache *stateCache
}

// NewResilientServer creates a new ResilientServer based on the provided
// Server. counterPrefix names the exported counters.
func NewResilientServer(underlying Server, counterPrefix string) *ResilientServer {
	if srvTopoCacheRefresh > srvTopoCacheTTL {
		srvTopoCacheRefresh = srvTopoCacheTTL
	}

	counts := stats.NewCountersWithSingleLabel(counterPrefix+"Counts", "Resilient cluster state server operations", "Type")
	return &ResilientServer{
		underlying: underlying,
		counts:     counts,
		cache: &stateCache{
			fetch:   underlying.CurrentState,
			counts:  counts,
			ttl:     srvTopoCacheTTL,
			refresh: srvTopoCacheRefresh,
		},
	}
}

// CurrentState is part of the Server interface.
func (server *ResilientServer) CurrentState(ctx context.Context) (*ClusterState, error) {
	return server.cache.get(ctx)
}

// Counts returns the operation counters, by category.
func (server *ResilientServer) Counts() map[string]int64 {
	return server.counts.Counts()
}
