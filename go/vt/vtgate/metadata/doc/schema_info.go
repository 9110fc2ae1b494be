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

package doc

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
)

var tableBuilds = stats.NewCountersWithSingleLabel(
	"DocTableBuilds",
	"Number of doc table definitions built or served from cache",
	"Result",
	"built", "cached", "failed")

// DocSchemaInfo resolves the tables of the doc schema. Built tables are
// cached per cluster state version: a new version rebuilds a table the
// first time it is asked for. It is safe for concurrent use.
type DocSchemaInfo struct {
	server  srvtopo.Server
	routing *srvtopo.OperationRouting

	tables      *cache.Cache
	group       singleflight.Group
	lastVersion atomic.Int64
}

var _ table.SchemaInfo = (*DocSchemaInfo)(nil)

// NewDocSchemaInfo caches built tables for ttl.
func NewDocSchemaInfo(server srvtopo.Server, routing *srvtopo.OperationRouting, ttl time.Duration) *DocSchemaInfo {
	return &DocSchemaInfo{
		server:  server,
		routing: routing,
		tables:  cache.New(ttl, ttl),
	}
}

// GetTableInfo implements table.SchemaInfo.
func (s *DocSchemaInfo) GetTableInfo(ctx context.Context, ident metadata.TableIdent) (table.TableInfo, error) {
	t, err := s.GetDocTableInfo(ctx, ident)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetDocTableInfo is GetTableInfo returning the concrete type.
func (s *DocSchemaInfo) GetDocTableInfo(ctx context.Context, ident metadata.TableIdent) (*DocTableInfo, error) {
	state, err := s.server.CurrentState(ctx)
	if err != nil {
		return nil, vterrors.Wrapf(err, "loading table %s", ident)
	}
	s.observeVersion(state.Version)

	key := cacheKey(ident, state.Version)
	if t, ok := s.tables.Get(key); ok {
		tableBuilds.Add("cached", 1)
		return t.(*DocTableInfo), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if t, ok := s.tables.Get(key); ok {
			return t, nil
		}
		t, err := NewBuilder(ident, state, s.server, s.routing).Build()
		if err != nil {
			tableBuilds.Add("failed", 1)
			return nil, err
		}
		tableBuilds.Add("built", 1)
		log.V(1).Infof("built table %s from cluster state version %d", ident, state.Version)
		s.tables.SetDefault(key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*DocTableInfo), nil
}

// observeVersion drops the tables of older cluster states once a newer
// one shows up.
func (s *DocSchemaInfo) observeVersion(version int64) {
	for {
		last := s.lastVersion.Load()
		if version <= last {
			return
		}
		if s.lastVersion.CompareAndSwap(last, version) {
			break
		}
	}
	suffix := fmt.Sprintf("@%d", version)
	for key := range s.tables.Items() {
		if !strings.HasSuffix(key, suffix) {
			s.tables.Delete(key)
		}
	}
}

// TableNames returns the names of the tables in the current cluster
// state, sorted. Partitions are not tables; their table is.
func (s *DocSchemaInfo) TableNames(ctx context.Context) ([]string, error) {
	state, err := s.server.CurrentState(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, index := range state.IndexNames() {
		if strings.HasPrefix(index, metadata.PartitionPrefix) {
			continue
		}
		names = append(names, index)
	}
	for name := range state.Templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

// CachedTables is the number of built tables in the cache.
func (s *DocSchemaInfo) CachedTables() int {
	return s.tables.ItemCount()
}

func cacheKey(ident metadata.TableIdent, version int64) string {
	return fmt.Sprintf("%s@%d", ident.FQN(), version)
}
