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

// Package doc implements the tables of the doc schema: user tables backed
// by one index, by an alias over several indices or, for partitioned
// tables, by one index per partition.
package doc

import (
	"context"
	"slices"
	"time"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/stats"
	"shardql.io/shardql/go/vt/log"
	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

var (
	routingResolutions = stats.NewCountersWithSingleLabel(
		"RoutingResolutions",
		"Number of routing resolutions, by outcome",
		"Outcome",
		outcomeOK, outcomeIndexMissing, outcomeUnavailable, outcomeError)
	routingTimings = stats.NewTimings(
		"RoutingResolutionTimings",
		"Time spent resolving the routing of a table",
		"Table")
)

const (
	outcomeOK           = "ok"
	outcomeIndexMissing = "index_missing"
	outcomeUnavailable  = "unavailable"
	outcomeError        = "error"
)

// DocTableInfo is the schema of a doc table as found in one cluster state.
type DocTableInfo struct {
	ident                      metadata.TableIdent
	columns                    []metadata.ReferenceInfo
	partitionedByColumns       []metadata.ReferenceInfo
	indexColumns               map[metadata.ColumnIdent]metadata.IndexReferenceInfo
	references                 map[metadata.ColumnIdent]metadata.ReferenceInfo
	primaryKeys                []metadata.ColumnIdent
	clusteredBy                metadata.ColumnIdent
	isAlias                    bool
	hasAutoGeneratedPrimaryKey bool
	concreteIndices            []string
	numberOfShards             int
	numberOfReplicas           string
	partitionedBy              []metadata.ColumnIdent
	partitions                 []metadata.PartitionName
	columnPolicy               metadata.ColumnPolicy
	stateVersion               int64

	server  srvtopo.Server
	routing *srvtopo.OperationRouting
}

var _ table.TableInfo = (*DocTableInfo)(nil)

// Ident implements table.TableInfo.
func (t *DocTableInfo) Ident() metadata.TableIdent { return t.ident }

// RowGranularity implements table.TableInfo. Doc tables hold documents.
func (t *DocTableInfo) RowGranularity() metadata.RowGranularity { return metadata.Doc }

// GetReferenceInfo implements table.TableInfo.
func (t *DocTableInfo) GetReferenceInfo(column metadata.ColumnIdent) (metadata.ReferenceInfo, bool) {
	info, ok := t.references[column]
	return info, ok
}

// Columns implements table.TableInfo.
func (t *DocTableInfo) Columns() []metadata.ReferenceInfo { return slices.Clone(t.columns) }

// ColumnPolicy implements table.TableInfo.
func (t *DocTableInfo) ColumnPolicy() metadata.ColumnPolicy { return t.columnPolicy }

// PrimaryKey implements table.TableInfo. Tables created without a primary
// key use the generated _id column.
func (t *DocTableInfo) PrimaryKey() []metadata.ColumnIdent { return slices.Clone(t.primaryKeys) }

// HasAutoGeneratedPrimaryKey is true when PrimaryKey is _id.
func (t *DocTableInfo) HasAutoGeneratedPrimaryKey() bool { return t.hasAutoGeneratedPrimaryKey }

// ClusteredBy implements table.TableInfo.
func (t *DocTableInfo) ClusteredBy() (metadata.ColumnIdent, bool) {
	return t.clusteredBy, !t.clusteredBy.IsEmpty()
}

// IsAlias is true for tables backed by an alias over several indices.
func (t *DocTableInfo) IsAlias() bool { return t.isAlias }

// ConcreteIndices returns the names of the backing indices.
func (t *DocTableInfo) ConcreteIndices() []string { return slices.Clone(t.concreteIndices) }

// NumberOfShards is the number of shards per backing index.
func (t *DocTableInfo) NumberOfShards() int { return t.numberOfShards }

// NumberOfReplicas is the replica setting, e.g. "1" or "0-all".
func (t *DocTableInfo) NumberOfReplicas() string { return t.numberOfReplicas }

// IsPartitioned implements table.TableInfo.
func (t *DocTableInfo) IsPartitioned() bool { return len(t.partitionedByColumns) > 0 }

// PartitionedBy implements table.TableInfo. The order is the declaration order.
func (t *DocTableInfo) PartitionedBy() []metadata.ColumnIdent { return slices.Clone(t.partitionedBy) }

// PartitionedByColumns returns the partition columns, in declaration order.
func (t *DocTableInfo) PartitionedByColumns() []metadata.ReferenceInfo {
	return slices.Clone(t.partitionedByColumns)
}

// Partitions implements table.TableInfo.
func (t *DocTableInfo) Partitions() []metadata.PartitionName { return slices.Clone(t.partitions) }

// IndexColumn returns a fulltext index column.
func (t *DocTableInfo) IndexColumn(column metadata.ColumnIdent) (metadata.IndexReferenceInfo, bool) {
	info, ok := t.indexColumns[column]
	return info, ok
}

// StateVersion is the version of the cluster state the table was built from.
func (t *DocTableInfo) StateVersion() int64 { return t.stateVersion }

// GetRouting implements table.TableInfo.
//
// The shards to read are those of the partitions selected by where, or of
// all backing indices. A clustered-by value in where restricts them to the
// one shard that value hashes to. For every shard the first copy in
// preference order is read; if it isn't active the shard is unavailable and
// the call fails. Indices removed since the table was built make the table
// empty rather than failing.
func (t *DocTableInfo) GetRouting(ctx context.Context, where *symbols.WhereClause, preference string) (*metadata.Routing, error) {
	defer routingTimings.Record(t.ident.FQN(), time.Now())

	state, err := t.server.CurrentState(ctx)
	if err != nil {
		routingResolutions.Add(outcomeError, 1)
		return nil, vterrors.Wrapf(err, "resolving routing of %s", t.ident)
	}

	routingIndices := t.concreteIndices
	if partitions := where.Partitions(); len(partitions) > 0 {
		routingIndices = partitions
	}

	var routingMap map[string][]string
	if value, ok := where.ClusteredBy(); ok && !value.IsNull() {
		routingValue, err := sqltypes.Convert(value.Value(), sqltypes.String)
		if err != nil {
			routingResolutions.Add(outcomeError, 1)
			return nil, vterrors.Wrapf(err, "routing value of %s", t.ident)
		}
		routingMap = t.routing.ResolveSearchRouting(state, []string{routingValue.(string)}, routingIndices)
	}

	iterators, err := t.routing.SearchShards(state, []string{t.ident.IndexName()}, routingIndices, routingMap, preference)
	if err != nil {
		if srvtopo.IsIndexMissing(err) {
			routingResolutions.Add(outcomeIndexMissing, 1)
			log.V(2).Infof("table %s: %v, routing is empty", t.ident, err)
			return metadata.EmptyRouting(), nil
		}
		routingResolutions.Add(outcomeError, 1)
		return nil, err
	}

	locations := make(metadata.Locations)
	seen := make(map[srvtopo.ShardID]bool, len(iterators))
	for _, it := range iterators {
		if seen[it.ShardID()] {
			continue
		}
		seen[it.ShardID()] = true
		shard := it.NextOrNil()
		if shard == nil || !shard.IsActive() {
			routingResolutions.Add(outcomeUnavailable, 1)
			log.Warningf("table %s: no active copy of shard %s", t.ident, it.ShardID())
			return nil, vterrors.NewErrorf(codes.Unavailable, vterrors.UnavailableShards,
				"shard %s of table %s has no active copy", it.ShardID(), t.ident)
		}
		indices, ok := locations[shard.Node]
		if !ok {
			indices = make(map[string][]int)
			locations[shard.Node] = indices
		}
		indices[shard.Index] = append(indices[shard.Index], shard.Shard)
	}
	routingResolutions.Add(outcomeOK, 1)
	return metadata.NewRouting(locations), nil
}
