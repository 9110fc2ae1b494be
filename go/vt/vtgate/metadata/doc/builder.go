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
	"maps"
	"slices"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/srvtopo"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/metadata/table"
)

// System columns present in every doc table.
var (
	IDColumn      = metadata.NewColumnIdent("_id")
	VersionColumn = metadata.NewColumnIdent("_version")
	ScoreColumn   = metadata.NewColumnIdent("_score")
)

var systemColumns = []struct {
	column metadata.ColumnIdent
	typ    sqltypes.DataType
}{
	{IDColumn, sqltypes.String},
	{VersionColumn, sqltypes.Long},
	{ScoreColumn, sqltypes.Float},
}

// Builder builds a DocTableInfo from a cluster state.
type Builder struct {
	ident   metadata.TableIdent
	state   *srvtopo.ClusterState
	server  srvtopo.Server
	routing *srvtopo.OperationRouting

	md              *srvtopo.IndexMetadata
	concreteIndices []string
	isAlias         bool
	partitioned     bool
}

// NewBuilder returns a builder for ident. server and routing are used by the
// built table to resolve its routing.
func NewBuilder(ident metadata.TableIdent, state *srvtopo.ClusterState, server srvtopo.Server, routing *srvtopo.OperationRouting) *Builder {
	return &Builder{ident: ident, state: state, server: server, routing: routing}
}

// Build fails with an UnknownTable error when neither an index, a
// partitioned table template nor an alias carries the table's name.
func (b *Builder) Build() (*DocTableInfo, error) {
	if err := b.resolveIndices(); err != nil {
		return nil, err
	}

	t := &DocTableInfo{
		ident:            b.ident,
		indexColumns:     make(map[metadata.ColumnIdent]metadata.IndexReferenceInfo),
		references:       make(map[metadata.ColumnIdent]metadata.ReferenceInfo),
		isAlias:          b.isAlias,
		concreteIndices:  b.concreteIndices,
		numberOfShards:   b.md.NumberOfShards,
		numberOfReplicas: b.md.NumberOfReplicas,
		stateVersion:     b.state.Version,
		server:           b.server,
		routing:          b.routing,
	}
	mapping := b.md.Mapping

	policy, err := metadata.ParseColumnPolicy(mapping.Dynamic)
	if err != nil {
		return nil, vterrors.Wrapf(err, "table %s", b.ident)
	}
	t.columnPolicy = policy

	for _, sc := range systemColumns {
		t.references[sc.column] = metadata.NewReferenceInfo(metadata.ReferenceIdent{Table: b.ident, Column: sc.column}, sc.typ)
	}

	partitionColumns := make(map[metadata.ColumnIdent]bool)
	for _, pc := range mapping.Meta.PartitionedBy {
		partitionColumns[metadata.ColumnIdentFromFQN(pc.Column)] = true
	}
	for _, name := range slices.Sorted(maps.Keys(mapping.Properties)) {
		info, err := b.addColumn(t, metadata.NewColumnIdent(name), mapping.Properties[name], partitionColumns)
		if err != nil {
			return nil, err
		}
		t.columns = append(t.columns, info)
	}

	for _, pc := range mapping.Meta.PartitionedBy {
		column := metadata.ColumnIdentFromFQN(pc.Column)
		info, ok := t.references[column]
		if !ok {
			typ, known := sqltypes.TypeByName(pc.Type)
			if !known {
				return nil, vterrors.Errorf(codes.InvalidArgument, "table %s: partition column %s has unknown type %q", b.ident, pc.Column, pc.Type)
			}
			info = metadata.ReferenceInfo{
				Ident:       metadata.ReferenceIdent{Table: b.ident, Column: column},
				Granularity: metadata.Partition,
				Type:        typ,
			}
			t.references[column] = info
		}
		t.partitionedBy = append(t.partitionedBy, column)
		t.partitionedByColumns = append(t.partitionedByColumns, info)
	}

	for _, name := range slices.Sorted(maps.Keys(mapping.Meta.Indices)) {
		def := mapping.Meta.Indices[name]
		column := metadata.NewColumnIdent(name)
		idx := metadata.IndexReferenceInfo{
			ReferenceInfo: metadata.NewReferenceInfo(metadata.ReferenceIdent{Table: b.ident, Column: column}, sqltypes.String),
			Analyzer:      def.Analyzer,
		}
		for _, source := range def.Columns {
			info, ok := t.references[metadata.ColumnIdentFromFQN(source)]
			if !ok {
				return nil, vterrors.Errorf(codes.InvalidArgument, "table %s: index %s is defined over unknown column %s", b.ident, name, source)
			}
			idx.Columns = append(idx.Columns, info)
		}
		t.indexColumns[column] = idx
	}

	for _, pk := range mapping.Meta.PrimaryKeys {
		column := metadata.ColumnIdentFromFQN(pk)
		if _, ok := t.references[column]; !ok {
			return nil, vterrors.Errorf(codes.InvalidArgument, "table %s: primary key column %s is not defined", b.ident, pk)
		}
		t.primaryKeys = append(t.primaryKeys, column)
	}
	if len(t.primaryKeys) == 0 {
		t.primaryKeys = []metadata.ColumnIdent{IDColumn}
		t.hasAutoGeneratedPrimaryKey = true
	}

	switch {
	case mapping.Meta.Routing != "":
		t.clusteredBy = metadata.ColumnIdentFromFQN(mapping.Meta.Routing)
		if _, ok := t.references[t.clusteredBy]; !ok {
			return nil, vterrors.Errorf(codes.InvalidArgument, "table %s: clustered by unknown column %s", b.ident, mapping.Meta.Routing)
		}
	case len(t.primaryKeys) == 1:
		t.clusteredBy = t.primaryKeys[0]
	}

	if b.partitioned {
		for _, index := range b.concreteIndices {
			p, err := metadata.ParsePartitionName(b.ident, index)
			if err != nil {
				return nil, vterrors.Wrapf(err, "table %s", b.ident)
			}
			t.partitions = append(t.partitions, p)
		}
	}
	return t, nil
}

// resolveIndices finds the metadata and the concrete indices of the table.
func (b *Builder) resolveIndices() error {
	name := b.ident.IndexName()
	if md, ok := b.state.Index(name); ok {
		b.md = md
		b.concreteIndices = []string{name}
		return nil
	}
	if md, ok := b.state.Template(name); ok {
		b.md = md
		b.partitioned = true
		for _, index := range b.state.IndexNames() {
			if metadata.IsPartitionOf(b.ident, index) {
				b.concreteIndices = append(b.concreteIndices, index)
			}
		}
		return nil
	}
	if indices := b.state.AliasedIndices(name); len(indices) > 0 {
		b.md, _ = b.state.Index(indices[0])
		b.concreteIndices = indices
		b.isAlias = true
		return nil
	}
	return table.UnknownTable(b.ident)
}

// addColumn registers column and, for objects, its children.
func (b *Builder) addColumn(t *DocTableInfo, column metadata.ColumnIdent, m srvtopo.ColumnMapping, partitionColumns map[metadata.ColumnIdent]bool) (metadata.ReferenceInfo, error) {
	typ, ok := sqltypes.TypeByName(m.Type)
	if !ok {
		return metadata.ReferenceInfo{}, vterrors.Errorf(codes.InvalidArgument, "table %s: column %s has unknown type %q", b.ident, column.FQN(), m.Type)
	}
	info := metadata.NewReferenceInfo(metadata.ReferenceIdent{Table: b.ident, Column: column}, typ)
	if partitionColumns[column] {
		info.Granularity = metadata.Partition
	}
	if typ == sqltypes.Object {
		policy, err := metadata.ParseColumnPolicy(m.Dynamic)
		if err != nil {
			return metadata.ReferenceInfo{}, vterrors.Wrapf(err, "table %s: column %s", b.ident, column.FQN())
		}
		info.ObjectType = policy
		for _, child := range slices.Sorted(maps.Keys(m.Properties)) {
			if _, err := b.addColumn(t, metadata.GetChild(column, child), m.Properties[child], partitionColumns); err != nil {
				return metadata.ReferenceInfo{}, err
			}
		}
	}
	t.references[column] = info
	return info, nil
}
