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

package table

import (
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// GetDynamic returns a reference for a column that is not part of the
// static schema of t. The policy that applies is the one of the closest
// known parent object, or the table's for top level columns:
//
//	dynamic  an untyped reference, typed by the first value bound to it
//	ignored  an untyped reference whose object children are not validated
//	strict   an unknown column error
func GetDynamic(t TableInfo, column metadata.ColumnIdent) (*symbols.DynamicReference, error) {
	policy := t.ColumnPolicy()
	granularity := t.RowGranularity()
	for parent, ok := column.Parent(); ok; parent, ok = parent.Parent() {
		if info, found := t.GetReferenceInfo(parent); found {
			policy = info.ObjectType
			granularity = info.Granularity
			break
		}
	}

	if policy == metadata.Strict {
		return nil, UnknownColumn(t.Ident(), column)
	}
	ref := symbols.NewDynamicReference(metadata.ReferenceIdent{Table: t.Ident(), Column: column}, granularity)
	if policy == metadata.Ignored {
		ref.SetObjectType(metadata.Ignored)
	}
	return ref, nil
}
