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

package symbols

import (
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

// Ref is implemented by both static and dynamic column references.
type Ref interface {
	Symbol
	Info() metadata.ReferenceInfo
}

var (
	_ Ref = (*Reference)(nil)
	_ Ref = (*DynamicReference)(nil)
)

// Reference points to a column of the static schema.
type Reference struct {
	info metadata.ReferenceInfo
}

// NewReference wraps info.
func NewReference(info metadata.ReferenceInfo) *Reference {
	return &Reference{info: info}
}

// Info returns the schema entry.
func (r *Reference) Info() metadata.ReferenceInfo { return r.info }

// SymbolType implements Symbol.
func (r *Reference) SymbolType() SymbolType { return ReferenceSymbol }

// ValueType implements Symbol.
func (r *Reference) ValueType() sqltypes.DataType { return r.info.Type }

// Key implements Symbol.
func (r *Reference) Key() string { return "ref:" + r.info.Ident.String() }

func (r *Reference) String() string { return r.info.Ident.Column.FQN() }

// DynamicReference is a column that is not part of the schema yet. Its type
// starts undefined and is fixed by the first value assigned to it.
type DynamicReference struct {
	info metadata.ReferenceInfo
}

// NewDynamicReference returns an untyped reference at doc granularity.
func NewDynamicReference(ident metadata.ReferenceIdent, granularity metadata.RowGranularity) *DynamicReference {
	return &DynamicReference{info: metadata.ReferenceInfo{
		Ident:       ident,
		Granularity: granularity,
		Type:        sqltypes.Undefined,
		ObjectType:  metadata.Dynamic,
	}}
}

// Info returns the schema entry, with the type inferred so far.
func (r *DynamicReference) Info() metadata.ReferenceInfo { return r.info }

// SymbolType implements Symbol.
func (r *DynamicReference) SymbolType() SymbolType { return DynamicReferenceSymbol }

// ValueType implements Symbol.
func (r *DynamicReference) ValueType() sqltypes.DataType { return r.info.Type }

// SetValueType fixes the type. Once fixed, it can only be set to the same type again.
func (r *DynamicReference) SetValueType(typ sqltypes.DataType) error {
	if r.info.Type != sqltypes.Undefined && r.info.Type != typ {
		return vterrors.NewErrorf(codes.InvalidArgument, vterrors.WrongDynamicType,
			"dynamic column '%s' is already of type '%s', cannot set it to '%s'",
			r.info.Ident.Column.FQN(), r.info.Type.Name(), typ.Name())
	}
	r.info.Type = typ
	return nil
}

// SetObjectType sets the column policy used for children of an object value.
func (r *DynamicReference) SetObjectType(policy metadata.ColumnPolicy) {
	r.info.ObjectType = policy
}

// Key implements Symbol. The type is not part of the key: a column is the
// same reference before and after inference.
func (r *DynamicReference) Key() string { return "ref:" + r.info.Ident.String() }

func (r *DynamicReference) String() string { return r.info.Ident.Column.FQN() }
