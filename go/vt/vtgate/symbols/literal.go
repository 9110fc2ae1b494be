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
	"encoding/json"
	"fmt"

	"shardql.io/shardql/go/sqltypes"
)

var (
	// NullLiteral is the untyped NULL.
	NullLiteral = &Literal{typ: sqltypes.Null}
	// TrueLiteral and FalseLiteral are the boolean constants.
	TrueLiteral  = &Literal{typ: sqltypes.Boolean, value: true}
	FalseLiteral = &Literal{typ: sqltypes.Boolean, value: false}
)

// Literal is a typed constant.
type Literal struct {
	typ   sqltypes.DataType
	value any
}

var _ Symbol = (*Literal)(nil)

// NewLiteral coerces value into typ and returns the literal.
func NewLiteral(typ sqltypes.DataType, value any) (*Literal, error) {
	if value == nil {
		if typ == sqltypes.Undefined {
			typ = sqltypes.Null
		}
		return &Literal{typ: typ}, nil
	}
	v, err := sqltypes.Convert(value, typ)
	if err != nil {
		return nil, err
	}
	return &Literal{typ: typ, value: v}, nil
}

// LiteralForValue infers the type of value.
func LiteralForValue(value any) (*Literal, error) {
	typ, err := sqltypes.ForValue(value, false)
	if err != nil {
		return nil, err
	}
	if typ == sqltypes.Null {
		return NullLiteral, nil
	}
	return NewLiteral(typ, value)
}

// MustLiteral is LiteralForValue for values known to be valid. It panics otherwise.
func MustLiteral(value any) *Literal {
	l, err := LiteralForValue(value)
	if err != nil {
		panic(err)
	}
	return l
}

// SymbolType implements Symbol.
func (l *Literal) SymbolType() SymbolType { return LiteralSymbol }

// ValueType implements Symbol.
func (l *Literal) ValueType() sqltypes.DataType { return l.typ }

// Value returns the Go value. Object values are copied.
func (l *Literal) Value() any {
	if m, ok := l.value.(map[string]any); ok {
		return sqltypes.CopyObject(m)
	}
	return l.value
}

// IsNull is true when the value is NULL, whatever the type.
func (l *Literal) IsNull() bool { return l.value == nil }

// ObjectValue returns the value of an object literal.
func (l *Literal) ObjectValue() (map[string]any, bool) {
	m, ok := l.value.(map[string]any)
	if !ok {
		return nil, false
	}
	return sqltypes.CopyObject(m), true
}

// ConvertTo returns a literal of type typ holding the same value.
func (l *Literal) ConvertTo(typ sqltypes.DataType) (*Literal, error) {
	if typ == l.typ {
		return l, nil
	}
	return NewLiteral(typ, l.value)
}

// Key implements Symbol.
func (l *Literal) Key() string {
	return "lit:" + l.typ.Name() + ":" + l.valueString()
}

func (l *Literal) valueString() string {
	switch v := l.value.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", v)
	case map[string]any:
		// encoding/json sorts map keys
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
	return fmt.Sprintf("%v", l.value)
}

func (l *Literal) String() string {
	return l.valueString()
}

// Parameter is a positional statement parameter ($1, ?) with its bound value.
type Parameter struct {
	Index int
	value any
}

// NewParameter binds value to the parameter at index.
func NewParameter(index int, value any) *Parameter {
	return &Parameter{Index: index, value: value}
}

// SymbolType implements Symbol.
func (p *Parameter) SymbolType() SymbolType { return ParameterSymbol }

// ValueType implements Symbol.
func (p *Parameter) ValueType() sqltypes.DataType {
	typ, err := sqltypes.ForValue(p.value, false)
	if err != nil {
		return sqltypes.Undefined
	}
	return typ
}

// Value is the bound value.
func (p *Parameter) Value() any { return p.value }

// Key implements Symbol.
func (p *Parameter) Key() string { return fmt.Sprintf("param:%d", p.Index) }

func (p *Parameter) String() string { return fmt.Sprintf("$%d", p.Index+1) }
