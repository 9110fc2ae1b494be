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
	"fmt"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

// Function is a call of a scalar or aggregate function.
type Function struct {
	info metadata.FunctionInfo
	args []Symbol
}

// NewFunction copies args.
func NewFunction(info metadata.FunctionInfo, args ...Symbol) *Function {
	return &Function{info: info, args: append([]Symbol(nil), args...)}
}

// Info returns the resolved signature.
func (f *Function) Info() metadata.FunctionInfo { return f.info }

// Args returns a copy of the arguments.
func (f *Function) Args() []Symbol { return append([]Symbol(nil), f.args...) }

// NumArgs is len(Args()) without the copy.
func (f *Function) NumArgs() int { return len(f.args) }

// Arg returns the i-th argument.
func (f *Function) Arg(i int) Symbol { return f.args[i] }

// SymbolType implements Symbol.
func (f *Function) SymbolType() SymbolType { return FunctionSymbol }

// ValueType implements Symbol.
func (f *Function) ValueType() sqltypes.DataType { return f.info.ReturnType }

// Key implements Symbol. Equal keys mean the same function applied to the
// same arguments.
func (f *Function) Key() string {
	return "fn:" + f.info.Ident.Key() + "[" + KeyOf(f.args) + "]"
}

func (f *Function) String() string {
	return fmt.Sprintf("%s(%s)", f.info.Ident.Name, joinStrings(f.args))
}

func joinStrings(symbols []Symbol) string {
	s := ""
	for i, sym := range symbols {
		if i > 0 {
			s += ", "
		}
		s += sym.String()
	}
	return s
}

// AggregationStep is the state an aggregation consumes or produces.
type AggregationStep int

const (
	// Iter is raw rows.
	Iter AggregationStep = iota
	// Partial is an intermediate state that can be merged.
	Partial
	// Final is the result value.
	Final
)

func (s AggregationStep) String() string {
	switch s {
	case Iter:
		return "ITER"
	case Partial:
		return "PARTIAL"
	case Final:
		return "FINAL"
	}
	return fmt.Sprintf("AggregationStep(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s AggregationStep) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Aggregation is an aggregate function placed in a projection, moving its
// input from one step to another.
type Aggregation struct {
	info     metadata.FunctionInfo
	inputs   []Symbol
	fromStep AggregationStep
	toStep   AggregationStep
}

// NewAggregation builds an aggregation from fromStep to toStep.
func NewAggregation(info metadata.FunctionInfo, inputs []Symbol, fromStep, toStep AggregationStep) *Aggregation {
	return &Aggregation{info: info, inputs: append([]Symbol(nil), inputs...), fromStep: fromStep, toStep: toStep}
}

// Info returns the aggregate's signature.
func (a *Aggregation) Info() metadata.FunctionInfo { return a.info }

// Inputs returns a copy of the inputs.
func (a *Aggregation) Inputs() []Symbol { return append([]Symbol(nil), a.inputs...) }

// FromStep is the consumed state.
func (a *Aggregation) FromStep() AggregationStep { return a.fromStep }

// ToStep is the produced state.
func (a *Aggregation) ToStep() AggregationStep { return a.toStep }

// SymbolType implements Symbol.
func (a *Aggregation) SymbolType() SymbolType { return AggregationSymbol }

// ValueType implements Symbol. Partial states are opaque.
func (a *Aggregation) ValueType() sqltypes.DataType {
	if a.toStep == Final {
		return a.info.ReturnType
	}
	return sqltypes.Undefined
}

// Key implements Symbol.
func (a *Aggregation) Key() string {
	return fmt.Sprintf("agg:%s[%s]:%s>%s", a.info.Ident.Key(), KeyOf(a.inputs), a.fromStep, a.toStep)
}

func (a *Aggregation) String() string {
	return fmt.Sprintf("%s(%s) %s->%s", a.info.Ident.Name, joinStrings(a.inputs), a.fromStep, a.toStep)
}

// InputColumn refers to a column of the rows produced by the upstream node.
type InputColumn struct {
	Index int
	Type  sqltypes.DataType
}

// NewInputColumn returns the index-th upstream column.
func NewInputColumn(index int, typ sqltypes.DataType) *InputColumn {
	return &InputColumn{Index: index, Type: typ}
}

// SymbolType implements Symbol.
func (c *InputColumn) SymbolType() SymbolType { return InputColumnSymbol }

// ValueType implements Symbol.
func (c *InputColumn) ValueType() sqltypes.DataType { return c.Type }

// Key implements Symbol.
func (c *InputColumn) Key() string { return fmt.Sprintf("in:%d", c.Index) }

func (c *InputColumn) String() string { return fmt.Sprintf("INPUT(%d)", c.Index) }
