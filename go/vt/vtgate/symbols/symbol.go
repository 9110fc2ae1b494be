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

// Package symbols is the typed intermediate representation produced by
// analysis: literals, column references, function calls and the
// where-clause. Symbols are values; once built they are not mutated, with the
// single exception of a DynamicReference receiving its inferred type.
package symbols

import (
	"strings"

	"shardql.io/shardql/go/sqltypes"
)

// SymbolType tells the concrete kind of a Symbol without a type switch.
type SymbolType int

const (
	LiteralSymbol SymbolType = iota
	ReferenceSymbol
	DynamicReferenceSymbol
	FunctionSymbol
	AggregationSymbol
	InputColumnSymbol
	ParameterSymbol
)

var symbolTypeNames = []string{"Literal", "Reference", "DynamicReference", "Function", "Aggregation", "InputColumn", "Parameter"}

func (s SymbolType) String() string {
	if s < 0 || int(s) >= len(symbolTypeNames) {
		return "Unknown"
	}
	return symbolTypeNames[s]
}

// Symbol is a node of the analyzed statement.
type Symbol interface {
	SymbolType() SymbolType
	// ValueType is the type the symbol evaluates to.
	ValueType() sqltypes.DataType
	// Key is a canonical representation; two symbols with the same key are
	// structurally equal.
	Key() string
	String() string
}

// Normalizer folds constants and inlines functions. Implementations must be
// referentially transparent: the same input gives the same output.
type Normalizer interface {
	Normalize(Symbol) (Symbol, error)
}

// KeyOf joins the keys of symbols, used for argument lists.
func KeyOf(symbols []Symbol) string {
	var b strings.Builder
	for i, s := range symbols {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.Key())
	}
	return b.String()
}

// Walk calls fn for s and its arguments, depth first, until fn returns false.
func Walk(s Symbol, fn func(Symbol) bool) bool {
	if !fn(s) {
		return false
	}
	var args []Symbol
	switch s := s.(type) {
	case *Function:
		args = s.args
	case *Aggregation:
		args = s.inputs
	}
	for _, arg := range args {
		if !Walk(arg, fn) {
			return false
		}
	}
	return true
}
