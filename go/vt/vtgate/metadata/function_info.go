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

package metadata

import (
	"strings"

	"shardql.io/shardql/go/sqltypes"
)

// FunctionIdent identifies a function implementation by name and argument types.
type FunctionIdent struct {
	Name     string
	ArgTypes []sqltypes.DataType
}

// NewFunctionIdent is a shorthand constructor.
func NewFunctionIdent(name string, argTypes ...sqltypes.DataType) FunctionIdent {
	return FunctionIdent{Name: name, ArgTypes: argTypes}
}

// Key is the canonical registry key, e.g. "sum(integer)".
func (f FunctionIdent) Key() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, t := range f.ArgTypes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Name())
	}
	b.WriteByte(')')
	return b.String()
}

func (f FunctionIdent) String() string { return f.Key() }

// FunctionType tells scalars from aggregates.
type FunctionType int

const (
	ScalarFunction FunctionType = iota
	AggregateFunction
)

// FunctionInfo is the resolved signature of a function.
type FunctionInfo struct {
	Ident      FunctionIdent
	ReturnType sqltypes.DataType
	Type       FunctionType
	// Deterministic functions with literal arguments can be folded at plan time.
	Deterministic bool
}

// IsAggregate is true for aggregate functions.
func (f FunctionInfo) IsAggregate() bool {
	return f.Type == AggregateFunction
}
