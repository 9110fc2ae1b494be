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

/*
Package evalengine holds the function implementations known to the planner
and the EvaluatingNormalizer, which folds constant expressions at plan time.

Functions are looked up by their FunctionIdent: a name plus the types of the
arguments. Most builtins accept several argument types and are registered
as a Resolver, which builds the implementation for the concrete types on
lookup.
*/
package evalengine

import (
	"sync"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

// FunctionImplementation is a function the planner knows about.
type FunctionImplementation interface {
	Info() metadata.FunctionInfo
}

// Scalar is a function evaluated once per row.
type Scalar interface {
	FunctionImplementation
	// Evaluate computes the result from the argument values.
	Evaluate(args ...any) (any, error)
}

// Aggregate is a function evaluated over a group of rows.
type Aggregate interface {
	FunctionImplementation
	NewState() AggregationState
}

// AggregationState accumulates the values of one group. Partial states of
// different shards are combined with Merge.
type AggregationState interface {
	// Add consumes the arguments of one row.
	Add(args ...any) error
	// Merge consumes another partial state of the same function.
	Merge(other AggregationState) error
	// Value returns the final result.
	Value() any
}

// Resolver builds the implementation of a function for argTypes. It returns
// false when the function doesn't accept those types.
type Resolver func(argTypes []sqltypes.DataType) (FunctionImplementation, bool)

// Functions is the function registry. It is safe for concurrent use.
type Functions struct {
	mu        sync.RWMutex
	impls     map[string]FunctionImplementation
	resolvers map[string]Resolver
}

// NewFunctions returns a registry holding the builtins.
func NewFunctions() *Functions {
	f := &Functions{
		impls:     make(map[string]FunctionImplementation),
		resolvers: make(map[string]Resolver),
	}
	registerOperators(f)
	registerArithmetic(f)
	registerStringFunctions(f)
	registerAggregates(f)
	return f
}

// Register adds an implementation for its exact ident.
func (f *Functions) Register(impl FunctionImplementation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impls[impl.Info().Ident.Key()] = impl
}

// RegisterResolver adds a resolver for every function called name.
func (f *Functions) RegisterResolver(name string, resolver Resolver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolvers[name] = resolver
}

// Get returns the implementation for ident. Exact registrations win over
// resolvers.
func (f *Functions) Get(ident metadata.FunctionIdent) (FunctionImplementation, bool) {
	f.mu.RLock()
	impl, ok := f.impls[ident.Key()]
	resolver, hasResolver := f.resolvers[ident.Name]
	f.mu.RUnlock()
	if ok {
		return impl, true
	}
	if !hasResolver {
		return nil, false
	}
	return resolver(ident.ArgTypes)
}

// scalarFunc adapts a plain function to Scalar.
type scalarFunc struct {
	info metadata.FunctionInfo
	eval func(args ...any) (any, error)
}

func (s *scalarFunc) Info() metadata.FunctionInfo { return s.info }

func (s *scalarFunc) Evaluate(args ...any) (any, error) { return s.eval(args...) }

func newScalar(name string, argTypes []sqltypes.DataType, returnType sqltypes.DataType, eval func(args ...any) (any, error)) *scalarFunc {
	return &scalarFunc{
		info: metadata.FunctionInfo{
			Ident:         metadata.NewFunctionIdent(name, argTypes...),
			ReturnType:    returnType,
			Type:          metadata.ScalarFunction,
			Deterministic: true,
		},
		eval: eval,
	}
}

// strict wraps eval so that any NULL argument gives NULL.
func strict(eval func(args ...any) (any, error)) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		for _, arg := range args {
			if arg == nil {
				return nil, nil
			}
		}
		return eval(args...)
	}
}
