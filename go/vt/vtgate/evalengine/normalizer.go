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

package evalengine

import (
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
	"shardql.io/shardql/go/vt/vtgate/symbols"
)

// ReferenceResolver provides the values of references that are the same
// for every row, such as the cluster name.
type ReferenceResolver interface {
	Resolve(info metadata.ReferenceInfo) (value any, ok bool)
}

// EvaluatingNormalizer replaces parameters by literals, references up to
// its granularity by their value, and deterministic scalar functions of
// literals by their result.
type EvaluatingNormalizer struct {
	functions   *Functions
	granularity metadata.RowGranularity
	resolver    ReferenceResolver
}

var _ symbols.Normalizer = (*EvaluatingNormalizer)(nil)

// NewEvaluatingNormalizer returns a normalizer resolving references of at
// most granularity through resolver. resolver may be nil.
func NewEvaluatingNormalizer(functions *Functions, granularity metadata.RowGranularity, resolver ReferenceResolver) *EvaluatingNormalizer {
	return &EvaluatingNormalizer{functions: functions, granularity: granularity, resolver: resolver}
}

// Normalize implements symbols.Normalizer. Normalizing a normalized symbol
// returns an equal symbol.
func (n *EvaluatingNormalizer) Normalize(s symbols.Symbol) (symbols.Symbol, error) {
	switch s := s.(type) {
	case *symbols.Parameter:
		return symbols.LiteralForValue(s.Value())
	case symbols.Ref:
		return n.normalizeReference(s)
	case *symbols.Function:
		return n.normalizeFunction(s)
	case *symbols.Aggregation:
		inputs, changed, err := n.normalizeAll(s.Inputs())
		if err != nil || !changed {
			return s, err
		}
		return symbols.NewAggregation(s.Info(), inputs, s.FromStep(), s.ToStep()), nil
	}
	return s, nil
}

func (n *EvaluatingNormalizer) normalizeReference(ref symbols.Ref) (symbols.Symbol, error) {
	info := ref.Info()
	if n.resolver == nil || info.Granularity > n.granularity {
		return ref, nil
	}
	value, ok := n.resolver.Resolve(info)
	if !ok {
		return ref, nil
	}
	lit, err := symbols.NewLiteral(info.Type, value)
	if err != nil {
		return nil, vterrors.Wrapf(err, "resolving %s", info.Ident)
	}
	return lit, nil
}

func (n *EvaluatingNormalizer) normalizeFunction(fn *symbols.Function) (symbols.Symbol, error) {
	args, changed, err := n.normalizeAll(fn.Args())
	if err != nil {
		return nil, err
	}
	if changed {
		fn = symbols.NewFunction(fn.Info(), args...)
	}

	info := fn.Info()
	if info.IsAggregate() || !info.Deterministic {
		return fn, nil
	}
	values := make([]any, len(args))
	for i, arg := range args {
		lit, ok := arg.(*symbols.Literal)
		if !ok {
			return fn, nil
		}
		values[i] = lit.Value()
	}
	impl, ok := n.functions.Get(info.Ident)
	if !ok {
		return fn, nil
	}
	scalar, ok := impl.(Scalar)
	if !ok {
		return fn, nil
	}
	result, err := scalar.Evaluate(values...)
	if err != nil {
		return nil, vterrors.Wrapf(err, "evaluating %s", fn)
	}
	return symbols.NewLiteral(info.ReturnType, result)
}

func (n *EvaluatingNormalizer) normalizeAll(in []symbols.Symbol) ([]symbols.Symbol, bool, error) {
	out := make([]symbols.Symbol, len(in))
	changed := false
	for i, s := range in {
		normalized, err := n.Normalize(s)
		if err != nil {
			return nil, false, err
		}
		out[i] = normalized
		changed = changed || normalized != s
	}
	return out, changed, nil
}
