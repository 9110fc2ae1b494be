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
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
	"shardql.io/shardql/go/vt/vtgate/metadata"
)

// Aggregate function names.
const (
	FnCount = "count"
	FnSum   = "sum"
	FnAvg   = "avg"
	FnMin   = "min"
	FnMax   = "max"
)

type aggregateFunc struct {
	info     metadata.FunctionInfo
	newState func() AggregationState
}

func (a *aggregateFunc) Info() metadata.FunctionInfo { return a.info }

func (a *aggregateFunc) NewState() AggregationState { return a.newState() }

func newAggregate(name string, argTypes []sqltypes.DataType, returnType sqltypes.DataType, newState func() AggregationState) *aggregateFunc {
	return &aggregateFunc{
		info: metadata.FunctionInfo{
			Ident:         metadata.NewFunctionIdent(name, argTypes...),
			ReturnType:    returnType,
			Type:          metadata.AggregateFunction,
			Deterministic: true,
		},
		newState: newState,
	}
}

func registerAggregates(f *Functions) {
	f.RegisterResolver(FnCount, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
		if len(argTypes) > 1 {
			return nil, false
		}
		return newAggregate(FnCount, argTypes, sqltypes.Long, func() AggregationState { return &countState{} }), true
	})
	f.RegisterResolver(FnSum, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
		if len(argTypes) != 1 || !sqltypes.IsNumber(argTypes[0]) {
			return nil, false
		}
		returnType := sqltypes.Long
		if sqltypes.IsFloat(argTypes[0]) {
			returnType = sqltypes.Double
		}
		return newAggregate(FnSum, argTypes, returnType, func() AggregationState {
			return &sumState{float: returnType == sqltypes.Double}
		}), true
	})
	f.RegisterResolver(FnAvg, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
		if len(argTypes) != 1 || !sqltypes.IsNumber(argTypes[0]) {
			return nil, false
		}
		return newAggregate(FnAvg, argTypes, sqltypes.Double, func() AggregationState { return &avgState{} }), true
	})
	for _, name := range []string{FnMin, FnMax} {
		f.RegisterResolver(name, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
			if len(argTypes) != 1 || !sqltypes.IsPrimitive(argTypes[0]) {
				return nil, false
			}
			return newAggregate(name, argTypes, argTypes[0], func() AggregationState {
				return &extremeState{max: name == FnMax}
			}), true
		})
	}
}

func mergeMismatch(want string, got AggregationState) error {
	return vterrors.Errorf(codes.Internal, "cannot merge %T into %s state", got, want)
}

type countState struct {
	n int64
}

func (s *countState) Add(args ...any) error {
	if len(args) == 0 || args[0] != nil {
		s.n++
	}
	return nil
}

func (s *countState) Merge(other AggregationState) error {
	o, ok := other.(*countState)
	if !ok {
		return mergeMismatch(FnCount, other)
	}
	s.n += o.n
	return nil
}

func (s *countState) Value() any { return s.n }

type sumState struct {
	float bool
	seen  bool
	i     int64
	f     float64
}

func (s *sumState) Add(args ...any) error {
	if args[0] == nil {
		return nil
	}
	s.seen = true
	if s.float {
		v, err := sqltypes.Convert(args[0], sqltypes.Double)
		if err != nil {
			return err
		}
		s.f += v.(float64)
		return nil
	}
	v, err := sqltypes.Convert(args[0], sqltypes.Long)
	if err != nil {
		return err
	}
	s.i += v.(int64)
	return nil
}

func (s *sumState) Merge(other AggregationState) error {
	o, ok := other.(*sumState)
	if !ok || o.float != s.float {
		return mergeMismatch(FnSum, other)
	}
	s.seen = s.seen || o.seen
	s.i += o.i
	s.f += o.f
	return nil
}

func (s *sumState) Value() any {
	switch {
	case !s.seen:
		return nil
	case s.float:
		return s.f
	}
	return s.i
}

type avgState struct {
	sum   float64
	count int64
}

func (s *avgState) Add(args ...any) error {
	if args[0] == nil {
		return nil
	}
	v, err := sqltypes.Convert(args[0], sqltypes.Double)
	if err != nil {
		return err
	}
	s.sum += v.(float64)
	s.count++
	return nil
}

func (s *avgState) Merge(other AggregationState) error {
	o, ok := other.(*avgState)
	if !ok {
		return mergeMismatch(FnAvg, other)
	}
	s.sum += o.sum
	s.count += o.count
	return nil
}

func (s *avgState) Value() any {
	if s.count == 0 {
		return nil
	}
	return s.sum / float64(s.count)
}

type extremeState struct {
	max   bool
	value any
}

func (s *extremeState) Add(args ...any) error {
	return s.offer(args[0])
}

func (s *extremeState) offer(v any) error {
	if v == nil {
		return nil
	}
	if s.value == nil {
		s.value = v
		return nil
	}
	c, err := compareValues(v, s.value)
	if err != nil {
		return err
	}
	if (s.max && c > 0) || (!s.max && c < 0) {
		s.value = v
	}
	return nil
}

func (s *extremeState) Merge(other AggregationState) error {
	o, ok := other.(*extremeState)
	if !ok || o.max != s.max {
		return mergeMismatch("min/max", other)
	}
	return s.offer(o.value)
}

func (s *extremeState) Value() any { return s.value }
