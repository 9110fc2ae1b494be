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
	"cmp"
	"math"
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/sqltypes"
	"shardql.io/shardql/go/vt/vterrors"
)

// Operator names.
const (
	OpEq     = "op_="
	OpLt     = "op_<"
	OpLte    = "op_<="
	OpGt     = "op_>"
	OpGte    = "op_>="
	OpAnd    = "op_and"
	OpOr     = "op_or"
	OpNot    = "op_not"
	OpIsNull = "op_isnull"
)

// untyped is true for argument types that are only known at run time.
func untyped(t sqltypes.DataType) bool {
	return t == sqltypes.Undefined || t == sqltypes.Null
}

func canCompare(a, b sqltypes.DataType) bool {
	switch {
	case untyped(a) || untyped(b):
		return true
	case sqltypes.IsNumber(a) && sqltypes.IsNumber(b):
		return true
	case sqltypes.IsQuoted(a) && sqltypes.IsQuoted(b):
		return true
	}
	return a == b && a != sqltypes.Object
}

func registerOperators(f *Functions) {
	comparisons := map[string]func(c int) bool{
		OpEq:  func(c int) bool { return c == 0 },
		OpLt:  func(c int) bool { return c < 0 },
		OpLte: func(c int) bool { return c <= 0 },
		OpGt:  func(c int) bool { return c > 0 },
		OpGte: func(c int) bool { return c >= 0 },
	}
	for name, test := range comparisons {
		f.RegisterResolver(name, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
			if len(argTypes) != 2 || !canCompare(argTypes[0], argTypes[1]) {
				return nil, false
			}
			if name != OpEq && (argTypes[0] == sqltypes.Boolean || argTypes[1] == sqltypes.Boolean) {
				return nil, false
			}
			return newScalar(name, argTypes, sqltypes.Boolean, strict(func(args ...any) (any, error) {
				c, err := compareValues(args[0], args[1])
				if err != nil {
					return nil, err
				}
				return test(c), nil
			})), true
		})
	}

	boolArgs := func(n int) []sqltypes.DataType {
		types := make([]sqltypes.DataType, n)
		for i := range types {
			types[i] = sqltypes.Boolean
		}
		return types
	}
	f.Register(newScalar(OpAnd, boolArgs(2), sqltypes.Boolean, func(args ...any) (any, error) {
		a, b := args[0], args[1]
		if a == false || b == false {
			return false, nil
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return true, nil
	}))
	f.Register(newScalar(OpOr, boolArgs(2), sqltypes.Boolean, func(args ...any) (any, error) {
		a, b := args[0], args[1]
		if a == true || b == true {
			return true, nil
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return false, nil
	}))
	f.Register(newScalar(OpNot, boolArgs(1), sqltypes.Boolean, strict(func(args ...any) (any, error) {
		b, ok := args[0].(bool)
		if !ok {
			return nil, typeMismatch(OpNot, args[0])
		}
		return !b, nil
	})))
	f.RegisterResolver(OpIsNull, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
		if len(argTypes) != 1 {
			return nil, false
		}
		return newScalar(OpIsNull, argTypes, sqltypes.Boolean, func(args ...any) (any, error) {
			return args[0] == nil, nil
		}), true
	})
}

// compareValues orders two non-NULL values of comparable types.
func compareValues(a, b any) (int, error) {
	ta, err := sqltypes.ForValue(a, false)
	if err != nil {
		return 0, err
	}
	tb, err := sqltypes.ForValue(b, false)
	if err != nil {
		return 0, err
	}
	switch {
	case sqltypes.IsNumber(ta) && sqltypes.IsNumber(tb):
		if sqltypes.IsFloat(ta) || sqltypes.IsFloat(tb) {
			fa, _ := sqltypes.Convert(a, sqltypes.Double)
			fb, _ := sqltypes.Convert(b, sqltypes.Double)
			return cmp.Compare(fa.(float64), fb.(float64)), nil
		}
		ia, _ := sqltypes.Convert(a, sqltypes.Long)
		ib, _ := sqltypes.Convert(b, sqltypes.Long)
		return cmp.Compare(ia.(int64), ib.(int64)), nil
	case sqltypes.IsQuoted(ta) && sqltypes.IsQuoted(tb):
		sa, _ := sqltypes.Convert(a, sqltypes.String)
		sb, _ := sqltypes.Convert(b, sqltypes.String)
		return strings.Compare(sa.(string), sb.(string)), nil
	case ta == sqltypes.Boolean && tb == sqltypes.Boolean:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0, nil
		case !ba:
			return -1, nil
		}
		return 1, nil
	}
	return 0, vterrors.Errorf(codes.InvalidArgument, "cannot compare '%s' with '%s'", ta.Name(), tb.Name())
}

func typeMismatch(fn string, v any) error {
	return vterrors.NewErrorf(codes.InvalidArgument, vterrors.WrongArguments, "%s: unexpected argument %v of type %T", fn, v, v)
}

// Arithmetic function names.
const (
	FnAdd      = "add"
	FnSubtract = "subtract"
	FnMultiply = "multiply"
	FnDivide   = "divide"
	FnModulus  = "modulus"
)

type arithmetic struct {
	ints   func(a, b int64) (int64, error)
	floats func(a, b float64) float64
}

var errDivisionByZero = vterrors.NewErrorf(codes.InvalidArgument, vterrors.DataOutOfRange, "division by zero")

func registerArithmetic(f *Functions) {
	ops := map[string]arithmetic{
		FnAdd: {
			ints:   func(a, b int64) (int64, error) { return a + b, nil },
			floats: func(a, b float64) float64 { return a + b },
		},
		FnSubtract: {
			ints:   func(a, b int64) (int64, error) { return a - b, nil },
			floats: func(a, b float64) float64 { return a - b },
		},
		FnMultiply: {
			ints:   func(a, b int64) (int64, error) { return a * b, nil },
			floats: func(a, b float64) float64 { return a * b },
		},
		FnDivide: {
			ints: func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, errDivisionByZero
				}
				return a / b, nil
			},
			floats: func(a, b float64) float64 { return a / b },
		},
		FnModulus: {
			ints: func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, errDivisionByZero
				}
				return a % b, nil
			},
			floats: math.Mod,
		},
	}
	for name, op := range ops {
		f.RegisterResolver(name, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
			if len(argTypes) != 2 {
				return nil, false
			}
			returnType := sqltypes.Long
			for _, t := range argTypes {
				switch {
				case sqltypes.IsFloat(t):
					returnType = sqltypes.Double
				case sqltypes.IsIntegral(t), t == sqltypes.Timestamp, untyped(t):
				default:
					return nil, false
				}
			}
			return newScalar(name, argTypes, returnType, strict(func(args ...any) (any, error) {
				if returnType == sqltypes.Double {
					a, err := sqltypes.Convert(args[0], sqltypes.Double)
					if err != nil {
						return nil, err
					}
					b, err := sqltypes.Convert(args[1], sqltypes.Double)
					if err != nil {
						return nil, err
					}
					return op.floats(a.(float64), b.(float64)), nil
				}
				a, err := sqltypes.Convert(args[0], sqltypes.Long)
				if err != nil {
					return nil, err
				}
				b, err := sqltypes.Convert(args[1], sqltypes.Long)
				if err != nil {
					return nil, err
				}
				return op.ints(a.(int64), b.(int64))
			})), true
		})
	}
}

// String function names.
const (
	FnLower      = "lower"
	FnUpper      = "upper"
	FnConcat     = "concat"
	FnCharLength = "char_length"
)

func stringArg(fn string, v any) (string, error) {
	s, err := sqltypes.Convert(v, sqltypes.String)
	if err != nil {
		return "", typeMismatch(fn, v)
	}
	return s.(string), nil
}

func registerStringFunctions(f *Functions) {
	unary := func(name string, returnType sqltypes.DataType, fn func(string) any) {
		f.RegisterResolver(name, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
			if len(argTypes) != 1 || !(untyped(argTypes[0]) || sqltypes.IsQuoted(argTypes[0])) {
				return nil, false
			}
			return newScalar(name, argTypes, returnType, strict(func(args ...any) (any, error) {
				s, err := stringArg(name, args[0])
				if err != nil {
					return nil, err
				}
				return fn(s), nil
			})), true
		})
	}
	unary(FnLower, sqltypes.String, func(s string) any { return strings.ToLower(s) })
	unary(FnUpper, sqltypes.String, func(s string) any { return strings.ToUpper(s) })
	unary(FnCharLength, sqltypes.Integer, func(s string) any { return int32(utf8.RuneCountInString(s)) })

	f.RegisterResolver(FnConcat, func(argTypes []sqltypes.DataType) (FunctionImplementation, bool) {
		if len(argTypes) < 2 {
			return nil, false
		}
		for _, t := range argTypes {
			if t == sqltypes.Object {
				return nil, false
			}
		}
		return newScalar(FnConcat, argTypes, sqltypes.String, func(args ...any) (any, error) {
			var b strings.Builder
			for _, arg := range args {
				if arg == nil {
					continue
				}
				s, err := stringArg(FnConcat, arg)
				if err != nil {
					return nil, err
				}
				b.WriteString(s)
			}
			return b.String(), nil
		}), true
	})
}
