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

// Package sqltypes implements the value and type system of shardql: the
// closed set of column types, type inference from Go values and the coercion
// rules used when a literal is bound to a typed column.
package sqltypes

import (
	"encoding/json"
	"fmt"
	"math"
)

// These bit flags can be used to query on the common properties of types.
const (
	flagIsIntegral = 1 << (8 + iota)
	flagIsFloat
	flagIsQuoted
)

// DataType is the type of a column or of a literal value.
type DataType int

// The column types. The low byte is the ordinal, the flags describe the
// category.
const (
	Undefined = DataType(0)
	Null      = DataType(1)
	Boolean   = DataType(2)
	Byte      = DataType(3 | flagIsIntegral)
	Short     = DataType(4 | flagIsIntegral)
	Integer   = DataType(5 | flagIsIntegral)
	Long      = DataType(6 | flagIsIntegral)
	Float     = DataType(7 | flagIsFloat)
	Double    = DataType(8 | flagIsFloat)
	String    = DataType(9 | flagIsQuoted)
	IP        = DataType(10 | flagIsQuoted)
	Timestamp = DataType(11 | flagIsQuoted)
	Object    = DataType(12)
)

var typeNames = map[DataType]string{
	Undefined: "undefined",
	Null:      "null",
	Boolean:   "boolean",
	Byte:      "byte",
	Short:     "short",
	Integer:   "integer",
	Long:      "long",
	Float:     "float",
	Double:    "double",
	String:    "string",
	IP:        "ip",
	Timestamp: "timestamp",
	Object:    "object",
}

// TypeByName returns the DataType for a name as it appears in table
// mappings, e.g. "integer" or "object".
func TypeByName(name string) (DataType, bool) {
	for t, n := range typeNames {
		if n == name {
			return t, true
		}
	}
	return Undefined, false
}

// Name returns the lowercase name used in mappings and error messages.
func (t DataType) Name() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

func (t DataType) String() string {
	return t.Name()
}

// MarshalJSON renders the type by name.
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Name())
}

// UnmarshalJSON reads a type name.
func (t *DataType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	dt, ok := TypeByName(name)
	if !ok {
		return fmt.Errorf("unknown data type %q", name)
	}
	*t = dt
	return nil
}

// IsIntegral returns true if DataType is an integral type.
func IsIntegral(t DataType) bool {
	return int(t)&flagIsIntegral == flagIsIntegral
}

// IsFloat returns true if DataType is a floating point.
func IsFloat(t DataType) bool {
	return int(t)&flagIsFloat == flagIsFloat
}

// IsNumber returns true if DataType is integral or floating point.
func IsNumber(t DataType) bool {
	return IsIntegral(t) || IsFloat(t)
}

// IsQuoted returns true if DataType is represented as text.
func IsQuoted(t DataType) bool {
	return int(t)&flagIsQuoted == flagIsQuoted
}

// IsPrimitive reports whether values of t are scalars.
func IsPrimitive(t DataType) bool {
	return t != Object && t != Undefined
}

// ForValue infers the DataType of a Go value. Nested maps are objects. When
// ignoredObject is set, values that cannot be typed are reported as Undefined
// instead of failing, since ignored objects store whatever they are given.
func ForValue(v any, ignoredObject bool) (DataType, error) {
	switch v := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Boolean, nil
	case int8:
		return Byte, nil
	case int16:
		return Short, nil
	case int32, uint8, uint16:
		return Integer, nil
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return Long, nil
		}
		return Integer, nil
	case int64, uint32:
		return Long, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Undefined, fmt.Errorf("%d is out of range for type 'long'", v)
		}
		return Long, nil
	case uint64:
		if v > math.MaxInt64 {
			return Undefined, fmt.Errorf("%d is out of range for type 'long'", v)
		}
		return Long, nil
	case float32:
		return Float, nil
	case float64:
		return Double, nil
	case string, []byte:
		return String, nil
	case map[string]any:
		return Object, nil
	default:
		if ignoredObject {
			return Undefined, nil
		}
		return Undefined, fmt.Errorf("cannot infer type of %T", v)
	}
}
