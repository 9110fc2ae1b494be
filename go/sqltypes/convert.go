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

package sqltypes

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// ConversionError is returned when a value cannot be represented in the
// requested type.
type ConversionError struct {
	Value any
	From  DataType
	To    DataType
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v of type '%s' to '%s'", e.Value, e.From.Name(), e.To.Name())
}

// Convert coerces v, whose type is inferred, into the Go representation of
// target:
//
//	Boolean bool, Byte int8, Short int16, Integer int32, Long int64,
//	Float float32, Double float64, String/IP string, Timestamp int64 (ms),
//	Object map[string]any.
//
// nil converts to nil for every target. Floating point values are truncated
// toward zero when converted to integral types. Object values are copied,
// the input is never shared with the result.
func Convert(v any, target DataType) (any, error) {
	if v == nil || target == Undefined || target == Null {
		return v, nil
	}
	from, err := ForValue(v, false)
	if err != nil {
		return nil, &ConversionError{Value: v, From: Undefined, To: target}
	}
	fail := func() (any, error) {
		return nil, &ConversionError{Value: v, From: from, To: target}
	}

	switch target {
	case Boolean:
		switch v := v.(type) {
		case bool:
			return v, nil
		case string:
			return parseBool(v)
		case []byte:
			return parseBool(string(v))
		}
		return fail()
	case Byte, Short, Integer, Long:
		i, ok := toInt64(v)
		if !ok {
			return fail()
		}
		return fitInteger(i, target, v, from)
	case Float:
		f, ok := toFloat64(v)
		if !ok || (!math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32) {
			return fail()
		}
		return float32(f), nil
	case Double:
		f, ok := toFloat64(v)
		if !ok {
			return fail()
		}
		return f, nil
	case String:
		switch v := v.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		case bool:
			return strconv.FormatBool(v), nil
		case map[string]any:
			return fail()
		}
		if s, ok := formatNumber(v); ok {
			return s, nil
		}
		return fail()
	case IP:
		s, ok := v.(string)
		if b, isBytes := v.([]byte); isBytes {
			s, ok = string(b), true
		}
		if !ok {
			return fail()
		}
		if _, err := netip.ParseAddr(s); err != nil {
			return fail()
		}
		return s, nil
	case Timestamp:
		switch v := v.(type) {
		case string:
			return parseTimestamp(v)
		case []byte:
			return parseTimestamp(string(v))
		}
		i, ok := toInt64(v)
		if !ok {
			return fail()
		}
		return i, nil
	case Object:
		m, ok := v.(map[string]any)
		if !ok {
			return fail()
		}
		return CopyObject(m), nil
	}
	return fail()
}

// CopyObject returns a deep copy of an object value.
func CopyObject(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = CopyObject(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func parseBool(s string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1":
		return true, nil
	case "f", "false", "0":
		return false, nil
	}
	return nil, &ConversionError{Value: s, From: String, To: Boolean}
}

func parseTimestamp(s string) (any, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return nil, &ConversionError{Value: s, From: String, To: Timestamp}
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint64:
		return int64(v), v <= math.MaxInt64
	case float32:
		return truncate(float64(v))
	case float64:
		return truncate(v)
	case string:
		return parseInt(v)
	case []byte:
		return parseInt(string(v))
	}
	return 0, false
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	return 0, false
}

func truncate(f float64) (int64, bool) {
	// float64(math.MaxInt64) rounds up to 2^63, which int64 can't hold.
	if math.IsNaN(f) || f >= 1<<63 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(v any) (float64, bool) {
	switch v := v.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	case bool, map[string]any:
		return 0, false
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

func fitInteger(i int64, target DataType, orig any, from DataType) (any, error) {
	switch target {
	case Byte:
		if i >= math.MinInt8 && i <= math.MaxInt8 {
			return int8(i), nil
		}
	case Short:
		if i >= math.MinInt16 && i <= math.MaxInt16 {
			return int16(i), nil
		}
	case Integer:
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
	case Long:
		return i, nil
	}
	return nil, &ConversionError{Value: orig, From: from, To: target}
}

func formatNumber(v any) (string, bool) {
	switch v := v.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}
