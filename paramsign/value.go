package paramsign

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// objectString is what ECMAScript String() yields for plain objects.
const objectString = "[object Object]"

// FormatValue renders a parameter value the way ECMAScript String() renders
// the equivalent JSON value, so signatures match verifiers that concatenate
// values implicitly.
//
//   - strings are returned unchanged
//   - booleans become "true" or "false", nil becomes "null"
//   - numbers use the shortest round-trip form, switching to exponent
//     notation below 1e-6 and from 1e21
//   - slices and arrays are formatted element-wise and joined with ","
//     (nil elements become empty)
//   - maps and structs become "[object Object]"
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return formatNumber(val, 64)
	case float32:
		return formatNumber(float64(val), 32)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case []byte:
		// encoding/json sends byte slices as base64 strings.
		return base64.StdEncoding.EncodeToString(val)
	case []any:
		return joinElements(len(val), func(i int) any { return val[i] })
	case map[string]any, Params:
		return objectString
	}

	return formatReflect(reflect.ValueOf(v))
}

func formatReflect(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return FormatValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return formatNumber(rv.Float(), 32)
	case reflect.Float64:
		return formatNumber(rv.Float(), 64)
	case reflect.Slice:
		if rv.IsNil() {
			return "null"
		}
		return joinElements(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Array:
		return joinElements(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	default:
		return objectString
	}
}

func joinElements(n int, at func(int) any) string {
	parts := make([]string, n)
	for i := range n {
		el := at(i)
		if isNil(el) {
			continue
		}
		parts[i] = FormatValue(el)
	}

	return strings.Join(parts, ",")
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

// formatNumber follows the ECMAScript Number::toString algorithm for the
// shortest representation of f at the given bit size.
func formatNumber(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}

	s := strconv.FormatFloat(f, 'e', -1, bits)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")

	return mantissa + "e" + sign + digits
}

// JSONLength reports the length of v's JSON text in UTF-16 code units, the
// unit ECMAScript string lengths are measured in. HTML escaping is disabled
// to match JSON.stringify. ok is false when v cannot be encoded.
func JSONLength(v any) (n int, ok bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return len("null"), true
		}
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return len("null"), true
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return 0, false
	}

	return utf16Len(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), true
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		n += utf16.RuneLen(r)
	}

	return n
}
