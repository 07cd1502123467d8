package checker

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/slatedeck/slatedeck/internal/models"
	"github.com/slatedeck/slatedeck/internal/query"
)

// extractScalar reduces a query result to the single value compared
// against the threshold: first row, first column. Alert queries are
// expected to return a single aggregate cell; an empty result yields 0.
//
// A result wrapped in a single `result` column (the shape some SQL
// execution backends return for ad-hoc queries) is unwrapped first.
func extractScalar(res *query.Result) float64 {
	if res.Empty() {
		return 0
	}

	value := res.Rows[0][0]
	if len(res.Columns) == 1 && res.Columns[0] == "result" {
		value = unwrapResult(value)
	}
	return coerceNumber(value)
}

// unwrapResult peels a JSON `result` wrapper down to its first cell:
// a JSON-encoded string is decoded, an array yields its first element,
// and a single-key object yields its value.
func unwrapResult(value any) any {
	switch v := value.(type) {
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return value
		}
		value = decoded
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return value
		}
		value = decoded
	}

	if arr, ok := value.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		value = arr[0]
	}

	if obj, ok := value.(map[string]any); ok {
		if len(obj) == 1 {
			for _, v := range obj {
				return v
			}
		}
		return nil
	}

	return value
}

// coerceNumber converts a query cell to float64 for comparison.
// Non-coercible values are treated as 0 rather than raising.
func coerceNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0
		}
		return f
	}

	// Warehouse drivers return a zoo of numeric types (named ints,
	// unsigned widths, nullable pointers); fold them via reflection.
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return 0
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		if err != nil {
			return 0
		}
		return f
	}

	return 0
}

// floatEpsilon is the tolerance for float64 equality comparison,
// avoiding unreliable direct == on floating-point values.
const floatEpsilon = 1e-9

// conditionMet evaluates the threshold predicate. Unknown operators
// never trigger.
func conditionMet(op models.Operator, actual, threshold float64) bool {
	switch op {
	case models.OperatorLessThan:
		return actual < threshold
	case models.OperatorGreaterThan:
		return actual > threshold
	case models.OperatorEqualTo:
		diff := actual - threshold
		if diff < 0 {
			diff = -diff
		}
		return diff < floatEpsilon
	default:
		return false
	}
}
