package tools

import (
	"fmt"
	"strconv"
)

// stringArg extracts a string argument, returning "" when absent or not a
// string.
func stringArg(args map[string]any, key string) string {
	if raw, exists := args[key]; exists {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

// boolArg extracts a boolean argument, returning false when absent.
func boolArg(args map[string]any, key string) bool {
	if raw, exists := args[key]; exists {
		if b, ok := raw.(bool); ok {
			return b
		}
	}
	return false
}

// stringMapArg extracts a string-to-string map argument. JSON object values
// arrive as map[string]any with numbers decoded as float64, so values are
// rendered: integral floats lose the decimal point, everything else is
// formatted as-is.
func stringMapArg(args map[string]any, key string) map[string]string {
	raw, exists := args[key]
	if !exists {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[k] = renderValue(v)
	}
	return out
}

func renderValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
