package sync

import (
	"reflect"
	"strconv"
)

// fold canonicalizes a value tree for comparison. Providers and the registry
// disagree on types for the same value (a price as "0.0" vs 0.0, an integer
// limit as float64 after a JSON round trip), and comparing raw values causes
// spurious "changed" verdicts and redundant downstream calls.
func fold(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fold(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fold(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = fold(e)
		}
		return out
	default:
		return v
	}
}

// equalFolded reports whether two value trees are materially equal.
func equalFolded(a, b any) bool {
	return reflect.DeepEqual(fold(a), fold(b))
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
