package tanabota

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sakutaro/tanabota/internal/models"
)

// Parameter bags arrive as JSON or YAML decoded into map[string]any, so a
// numeric value may be an int, int64, float64 or json.Number depending on
// the decoder. These helpers normalize them to integer yen. Fractional
// values truncate toward zero; strings must be plain integers.

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
		return 0, false
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// intParam reads p[key] as integer yen. Absent or nil counts as absent,
// not malformed.
func intParam(p models.Params, key string) (val int64, present bool, ok bool) {
	v, exists := p[key]
	if !exists || v == nil {
		return 0, false, true
	}
	i, ok := asInt(v)
	return i, true, ok
}

// stringList reads p[key] as a list of strings, tolerating both []string
// (YAML seed) and []any (JSON columns). Non-string elements are skipped.
func stringList(p models.Params, key string) []string {
	switch list := p[key].(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s, isStr := v.(string); isStr {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func roundToInt(f float64) int64 {
	return int64(math.Round(f))
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
