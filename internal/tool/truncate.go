package tool

import (
	"encoding/json"
	"fmt"
)

const truncationMarker = "... [truncated]"

// Truncator caps serialized tool results so one oversized payload cannot
// starve the model's context window.
type Truncator struct {
	Limit       int // max serialized characters
	ArrayPrefix int // items kept from an oversized array
}

// Truncate serializes v to JSON and caps the result. Payloads under the limit
// come back byte-for-byte unchanged. Oversized arrays are cut to a bounded
// prefix carrying the original count; oversized objects get each array-valued
// field cut the same way; whatever is still too big is hard-cut with a marker.
func (t Truncator) Truncate(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize tool result: %w", err)
	}
	if len(raw) <= t.Limit {
		return string(raw), nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return t.hardCut(string(raw)), nil
	}

	switch d := decoded.(type) {
	case []any:
		decoded = t.truncateArray(d)
	case map[string]any:
		for key, val := range d {
			if arr, ok := val.([]any); ok && len(arr) > t.ArrayPrefix {
				d[key] = t.truncateArray(arr)
			}
		}
	}

	reduced, err := json.Marshal(decoded)
	if err != nil {
		return t.hardCut(string(raw)), nil
	}
	if len(reduced) <= t.Limit {
		return string(reduced), nil
	}
	return t.hardCut(string(reduced)), nil
}

func (t Truncator) truncateArray(arr []any) map[string]any {
	prefix := arr
	if len(prefix) > t.ArrayPrefix {
		prefix = prefix[:t.ArrayPrefix]
	}
	return map[string]any{
		"truncated":      true,
		"original_count": len(arr),
		"items":          prefix,
	}
}

func (t Truncator) hardCut(s string) string {
	if len(s) <= t.Limit {
		return s
	}
	return s[:t.Limit] + truncationMarker
}
