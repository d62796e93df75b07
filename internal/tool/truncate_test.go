package tool

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateUnderLimitUnchanged(t *testing.T) {
	tr := Truncator{Limit: 1000, ArrayPrefix: 5}
	in := map[string]any{"name": "Ada Lovelace", "stage": "Onsite"}

	out, err := tr.Truncate(in)
	require.NoError(t, err)

	want, _ := json.Marshal(in)
	assert.Equal(t, string(want), out, "under the limit the payload is byte-for-byte unchanged")

	// Idempotent: running it again changes nothing.
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	again, err := tr.Truncate(decoded)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTruncateOversizedArray(t *testing.T) {
	tr := Truncator{Limit: 500, ArrayPrefix: 3}
	items := make([]map[string]any, 50)
	for i := range items {
		items[i] = map[string]any{"name": "Candidate Number Fifty-Something", "id": i}
	}

	out, err := tr.Truncate(items)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, true, decoded["truncated"])
	assert.Equal(t, float64(50), decoded["original_count"])
	assert.Len(t, decoded["items"], 3)
}

func TestTruncateObjectFields(t *testing.T) {
	tr := Truncator{Limit: 400, ArrayPrefix: 2}
	big := make([]any, 30)
	for i := range big {
		big[i] = map[string]any{"label": "a reasonably long label value here"}
	}
	in := map[string]any{"total": 30, "results": big}

	out, err := tr.Truncate(in)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(30), decoded["total"], "scalar fields survive")

	results, ok := decoded["results"].(map[string]any)
	require.True(t, ok, "oversized array field is wrapped")
	assert.Equal(t, float64(30), results["original_count"])
	assert.Len(t, results["items"], 2)
}

func TestTruncateHardCut(t *testing.T) {
	tr := Truncator{Limit: 100, ArrayPrefix: 2}
	// A single huge string cannot be reduced structurally.
	in := map[string]any{"blob": strings.Repeat("x", 5000)}

	out, err := tr.Truncate(in)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 100+len(truncationMarker))
	assert.True(t, strings.HasSuffix(out, truncationMarker))
}
