package tool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/ats"
)

func TestRedactCandidateContactFields(t *testing.T) {
	cand := ats.Candidate{
		ID:                  "cand-1",
		Name:                "Ada Lovelace",
		PrimaryEmailAddress: ats.EmailValue{Value: "ada@example.com"},
		PrimaryPhoneNumber:  ats.EmailValue{Value: "+1 555 0100"},
		SocialLinks:         []ats.SocialLink{{Type: "LinkedIn", URL: "https://linkedin.com/in/ada"}},
	}

	out, err := Redact(cand)
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", m["name"])
	assert.Equal(t, "cand-1", m["id"])
	assert.Equal(t, "[REDACTED]", m["primaryEmailAddress"])
	assert.Equal(t, "[REDACTED]", m["primaryPhoneNumber"])
	assert.Equal(t, "[REDACTED]", m["socialLinks"])
}

func TestRedactNestedAndListed(t *testing.T) {
	offers := []ats.Offer{{
		ID:     "offer-1",
		Status: "WaitingOnApproval",
		Salary: 185000,
		Application: ats.Application{
			ID: "app-1",
			Candidate: ats.Candidate{
				Name:               "Grace Hopper",
				PrimaryPhoneNumber: ats.EmailValue{Value: "+1 555 0101"},
			},
		},
	}}

	out, err := Redact(offers)
	require.NoError(t, err)

	list, ok := out.([]any)
	require.True(t, ok)
	offer := list[0].(map[string]any)
	assert.Equal(t, "[REDACTED]", offer["salary"])

	app := offer["application"].(map[string]any)
	cand := app["candidate"].(map[string]any)
	assert.Equal(t, "Grace Hopper", cand["name"])
	assert.Equal(t, "[REDACTED]", cand["primaryPhoneNumber"])
}

func TestRedactSearchHits(t *testing.T) {
	hits := []ats.CandidateHit{{
		Name:          "Katherine Johnson",
		Email:         "katherine@example.com",
		CandidateID:   "cand-3",
		ApplicationID: "app-3",
		Job:           "Backend Engineer",
		Stage:         "Onsite",
	}}

	out, err := Redact(hits)
	require.NoError(t, err)

	raw, err := Truncator{Limit: 100_000, ArrayPrefix: 20}.Truncate(out)
	require.NoError(t, err)
	assert.NotContains(t, raw, "katherine@example.com")
	assert.True(t, strings.Contains(raw, "Katherine Johnson"), "names stay visible for disambiguation")
	assert.True(t, strings.Contains(raw, "cand-3"), "ids stay visible so follow-up tools can use them")
}

func TestRedactLeavesScalarsAlone(t *testing.T) {
	out, err := Redact(map[string]any{"status": "ok", "count": 3})
	require.NoError(t, err)
	m := out.(map[string]any)
	assert.Equal(t, "ok", m["status"])
	assert.Equal(t, float64(3), m["count"])
}
