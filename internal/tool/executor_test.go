package tool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/ats/atstest"
)

func TestWriteKindsTotal(t *testing.T) {
	for _, tl := range Catalog() {
		if !tl.Write {
			continue
		}
		kind, err := WriteKind(tl.Name)
		require.NoError(t, err, "write tool %s must map to an operation kind", tl.Name)
		assert.NotEmpty(t, kind)
	}

	_, err := WriteKind("get_open_jobs")
	assert.Error(t, err, "read tools have no operation kind")
}

func fixtureATS() *atstest.Fake {
	f := atstest.New()
	f.Jobs = []ats.Job{
		{ID: "job-1", Title: "Backend Engineer", Status: "Open"},
		{ID: "job-2", Title: "Data Scientist", Status: "Open"},
	}
	f.Stages = []ats.Stage{
		{ID: "stage-1", Title: "Phone Screen"},
		{ID: "stage-2", Title: "Onsite"},
		{ID: "stage-3", Title: "Hired"},
	}
	f.Applications = []ats.Application{
		{
			ID:                    "app-1",
			Status:                "Active",
			CreatedAt:             time.Now().AddDate(0, 0, -10),
			UpdatedAt:             time.Now().AddDate(0, 0, -3),
			Candidate:             ats.Candidate{ID: "cand-1", Name: "Ada Lovelace", PrimaryEmailAddress: ats.EmailValue{Value: "ada@example.com"}},
			Job:                   ats.Job{ID: "job-1", Title: "Backend Engineer"},
			CurrentInterviewStage: ats.Stage{ID: "stage-1", Title: "Phone Screen"},
		},
		{
			ID:                    "app-2",
			Status:                "Active",
			Candidate:             ats.Candidate{ID: "cand-2", Name: "Grace Hopper", PrimaryEmailAddress: ats.EmailValue{Value: "grace@example.com"}},
			Job:                   ats.Job{ID: "job-1", Title: "Backend Engineer"},
			CurrentInterviewStage: ats.Stage{ID: "stage-3", Title: "Hired"},
		},
		{
			ID:                    "app-3",
			Status:                "Active",
			Candidate:             ats.Candidate{ID: "cand-3", Name: "Katherine Johnson", PrimaryEmailAddress: ats.EmailValue{Value: "kj@example.com"}},
			Job:                   ats.Job{ID: "job-2", Title: "Data Scientist"},
			CurrentInterviewStage: ats.Stage{ID: "stage-2", Title: "Onsite"},
		},
	}
	return f
}

func newExecutor(mode string) (*Executor, *atstest.Fake) {
	f := fixtureATS()
	return NewExecutor(f, NewGuard(mode, 5)), f
}

func TestReadExecutesImmediately(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "search_candidates", map[string]any{"query": "ada"}, "U1")
	require.True(t, res.Success)
	assert.Empty(t, f.WriteCalls())

	hits := res.Data.([]ats.CandidateHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ada Lovelace", hits[0].Name)
}

func TestReadFiltersHiredFromLists(t *testing.T) {
	e, _ := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "get_candidates_by_job", map[string]any{"job_title": "Backend"}, "U1")
	require.True(t, res.Success)

	hits := res.Data.([]ats.CandidateHit)
	require.Len(t, hits, 1)
	assert.Equal(t, "Ada Lovelace", hits[0].Name)
}

func TestWriteRequiresConfirmation(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "move_candidate_stage", map[string]any{
		"candidate_name": "Ada",
		"target_stage":   "Onsite",
	}, "U1")

	require.True(t, res.RequiresConfirmation)
	assert.False(t, res.Success)
	assert.Empty(t, f.WriteCalls(), "no side effect before approval")

	p := res.Pending
	require.NotNil(t, p)
	assert.Equal(t, KindMoveStage, p.Kind)
	assert.Equal(t, "Move Ada Lovelace to Onsite", p.Description)
	assert.Equal(t, "app-1", p.ApplicationID)
	assert.Equal(t, "app-1", p.Args["application_id"])
	assert.Equal(t, "stage-2", p.Args["stage_id"])
}

func TestExecuteConfirmedReplaysPayload(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "move_candidate_stage", map[string]any{
		"candidate_name": "Ada",
		"target_stage":   "Onsite",
	}, "U1")
	require.True(t, res.RequiresConfirmation)

	confirmed := e.ExecuteConfirmed(context.Background(), res.Pending.Action, res.Pending.Args)
	require.True(t, confirmed.Success)
	require.Len(t, f.Calls, 1)
	assert.Equal(t, "MoveStage", f.Calls[0].Name)
	assert.Equal(t, []string{"app-1", "stage-2"}, f.Calls[0].Args)
}

func TestUnresolvableTargetNeverReachesGuard(t *testing.T) {
	e, f := newExecutor(ModeOpen) // open mode would execute immediately if the guard were reached

	res := e.Execute(context.Background(), "move_candidate_stage", map[string]any{
		"candidate_name": "Nobody Atall",
		"target_stage":   "Onsite",
	}, "U1")

	assert.False(t, res.Success)
	assert.False(t, res.RequiresConfirmation)
	assert.Contains(t, res.Error, "identify candidate")
	assert.Empty(t, f.WriteCalls())
}

func TestAmbiguousTargetListsMatches(t *testing.T) {
	e, _ := newExecutor(ModeConfirmWrites)

	// "a" matches several candidates.
	res := e.Execute(context.Background(), "add_candidate_note", map[string]any{
		"candidate_name": "a",
		"note":           "hello",
	}, "U1")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "identify candidate")
	assert.Contains(t, res.Error, "matches")
}

func TestHiredCandidateIsDenied(t *testing.T) {
	e, f := newExecutor(ModeOpen)

	res := e.Execute(context.Background(), "move_candidate_stage", map[string]any{
		"candidate_name": "Grace",
		"target_stage":   "Onsite",
	}, "U1")

	assert.False(t, res.Success)
	assert.False(t, res.RequiresConfirmation)
	assert.Contains(t, res.Error, "permission denied")
	assert.Contains(t, res.Error, "hired")
	assert.Empty(t, f.WriteCalls())
}

func TestAnnotationSkipsGateInConfirmWritesMode(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "add_candidate_note", map[string]any{
		"candidate_name": "Ada Lovelace",
		"note":           "Great phone screen",
	}, "U1")

	require.True(t, res.Success)
	require.Len(t, f.Calls, 1)
	assert.Equal(t, "AddNote", f.Calls[0].Name)
	assert.Equal(t, "U1", f.Calls[0].Args[2], "note writes carry the requester")
}

func TestConfirmAllGatesAnnotations(t *testing.T) {
	e, f := newExecutor(ModeConfirmAll)

	res := e.Execute(context.Background(), "add_candidate_note", map[string]any{
		"candidate_name": "Ada Lovelace",
		"note":           "hello",
	}, "U1")

	assert.True(t, res.RequiresConfirmation)
	assert.Empty(t, f.WriteCalls())
}

func TestMissingArgumentFailsBeforeATS(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)

	res := e.Execute(context.Background(), "move_candidate_stage", map[string]any{
		"candidate_name": "Ada",
	}, "U1")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "target_stage")
	assert.Empty(t, f.WriteCalls())
}

func TestDownstreamFailureIsNormalized(t *testing.T) {
	e, f := newExecutor(ModeConfirmWrites)
	f.Err = assert.AnError

	res := e.Execute(context.Background(), "get_open_jobs", nil, "U1")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestUnknownToolFails(t *testing.T) {
	e, _ := newExecutor(ModeConfirmWrites)
	res := e.Execute(context.Background(), "launch_rockets", nil, "U1")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool")
}
