package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/chat"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewManager(30*time.Minute, clock), clock
}

func ref(ts string) chat.MessageRef {
	return chat.MessageRef{Channel: "C1", Timestamp: ts}
}

func TestStageMoveAdvance(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &StageMoveState{
		Candidate:     "Ada Lovelace",
		ApplicationID: "app-1",
		CurrentStage:  "Phone Screen",
		NextStageID:   "stage-2",
		NextStage:     "Onsite",
	}, ref("1"))

	res := m.HandleReaction(ref("1"), "U1", "white_check_mark")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "move_stage", res.Action.Name)
	assert.Equal(t, "stage-2", res.Action.Args["stage_id"])

	// Done sessions are gone.
	_, ok := m.Get("U1")
	assert.False(t, ok)
}

func TestUnknownReactionIsSilent(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &StageMoveState{Candidate: "Ada", ApplicationID: "app-1"}, ref("1"))

	res := m.HandleReaction(ref("1"), "U1", "eyes")
	assert.False(t, res.Handled)
	assert.Empty(t, res.Message)

	_, ok := m.Get("U1")
	assert.True(t, ok, "a no-op reaction must not consume the session")
}

func TestUnauthorizedUserIsSilent(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &StageMoveState{Candidate: "Ada", ApplicationID: "app-1"}, ref("1"))

	res := m.HandleReaction(ref("1"), "U2", "white_check_mark")
	assert.False(t, res.Handled)
}

func TestReplacementReturnsOldSession(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &StageMoveState{Candidate: "Ada", ApplicationID: "app-1"}, ref("1"))
	_, replaced := m.Start("U1", &ReminderState{Candidate: "Grace", CandidateID: "cand-2"}, ref("2"))

	require.NotNil(t, replaced)
	assert.Equal(t, KindStageMove, replaced.State.Kind())

	// Only the new message resolves.
	_, ok := m.FindByMessage(ref("1"))
	assert.False(t, ok)
	_, ok = m.FindByMessage(ref("2"))
	assert.True(t, ok)
}

func TestOfferApprovalPhaseGating(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &OfferApprovalState{
		Candidate:     "Ada Lovelace",
		CandidateID:   "cand-1",
		ApplicationID: "app-1",
		OfferID:       "offer-1",
		Salary:        "$185,000",
	}, ref("1"), WithApprover("U9"))

	// Send-phase reactions mean nothing during approval.
	res := m.HandleReaction(ref("1"), "U1", "outbox_tray")
	assert.False(t, res.Handled)

	// The named approver may approve, flipping the phase.
	res = m.HandleReaction(ref("1"), "U9", "white_check_mark")
	require.True(t, res.Handled)
	assert.False(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "approve_offer", res.Action.Name)

	// Approval-phase vocabulary no longer applies.
	res = m.HandleReaction(ref("1"), "U1", "speech_balloon")
	assert.False(t, res.Handled)

	res = m.HandleReaction(ref("1"), "U1", "outbox_tray")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "send_offer", res.Action.Name)
}

func TestOfferApprovalRejectTerminates(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &OfferApprovalState{Candidate: "Ada", OfferID: "offer-1"}, ref("1"))

	res := m.HandleReaction(ref("1"), "U1", "x")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	assert.Nil(t, res.Action)
}

func TestBatchDecisionToggleAndConfirm(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &BatchDecisionState{
		Action: "reject_candidate",
		Reason: "Position filled",
		Items: []BatchItem{
			{Label: "Ada", ApplicationID: "app-1"},
			{Label: "Grace", ApplicationID: "app-2"},
			{Label: "Katherine", ApplicationID: "app-3"},
		},
	}, ref("1"))

	// Empty confirm is guidance, not a batch.
	res := m.HandleReaction(ref("1"), "U1", "white_check_mark")
	require.True(t, res.Handled)
	assert.False(t, res.Done)
	assert.Contains(t, res.Message, "Nothing selected")

	m.HandleReaction(ref("1"), "U1", "one")
	m.HandleReaction(ref("1"), "U1", "three")
	// Toggling off removes from the selection.
	m.HandleReaction(ref("1"), "U1", "one")

	res = m.HandleReaction(ref("1"), "U1", "white_check_mark")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "batch_reject_candidate", res.Action.Name)
	assert.Equal(t, []string{"app-3"}, res.Action.Args["application_ids"])
}

func TestBatchDecisionOutOfRangeNumberIgnored(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &BatchDecisionState{
		Action: "reject_candidate",
		Items:  []BatchItem{{Label: "Ada", ApplicationID: "app-1"}},
	}, ref("1"))

	res := m.HandleReaction(ref("1"), "U1", "four")
	assert.False(t, res.Handled)
}

func TestDebriefWaitsForFullRoster(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &DebriefState{
		Candidate: "Ada Lovelace",
		Roster:    []string{"U1", "U2", "U3"},
	}, ref("1"), WithRoster([]string{"U1", "U2", "U3"}))

	res := m.HandleReaction(ref("1"), "U2", "thumbsup")
	require.True(t, res.Handled)
	assert.False(t, res.Done)
	assert.Contains(t, res.Message, "Waiting on")
	assert.Contains(t, res.Message, "<@U3>")

	// One vote per participant.
	res = m.HandleReaction(ref("1"), "U2", "thumbsdown")
	assert.False(t, res.Handled)

	m.HandleReaction(ref("1"), "U1", "thumbsup")
	res = m.HandleReaction(ref("1"), "U3", "thinking_face")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	assert.Contains(t, res.Message, "2 yes, 0 no, 1 maybe")
}

func TestDebriefOwnerOutsideRosterCannotVote(t *testing.T) {
	m, _ := newTestManager()
	// U1 opened the debrief but is not on the panel.
	m.Start("U1", &DebriefState{
		Candidate: "Ada Lovelace",
		Roster:    []string{"U2", "U3"},
	}, ref("1"), WithRoster([]string{"U2", "U3"}))

	res := m.HandleReaction(ref("1"), "U1", "thumbsup")
	assert.False(t, res.Handled, "owner outside the roster must not be counted")

	m.HandleReaction(ref("1"), "U2", "thumbsup")
	res = m.HandleReaction(ref("1"), "U3", "thumbsdown")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	assert.Contains(t, res.Message, "1 yes, 1 no, 0 maybe")
}

func TestInterviewScheduleRequiresSlotBeforeConfirm(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &InterviewScheduleState{
		Candidate:     "Ada",
		ApplicationID: "app-1",
		StageID:       "stage-2",
		Stage:         "Onsite",
		Slots:         []string{"Tue 10:00", "Wed 14:00"},
	}, ref("1"))

	res := m.HandleReaction(ref("1"), "U1", "white_check_mark")
	require.True(t, res.Handled)
	assert.False(t, res.Done)
	assert.Contains(t, res.Message, "Pick a slot")

	m.HandleReaction(ref("1"), "U1", "two")
	res = m.HandleReaction(ref("1"), "U1", "white_check_mark")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "schedule_interview", res.Action.Name)
	assert.Equal(t, "Wed 14:00", res.Action.Args["start_time"])
}

func TestRejectFlowTwoSteps(t *testing.T) {
	m, _ := newTestManager()
	m.Start("U1", &RejectFlowState{
		Candidate:     "Ada",
		ApplicationID: "app-1",
		Reasons:       []string{"Not a fit", "Position filled", "Withdrew", "Other"},
	}, ref("1"))

	// Send-phase reactions are not live until a reason is picked.
	res := m.HandleReaction(ref("1"), "U1", "envelope")
	assert.False(t, res.Handled)

	res = m.HandleReaction(ref("1"), "U1", "two")
	require.True(t, res.Handled)
	assert.False(t, res.Done)

	res = m.HandleReaction(ref("1"), "U1", "envelope")
	require.True(t, res.Handled)
	assert.True(t, res.Done)
	require.NotNil(t, res.Action)
	assert.Equal(t, "reject_candidate", res.Action.Name)
	assert.Equal(t, "Position filled", res.Action.Args["reason"])
	assert.Equal(t, true, res.Action.Args["send_email"])
}

func TestExpiredSessionIgnoresReactions(t *testing.T) {
	m, clock := newTestManager()
	m.Start("U1", &StageMoveState{Candidate: "Ada", ApplicationID: "app-1"}, ref("1"))

	clock.Advance(31 * time.Minute)

	// Expired but not yet swept still reads as not-found.
	res := m.HandleReaction(ref("1"), "U1", "white_check_mark")
	assert.False(t, res.Handled)
	_, ok := m.Get("U1")
	assert.False(t, ok)
}
