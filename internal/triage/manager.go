package triage

import (
	"time"

	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/errors"
	"github.com/stagehandhq/stagehand/internal/session"
)

// Decision is the operator's call on one candidate. Triage is review-only:
// recording a decision never touches the ATS, the summary is advisory.
type Decision string

const (
	DecisionAdvance Decision = "advance"
	DecisionReject  Decision = "reject"
	DecisionSkip    Decision = "skip"
)

var reactionDecisions = map[string]Decision{
	"white_check_mark": DecisionAdvance,
	"x":                DecisionReject,
	"fast_forward":     DecisionSkip,
}

// DecisionForReaction maps a reaction emoji to its triage decision. Unknown
// reactions are not decisions.
func DecisionForReaction(name string) (Decision, bool) {
	d, ok := reactionDecisions[name]
	return d, ok
}

// Reactions returns the emoji seeded on each triage card, in display order.
func Reactions() []string {
	return []string{"white_check_mark", "x", "fast_forward"}
}

type Recorded struct {
	CandidateID string
	Name        string
	Decision    Decision
}

type Progress struct {
	Current int
	Total   int
}

// Session walks a cursor through an immutable snapshot of candidates taken at
// start time. New applications arriving mid-review do not appear.
type Session struct {
	Owner      string
	Candidates []ats.CandidateHit
	Cursor     int
	Decisions  []Recorded
	CreatedAt  time.Time
}

func (s Session) Undecided() int { return len(s.Candidates) - len(s.Decisions) }

// Result of recording one decision.
type Result struct {
	Recorded  Recorded
	Complete  bool
	Next      *ats.CandidateHit
	Progress  Progress
	Decisions []Recorded
}

// Manager keeps at most one triage session per user, with sliding expiry
// extended on every recorded decision.
type Manager struct {
	store *session.Store[Session]
	clock session.Clock
}

func NewManager(ttl time.Duration, clock session.Clock) *Manager {
	if clock == nil {
		clock = session.RealClock()
	}
	return &Manager{
		store: session.NewStore[Session](ttl, true, clock),
		clock: clock,
	}
}

// Start opens a session over candidates, bound to the message carrying the
// first card. Returns how many undecided candidates a replaced session still
// had, so in-flight work is never discarded silently. An empty list is a
// caller error, no session is created.
func (m *Manager) Start(userID string, candidates []ats.CandidateHit, ref chat.MessageRef) (Session, int, error) {
	if len(candidates) == 0 {
		return Session{}, 0, errors.InvalidInput("nothing to review")
	}

	discarded := 0
	if old, ok := m.store.Get(userID); ok {
		discarded = old.Undecided()
	}

	snapshot := make([]ats.CandidateHit, len(candidates))
	copy(snapshot, candidates)
	s := Session{
		Owner:      userID,
		Candidates: snapshot,
		CreatedAt:  m.clock.Now(),
	}
	m.store.Put(userID, s, ref)
	return s, discarded, nil
}

func (m *Manager) Get(userID string) (Session, bool) {
	return m.store.Get(userID)
}

// FindByMessage resolves a reaction's message to the session it belongs to.
func (m *Manager) FindByMessage(ref chat.MessageRef) (string, Session, bool) {
	return m.store.GetByMessage(ref)
}

// Current returns the candidate under the cursor and the session's progress.
func (m *Manager) Current(userID string) (ats.CandidateHit, Progress, bool) {
	s, ok := m.store.Get(userID)
	if !ok || s.Cursor >= len(s.Candidates) {
		return ats.CandidateHit{}, Progress{}, false
	}
	return s.Candidates[s.Cursor], Progress{Current: s.Cursor + 1, Total: len(s.Candidates)}, true
}

// Record applies a decision to the candidate under the cursor and advances.
// When the cursor exhausts the list the session is destroyed and the full
// decision list is returned as the summary.
func (m *Manager) Record(userID string, d Decision) (Result, bool) {
	var res Result
	ok := m.store.Update(userID, func(s *Session) {
		if s.Cursor >= len(s.Candidates) {
			return
		}
		cand := s.Candidates[s.Cursor]
		rec := Recorded{CandidateID: cand.CandidateID, Name: cand.Name, Decision: d}
		s.Decisions = append(s.Decisions, rec)
		s.Cursor++

		res.Recorded = rec
		res.Progress = Progress{Current: s.Cursor + 1, Total: len(s.Candidates)}
		if s.Cursor < len(s.Candidates) {
			next := s.Candidates[s.Cursor]
			res.Next = &next
		} else {
			res.Complete = true
			res.Progress.Current = len(s.Candidates)
			res.Decisions = append([]Recorded(nil), s.Decisions...)
		}
	})
	if !ok {
		return Result{}, false
	}
	if res.Complete {
		m.store.Delete(userID)
	}
	return res, true
}

// Rebind follows the session to the newly posted card so the next reaction
// lands on the right message.
func (m *Manager) Rebind(userID string, ref chat.MessageRef) bool {
	return m.store.Rebind(userID, ref)
}

func (m *Manager) Sweep() int { return m.store.Sweep() }

func (m *Manager) Len() int { return m.store.Len() }
