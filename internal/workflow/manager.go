package workflow

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/session"
)

// Kind tags a workflow variant.
type Kind string

const (
	KindStageMove         Kind = "stage_move"
	KindSourceReview      Kind = "source_review"
	KindInterviewSchedule Kind = "interview_schedule"
	KindRescheduleFlow    Kind = "reschedule_flow"
	KindOfferApproval     Kind = "offer_approval"
	KindDebrief           Kind = "debrief"
	KindBatchDecision     Kind = "batch_decision"
	KindRejectFlow        Kind = "reject_flow"
	KindFeedbackNudge     Kind = "feedback_nudge"
	KindReminder          Kind = "reminder"
)

// APIAction is a side-effecting operation the caller executes against the
// ATS. Workflows never call the ATS themselves, they only describe the write.
type APIAction struct {
	Name string
	Args map[string]any
}

// Result of applying one reaction to a session. Handled=false means the
// reaction meant nothing here and the caller should stay silent.
type Result struct {
	Handled bool
	Message string
	Action  *APIAction
	Done    bool
}

// State is the variant payload: its reaction vocabulary (which may change
// with in-session phase) and its transition function. Adding a variant means
// a new state struct plus a vocabulary table, the manager does not change.
type State interface {
	Kind() Kind
	Vocabulary() map[string]string
	Handle(action, userID string) Result
}

// Session binds a variant state to its owner and message. Approver and Roster
// widen who may react: offer approval names a distinct approver, debrief
// tracks a roster of voters.
type Session struct {
	ID        string
	Owner     string
	Approver  string
	Roster    []string
	State     State
	CreatedAt time.Time
}

func (s Session) authorized(userID string) bool {
	if userID == s.Owner || (s.Approver != "" && userID == s.Approver) {
		return true
	}
	for _, p := range s.Roster {
		if p == userID {
			return true
		}
	}
	return false
}

// Manager holds at most one live workflow session per owner, with sliding
// expiry and a message index for reaction lookup.
type Manager struct {
	store *session.Store[Session]
	clock session.Clock
	rng   *rand.Rand
}

func NewManager(ttl time.Duration, clock session.Clock) *Manager {
	if clock == nil {
		clock = session.RealClock()
	}
	return &Manager{
		store: session.NewStore[Session](ttl, true, clock),
		clock: clock,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start opens a session around state, bound to ref. If the owner already has
// a live session it is discarded and returned so the caller can report the
// dropped work.
func (m *Manager) Start(owner string, state State, ref chat.MessageRef, opts ...Option) (Session, *Session) {
	var replaced *Session
	if old, ok := m.store.Get(owner); ok {
		replaced = &old
	}

	now := m.clock.Now()
	s := Session{
		ID:        ulid.MustNew(ulid.Timestamp(now), m.rng).String(),
		Owner:     owner,
		State:     state,
		CreatedAt: now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	m.store.Put(owner, s, ref)
	return s, replaced
}

type Option func(*Session)

func WithApprover(userID string) Option {
	return func(s *Session) { s.Approver = userID }
}

func WithRoster(userIDs []string) Option {
	return func(s *Session) { s.Roster = userIDs }
}

func (m *Manager) Get(owner string) (Session, bool) {
	return m.store.Get(owner)
}

func (m *Manager) FindByMessage(ref chat.MessageRef) (Session, bool) {
	_, s, ok := m.store.GetByMessage(ref)
	return s, ok
}

// HandleReaction resolves ref to a session, checks the actor, maps the
// reaction through the variant's current vocabulary and applies it. Every
// miss (no session, wrong user, unknown reaction) is a silent no-op.
func (m *Manager) HandleReaction(ref chat.MessageRef, userID, reaction string) Result {
	owner, s, ok := m.store.GetByMessage(ref)
	if !ok {
		return Result{}
	}
	if !s.authorized(userID) {
		return Result{}
	}
	action, ok := s.State.Vocabulary()[reaction]
	if !ok {
		return Result{}
	}

	var res Result
	updated := m.store.Update(owner, func(sess *Session) {
		res = sess.State.Handle(action, userID)
	})
	if !updated {
		return Result{}
	}
	if res.Done {
		m.store.Delete(owner)
	}
	return res
}

// Rebind follows the owner's session to a newly posted message.
func (m *Manager) Rebind(owner string, ref chat.MessageRef) bool {
	return m.store.Rebind(owner, ref)
}

func (m *Manager) Delete(owner string) { m.store.Delete(owner) }

func (m *Manager) Sweep() int { return m.store.Sweep() }

func (m *Manager) Len() int { return m.store.Len() }
