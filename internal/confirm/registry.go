package confirm

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/session"
)

const (
	ReactionApprove = "white_check_mark"
	ReactionDecline = "x"
)

// Op is the replayable payload of a gated write. On approval the executor
// re-runs Action with the exact Args captured at proposal time, it never
// re-derives them from conversation state.
type Op struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
}

// Pending is one write awaiting human sign-off, bound to the Slack message
// carrying the seeded approve/decline reactions.
type Pending struct {
	ID            string
	Kind          string
	Description   string
	CandidateID   string
	ApplicationID string
	Op            Op
	Requester     string
	CreatedAt     time.Time
}

// Outcome of a resolution attempt.
type Outcome int

const (
	// OutcomeIgnored means the reaction did not resolve anything: wrong user,
	// unknown emoji, or no pending confirmation on that message.
	OutcomeIgnored Outcome = iota
	OutcomeApproved
	OutcomeDeclined
)

// Registry holds pending confirmations with a fixed TTL. Expiry is absolute:
// looking at a confirmation does not keep it alive. mu serializes Create and
// Resolve: each Slack event arrives on its own goroutine and deliveries are
// retried, so lookup and removal must happen in one critical section or two
// approvals of the same message both succeed.
type Registry struct {
	mu    sync.Mutex
	store *session.Store[Pending]
	clock session.Clock
	rng   *rand.Rand
}

func NewRegistry(ttl time.Duration, clock session.Clock) *Registry {
	if clock == nil {
		clock = session.RealClock()
	}
	return &Registry{
		store: session.NewStore[Pending](ttl, false, clock),
		clock: clock,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create registers a pending confirmation bound to ref. One confirmation per
// message: Put on the same ref rebinds the index, so the newest wins.
func (r *Registry) Create(kind, description, candidateID, applicationID string, op Op, requester string, ref chat.MessageRef) Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	p := Pending{
		ID:            ulid.MustNew(ulid.Timestamp(now), r.rng).String(),
		Kind:          kind,
		Description:   description,
		CandidateID:   candidateID,
		ApplicationID: applicationID,
		Op:            op,
		Requester:     requester,
		CreatedAt:     now,
	}
	r.store.Put(p.ID, p, ref)
	return p
}

func (r *Registry) Get(id string) (Pending, bool) {
	return r.store.Get(id)
}

func (r *Registry) FindByMessage(ref chat.MessageRef) (Pending, bool) {
	_, p, ok := r.store.GetByMessage(ref)
	return p, ok
}

// Resolve applies a reaction to whatever confirmation is bound to ref. Only
// the original requester may resolve, and only with the approve or decline
// emoji. A resolved confirmation is removed either way; a second reaction on
// the same message is a no-op. Lookup and removal happen under mu, so exactly
// one of any set of concurrent reactions can resolve a given confirmation.
func (r *Registry) Resolve(ref chat.MessageRef, userID, reaction string) (Pending, Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.FindByMessage(ref)
	if !ok {
		return Pending{}, OutcomeIgnored
	}
	if userID != p.Requester {
		return Pending{}, OutcomeIgnored
	}

	switch reaction {
	case ReactionApprove:
		r.store.Delete(p.ID)
		return p, OutcomeApproved
	case ReactionDecline:
		r.store.Delete(p.ID)
		return p, OutcomeDeclined
	default:
		return Pending{}, OutcomeIgnored
	}
}

// Sweep drops expired confirmations.
func (r *Registry) Sweep() int { return r.store.Sweep() }

func (r *Registry) Len() int { return r.store.Len() }
