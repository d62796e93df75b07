package confirm

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehandhq/stagehand/internal/chat"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRegistry(t *testing.T) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewRegistry(10*time.Minute, clock), clock
}

func TestResolveApprove(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.001"}

	created := reg.Create("add_note", "Add note to Ada", "cand-1", "app-1",
		Op{Action: "add_note", Args: map[string]any{"note": "ping"}}, "U1", ref)

	p, outcome := reg.Resolve(ref, "U1", ReactionApprove)
	require.Equal(t, OutcomeApproved, outcome)
	assert.Equal(t, created.ID, p.ID)
	assert.Equal(t, "add_note", p.Op.Action)

	// Resolution removes the record; a second reaction is a no-op.
	_, outcome = reg.Resolve(ref, "U1", ReactionApprove)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestResolveDecline(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.002"}
	reg.Create("move_stage", "Move Ada to Onsite", "cand-1", "app-1", Op{Action: "move_stage"}, "U1", ref)

	_, outcome := reg.Resolve(ref, "U1", ReactionDecline)
	assert.Equal(t, OutcomeDeclined, outcome)
	assert.Equal(t, 0, reg.Len())
}

func TestResolveWrongUserIgnored(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.003"}
	reg.Create("add_note", "note", "cand-1", "", Op{Action: "add_note"}, "U1", ref)

	_, outcome := reg.Resolve(ref, "U2", ReactionApprove)
	assert.Equal(t, OutcomeIgnored, outcome)

	// Still pending for the requester.
	_, ok := reg.FindByMessage(ref)
	assert.True(t, ok)
}

func TestResolveUnknownReactionIgnored(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.004"}
	reg.Create("add_note", "note", "cand-1", "", Op{Action: "add_note"}, "U1", ref)

	_, outcome := reg.Resolve(ref, "U1", "thumbsup")
	assert.Equal(t, OutcomeIgnored, outcome)
	_, ok := reg.FindByMessage(ref)
	assert.True(t, ok)
}

func TestExpiryIsAbsolute(t *testing.T) {
	reg, clock := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.005"}
	reg.Create("add_note", "note", "cand-1", "", Op{Action: "add_note"}, "U1", ref)

	// Reading does not extend the 10 minute window.
	clock.Advance(9 * time.Minute)
	_, ok := reg.FindByMessage(ref)
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = reg.FindByMessage(ref)
	assert.False(t, ok)

	// A late reaction after expiry resolves nothing.
	_, outcome := reg.Resolve(ref, "U1", ReactionApprove)
	assert.Equal(t, OutcomeIgnored, outcome)
}

// Slack retries event deliveries, so the same approve reaction can arrive on
// several goroutines at once. Only one of them may win; the rest see the
// confirmation already gone.
func TestConcurrentResolveApprovesOnce(t *testing.T) {
	const workers = 16

	for iter := 0; iter < 200; iter++ {
		reg, _ := newTestRegistry(t)
		ref := chat.MessageRef{Channel: "C1", Timestamp: "1.100"}
		reg.Create("move_stage", "Move Ada to Onsite", "cand-1", "app-1", Op{Action: "move_stage"}, "U1", ref)

		var approved atomic.Int32
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, outcome := reg.Resolve(ref, "U1", ReactionApprove); outcome == OutcomeApproved {
					approved.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.Equal(t, int32(1), approved.Load())
		assert.Equal(t, 0, reg.Len())
	}
}

func TestNewestConfirmationWinsPerMessage(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ref := chat.MessageRef{Channel: "C1", Timestamp: "1.006"}

	reg.Create("add_note", "first", "cand-1", "", Op{Action: "add_note"}, "U1", ref)
	second := reg.Create("move_stage", "second", "cand-2", "app-2", Op{Action: "move_stage"}, "U1", ref)

	p, ok := reg.FindByMessage(ref)
	require.True(t, ok)
	assert.Equal(t, second.ID, p.ID)
}
