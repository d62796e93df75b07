// Package bot wires inbound chat events to the agent loop, the confirmation
// gate, and the triage and workflow state machines.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stagehandhq/stagehand/internal/agent"
	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/audit"
	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/confirm"
	"github.com/stagehandhq/stagehand/internal/session"
	"github.com/stagehandhq/stagehand/internal/tool"
	"github.com/stagehandhq/stagehand/internal/triage"
	"github.com/stagehandhq/stagehand/internal/workflow"
)

var mentionRE = regexp.MustCompile(`<@[A-Z0-9]+>`)

// Bot is the event handler behind the chat gateway. One inbound event is
// processed to completion before the next; the registries do their own
// locking underneath.
type Bot struct {
	agent     *agent.Agent
	exec      *tool.Executor
	guard     *tool.Guard
	ats       ats.Service
	gateway   chat.Gateway
	confirms  *confirm.Registry
	triage    *triage.Manager
	workflows *workflow.Manager
	audit     *audit.Log
	history   *session.Store[[]agent.Turn]
	cron      *cron.Cron
}

type Params struct {
	Agent     *agent.Agent
	Executor  *tool.Executor
	Guard     *tool.Guard
	ATS       ats.Service
	Gateway   chat.Gateway
	Confirms  *confirm.Registry
	Triage    *triage.Manager
	Workflows *workflow.Manager
	Audit     *audit.Log
	Clock     session.Clock
}

func New(p Params) *Bot {
	return &Bot{
		agent:     p.Agent,
		exec:      p.Executor,
		guard:     p.Guard,
		ats:       p.ATS,
		gateway:   p.Gateway,
		confirms:  p.Confirms,
		triage:    p.Triage,
		workflows: p.Workflows,
		audit:     p.Audit,
		history:   session.NewStore[[]agent.Turn](30*time.Minute, true, p.Clock),
	}
}

// SetGateway attaches the chat gateway. The gateway needs the bot as its
// handler, so the two are wired in this order at startup.
func (b *Bot) SetGateway(gw chat.Gateway) {
	b.gateway = gw
}

// StartSweeper runs the registry sweeps on the configured cron schedule.
func (b *Bot) StartSweeper(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n := b.confirms.Sweep() + b.triage.Sweep() + b.workflows.Sweep() + b.history.Sweep()
		if n > 0 {
			slog.Debug("Swept expired sessions", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	c.Start()
	b.cron = c
	return nil
}

func (b *Bot) StopSweeper() {
	if b.cron != nil {
		b.cron.Stop()
	}
}

// HandleMessage routes an app mention: a recognized command starts a triage
// or workflow session, anything else goes through the agent loop.
func (b *Bot) HandleMessage(ctx context.Context, ev chat.MessageEvent) {
	text := strings.TrimSpace(mentionRE.ReplaceAllString(ev.Text, ""))
	if text == "" {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Ask me about the pipeline, or try `triage <job>`.")
		return
	}

	if handled := b.dispatchCommand(ctx, ev, text); handled {
		return
	}
	b.converse(ctx, ev, text)
}

func (b *Bot) converse(ctx context.Context, ev chat.MessageEvent, text string) {
	threadKey := ev.Ref.Channel + "/" + ev.ThreadTS
	prior, _ := b.history.Get(threadKey)

	out, turns, err := b.agent.Process(ctx, text, ev.UserID, prior)
	if err != nil {
		slog.Error("Agent processing failed", "error", err)
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Something went wrong talking to the model; please try again.")
		return
	}
	b.history.Put(threadKey, turns, chat.MessageRef{})

	if out.Text != "" {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, out.Text)
	}
	for _, p := range out.Pending {
		b.postConfirmation(ctx, ev, p)
	}
}

// postConfirmation parks one gated write: its own message, a registry entry
// bound to that message, and seeded approve/decline reactions.
func (b *Bot) postConfirmation(ctx context.Context, ev chat.MessageEvent, p tool.PendingOp) {
	text := fmt.Sprintf(":warning: *Confirmation required*: %s\nReact :white_check_mark: to approve or :x: to decline. Expires in 10 minutes.", p.Description)
	ref, err := b.gateway.PostMessage(ctx, ev.Ref.Channel, ev.ThreadTS, text)
	if err != nil {
		slog.Error("Failed to post confirmation message", "error", err)
		return
	}

	b.confirms.Create(p.Kind, p.Description, p.CandidateID, p.ApplicationID,
		confirm.Op{Action: p.Action, Args: p.Args}, ev.UserID, ref)
	chat.SeedReactions(ctx, b.gateway, ref, confirm.ReactionApprove, confirm.ReactionDecline)

	b.auditEvent(audit.Event{
		Type:        audit.TypeConfirmationCreated,
		User:        ev.UserID,
		Kind:        p.Kind,
		Description: p.Description,
	})
}

// HandleReaction dispatches by message identity: confirmations first, then
// triage, then workflows. Anything unmatched is a silent no-op.
func (b *Bot) HandleReaction(ctx context.Context, ev chat.ReactionEvent) {
	if _, ok := b.confirms.FindByMessage(ev.Ref); ok {
		b.resolveConfirmation(ctx, ev)
		return
	}
	if b.handleTriageReaction(ctx, ev) {
		return
	}
	b.handleWorkflowReaction(ctx, ev)
}

func (b *Bot) resolveConfirmation(ctx context.Context, ev chat.ReactionEvent) {
	p, outcome := b.confirms.Resolve(ev.Ref, ev.UserID, ev.Reaction)
	switch outcome {
	case confirm.OutcomeApproved:
		b.auditEvent(audit.Event{
			Type: audit.TypeConfirmationResolved, User: ev.UserID,
			Kind: p.Kind, Description: p.Description, Outcome: "approved",
		})
		res := b.exec.ExecuteConfirmed(ctx, p.Op.Action, p.Op.Args)
		if res.Success {
			b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, fmt.Sprintf(":white_check_mark: Done: %s", p.Description))
			b.auditEvent(audit.Event{Type: audit.TypeWriteExecuted, User: ev.UserID, Kind: p.Kind, Description: p.Description})
		} else {
			b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, fmt.Sprintf(":x: That failed: %s", res.Error))
			b.auditEvent(audit.Event{Type: audit.TypeWriteExecuted, User: ev.UserID, Kind: p.Kind, Description: p.Description, Error: res.Error})
		}
	case confirm.OutcomeDeclined:
		b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, "Declined, nothing was changed.")
		b.auditEvent(audit.Event{
			Type: audit.TypeConfirmationResolved, User: ev.UserID,
			Kind: p.Kind, Description: p.Description, Outcome: "declined",
		})
	}
}

func (b *Bot) handleTriageReaction(ctx context.Context, ev chat.ReactionEvent) bool {
	owner, _, ok := b.triage.FindByMessage(ev.Ref)
	if !ok {
		return false
	}
	if ev.UserID != owner {
		return true // someone else's reaction on a triage card stays silent
	}
	decision, ok := triage.DecisionForReaction(ev.Reaction)
	if !ok {
		return true
	}

	res, ok := b.triage.Record(owner, decision)
	if !ok {
		return true
	}
	if res.Complete {
		b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, triageSummary(res.Decisions))
		return true
	}

	ref, err := b.gateway.PostMessage(ctx, ev.Ref.Channel, ev.Ref.Timestamp,
		triageCard(*res.Next, res.Progress))
	if err != nil {
		slog.Error("Failed to post triage card", "error", err)
		return true
	}
	b.triage.Rebind(owner, ref)
	chat.SeedReactions(ctx, b.gateway, ref, triage.Reactions()...)
	return true
}

func (b *Bot) handleWorkflowReaction(ctx context.Context, ev chat.ReactionEvent) {
	res := b.workflows.HandleReaction(ev.Ref, ev.UserID, ev.Reaction)
	if !res.Handled {
		return
	}
	if res.Action != nil {
		if err := b.executeAPIAction(ctx, ev.UserID, res.Action); err != nil {
			b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, fmt.Sprintf(":x: That failed: %v", err))
			return
		}
	}
	if res.Message != "" {
		b.post(ctx, ev.Ref.Channel, ev.Ref.Timestamp, res.Message)
	}
}

func (b *Bot) post(ctx context.Context, channel, threadTS, text string) {
	if _, err := b.gateway.PostMessage(ctx, channel, threadTS, text); err != nil {
		slog.Error("Failed to post message", "channel", channel, "error", err)
	}
}

func (b *Bot) auditEvent(ev audit.Event) {
	if b.audit == nil {
		return
	}
	if err := b.audit.Append(ev); err != nil {
		slog.Warn("Audit append failed", "error", err)
	}
}

func triageCard(c ats.CandidateHit, p triage.Progress) string {
	return fmt.Sprintf("*%s* (%s)\n%s, currently in %s\n[%d/%d] :white_check_mark: advance  :x: reject  :fast_forward: skip",
		c.Name, c.Email, c.Job, c.Stage, p.Current, p.Total)
}

func triageSummary(decisions []triage.Recorded) string {
	counts := map[triage.Decision]int{}
	var lines []string
	for _, d := range decisions {
		counts[d.Decision]++
		lines = append(lines, fmt.Sprintf("• %s: %s", d.Name, d.Decision))
	}
	return fmt.Sprintf("Triage complete: %d advance, %d reject, %d skip. Decisions are advisory; nothing was changed in the ATS.\n%s",
		counts[triage.DecisionAdvance], counts[triage.DecisionReject], counts[triage.DecisionSkip],
		strings.Join(lines, "\n"))
}
