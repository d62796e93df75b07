package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/stagehandhq/stagehand/internal/audit"
	"github.com/stagehandhq/stagehand/internal/workflow"
)

// executeAPIAction performs the side effect a workflow handed back. The
// reaction that produced the action already was the human approval, so these
// run directly against the ATS.
func (b *Bot) executeAPIAction(ctx context.Context, userID string, a *workflow.APIAction) error {
	err := b.runAPIAction(ctx, userID, a)

	ev := audit.Event{Type: audit.TypeWriteExecuted, User: userID, Kind: a.Name}
	if err != nil {
		ev.Error = err.Error()
	}
	b.auditEvent(ev)
	return err
}

func (b *Bot) runAPIAction(ctx context.Context, userID string, a *workflow.APIAction) error {
	arg := func(key string) string {
		v, _ := a.Args[key].(string)
		return v
	}

	switch a.Name {
	case "move_stage":
		return b.ats.MoveStage(ctx, arg("application_id"), arg("stage_id"))
	case "reject_candidate":
		return b.ats.RejectCandidate(ctx, arg("application_id"), arg("reason"))
	case "schedule_interview":
		return b.ats.ScheduleInterview(ctx, arg("application_id"), arg("stage_id"), arg("start_time"))
	case "reschedule_interview":
		return b.ats.RescheduleInterview(ctx, arg("application_id"), arg("schedule_id"), arg("reason"))
	case "cancel_interview":
		return b.ats.CancelInterview(ctx, arg("schedule_id"), arg("reason"))
	case "approve_offer":
		return b.ats.ApproveOffer(ctx, arg("offer_id"))
	case "send_offer":
		return b.ats.SendOffer(ctx, arg("offer_id"))
	case "add_note":
		return b.ats.AddNote(ctx, arg("candidate_id"), arg("note"), userID)
	case "set_reminder":
		days := 3
		if d, ok := a.Args["days"].(int); ok {
			days = d
		}
		remindAt := time.Now().AddDate(0, 0, days).Format(time.RFC3339)
		return b.ats.SetReminder(ctx, arg("candidate_id"), arg("note"), remindAt)
	case "batch_reject_candidate":
		ids, _ := a.Args["application_ids"].([]string)
		if err := b.guard.CheckBatch(len(ids)); err != nil {
			return err
		}
		for _, id := range ids {
			if err := b.ats.RejectCandidate(ctx, id, arg("reason")); err != nil {
				return fmt.Errorf("rejecting %s: %w", id, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown workflow action %q", a.Name)
}
