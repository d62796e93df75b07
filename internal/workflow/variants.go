package workflow

import "fmt"

// Single-shot variants: one reaction resolves the whole session.

var stageMoveVocab = map[string]string{
	"white_check_mark": "advance",
	"hourglass":        "hold",
	"x":                "reject",
}

// StageMoveState advances, holds or rejects one candidate. Display fields are
// formatted at creation time so the handler never refetches.
type StageMoveState struct {
	Candidate     string
	ApplicationID string
	CurrentStage  string
	NextStageID   string
	NextStage     string
}

func (*StageMoveState) Kind() Kind                    { return KindStageMove }
func (*StageMoveState) Vocabulary() map[string]string { return stageMoveVocab }

func (s *StageMoveState) Handle(action, _ string) Result {
	switch action {
	case "advance":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Moving *%s* from %s to *%s*.", s.Candidate, s.CurrentStage, s.NextStage),
			Action: &APIAction{Name: "move_stage", Args: map[string]any{
				"application_id": s.ApplicationID,
				"stage_id":       s.NextStageID,
			}},
		}
	case "hold":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("*%s* stays in %s.", s.Candidate, s.CurrentStage),
		}
	case "reject":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Rejecting *%s*.", s.Candidate),
			Action: &APIAction{Name: "reject_candidate", Args: map[string]any{
				"application_id": s.ApplicationID,
				"reason":         "Not moving forward after review",
			}},
		}
	}
	return Result{}
}

var sourceReviewVocab = map[string]string{
	"white_check_mark": "advance",
	"x":                "reject",
	"zzz":              "snooze",
}

// SourceReviewState is the quick look at a new applicant.
type SourceReviewState struct {
	Candidate     string
	CandidateID   string
	ApplicationID string
	Job           string
	Source        string
	NextStageID   string
	NextStage     string
}

func (*SourceReviewState) Kind() Kind                    { return KindSourceReview }
func (*SourceReviewState) Vocabulary() map[string]string { return sourceReviewVocab }

func (s *SourceReviewState) Handle(action, _ string) Result {
	switch action {
	case "advance":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Advancing *%s* (%s via %s) to *%s*.", s.Candidate, s.Job, s.Source, s.NextStage),
			Action: &APIAction{Name: "move_stage", Args: map[string]any{
				"application_id": s.ApplicationID,
				"stage_id":       s.NextStageID,
			}},
		}
	case "reject":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Rejecting *%s*.", s.Candidate),
			Action: &APIAction{Name: "reject_candidate", Args: map[string]any{
				"application_id": s.ApplicationID,
				"reason":         "Not a fit at application review",
			}},
		}
	case "snooze":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Snoozed *%s*, resurfacing in 3 days.", s.Candidate),
			Action: &APIAction{Name: "set_reminder", Args: map[string]any{
				"candidate_id": s.CandidateID,
				"days":         3,
				"note":         "Snoozed from source review",
			}},
		}
	}
	return Result{}
}

var feedbackNudgeVocab = map[string]string{
	"bell":           "remind",
	"rotating_light": "escalate",
	"x":              "dismiss",
}

// FeedbackNudgeState chases interviewers who owe feedback.
type FeedbackNudgeState struct {
	Candidate    string
	CandidateID  string
	Interviewers []string
}

func (*FeedbackNudgeState) Kind() Kind                    { return KindFeedbackNudge }
func (*FeedbackNudgeState) Vocabulary() map[string]string { return feedbackNudgeVocab }

func (s *FeedbackNudgeState) Handle(action, _ string) Result {
	waiting := joinNames(s.Interviewers)
	switch action {
	case "remind":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Feedback reminder logged for %s on *%s*.", waiting, s.Candidate),
			Action: &APIAction{Name: "add_note", Args: map[string]any{
				"candidate_id": s.CandidateID,
				"note":         "Feedback reminder sent to: " + waiting,
			}},
		}
	case "escalate":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Escalated missing feedback on *%s* to the hiring manager.", s.Candidate),
			Action: &APIAction{Name: "add_note", Args: map[string]any{
				"candidate_id": s.CandidateID,
				"note":         "Missing feedback escalated to hiring manager. Waiting on: " + waiting,
			}},
		}
	case "dismiss":
		return Result{Handled: true, Done: true, Message: "Dismissed."}
	}
	return Result{}
}

var reminderVocab = map[string]string{
	"one":   "in_1_day",
	"two":   "in_3_days",
	"three": "in_1_week",
	"x":     "cancel",
}

// ReminderState schedules a follow-up nudge on a candidate.
type ReminderState struct {
	Candidate   string
	CandidateID string
	Note        string
}

func (*ReminderState) Kind() Kind                    { return KindReminder }
func (*ReminderState) Vocabulary() map[string]string { return reminderVocab }

func (s *ReminderState) Handle(action, _ string) Result {
	days := 0
	label := ""
	switch action {
	case "in_1_day":
		days, label = 1, "tomorrow"
	case "in_3_days":
		days, label = 3, "in 3 days"
	case "in_1_week":
		days, label = 7, "in a week"
	case "cancel":
		return Result{Handled: true, Done: true, Message: "No reminder set."}
	default:
		return Result{}
	}
	return Result{
		Handled: true,
		Done:    true,
		Message: fmt.Sprintf("Reminder set for *%s* %s.", s.Candidate, label),
		Action: &APIAction{Name: "set_reminder", Args: map[string]any{
			"candidate_id": s.CandidateID,
			"days":         days,
			"note":         s.Note,
		}},
	}
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
