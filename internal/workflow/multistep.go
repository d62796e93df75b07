package workflow

import (
	"fmt"
	"sort"
	"strings"
)

// Multi-step variants: sessions that accumulate state across reactions.

var numericActions = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
}

var interviewScheduleVocab = map[string]string{
	"one":              "one",
	"two":              "two",
	"three":            "three",
	"white_check_mark": "confirm",
	"x":                "cancel",
}

// InterviewScheduleState offers up to three slots; a slot must be picked
// before confirm locks it in.
type InterviewScheduleState struct {
	Candidate     string
	ApplicationID string
	StageID       string
	Stage         string
	Slots         []string
	Selected      int // 1-based, 0 = none
}

func (*InterviewScheduleState) Kind() Kind                    { return KindInterviewSchedule }
func (*InterviewScheduleState) Vocabulary() map[string]string { return interviewScheduleVocab }

func (s *InterviewScheduleState) Handle(action, _ string) Result {
	if n, ok := numericActions[action]; ok {
		if n > len(s.Slots) {
			return Result{}
		}
		s.Selected = n
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Slot %d selected: %s. React :white_check_mark: to book it.", n, s.Slots[n-1]),
		}
	}
	switch action {
	case "confirm":
		if s.Selected == 0 {
			return Result{
				Handled: true,
				Message: fmt.Sprintf("Pick a slot first (1-%d), then confirm.", len(s.Slots)),
			}
		}
		slot := s.Slots[s.Selected-1]
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Booking *%s* for %s at %s.", s.Candidate, s.Stage, slot),
			Action: &APIAction{Name: "schedule_interview", Args: map[string]any{
				"application_id": s.ApplicationID,
				"stage_id":       s.StageID,
				"start_time":     slot,
			}},
		}
	case "cancel":
		return Result{Handled: true, Done: true, Message: "Scheduling cancelled."}
	}
	return Result{}
}

var rescheduleVocab = map[string]string{
	"one":      "one",
	"two":      "two",
	"three":    "three",
	"envelope": "notify",
	"x":        "cancel_interview",
}

// RescheduleFlowState moves an existing interview to a proposed slot, or
// cancels it outright.
type RescheduleFlowState struct {
	Candidate     string
	ApplicationID string
	ScheduleID    string
	CurrentTime   string
	Slots         []string
}

func (*RescheduleFlowState) Kind() Kind                    { return KindRescheduleFlow }
func (*RescheduleFlowState) Vocabulary() map[string]string { return rescheduleVocab }

func (s *RescheduleFlowState) Handle(action, _ string) Result {
	if n, ok := numericActions[action]; ok {
		if n > len(s.Slots) {
			return Result{}
		}
		slot := s.Slots[n-1]
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Rescheduling *%s* from %s to %s.", s.Candidate, s.CurrentTime, slot),
			Action: &APIAction{Name: "reschedule_interview", Args: map[string]any{
				"application_id": s.ApplicationID,
				"schedule_id":    s.ScheduleID,
				"reason":         "Rescheduled to " + slot,
			}},
		}
	}
	switch action {
	case "notify":
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Noted. Reach out to *%s* before picking a new slot.", s.Candidate),
		}
	case "cancel_interview":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Cancelling the %s interview for *%s*.", s.CurrentTime, s.Candidate),
			Action: &APIAction{Name: "cancel_interview", Args: map[string]any{
				"schedule_id": s.ScheduleID,
				"reason":      "Cancelled from reschedule flow",
			}},
		}
	}
	return Result{}
}

const (
	offerPhaseApproval = "approval"
	offerPhaseSend     = "send"
)

var offerApprovalVocab = map[string]string{
	"white_check_mark": "approve",
	"speech_balloon":   "comment",
	"x":                "reject",
}

var offerSendVocab = map[string]string{
	"outbox_tray": "send_now",
	"pencil2":     "edit",
	"calendar":    "schedule_send",
	"x":           "reject",
}

// OfferApprovalState is two phases in one session: approval gates entry into
// send, and the reaction vocabulary swaps when the phase flips. Send-phase
// reactions during approval fall outside the active vocabulary and are
// ignored upstream.
type OfferApprovalState struct {
	Candidate     string
	CandidateID   string
	ApplicationID string
	OfferID       string
	Salary        string
	Phase         string // zero value means approval
}

func (*OfferApprovalState) Kind() Kind { return KindOfferApproval }

func (s *OfferApprovalState) Vocabulary() map[string]string {
	if s.Phase == offerPhaseSend {
		return offerSendVocab
	}
	return offerApprovalVocab
}

func (s *OfferApprovalState) Handle(action, _ string) Result {
	switch action {
	case "approve":
		s.Phase = offerPhaseSend
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Offer for *%s* (%s) approved. Send now :outbox_tray:, edit :pencil2:, or schedule :calendar:.", s.Candidate, s.Salary),
			Action:  &APIAction{Name: "approve_offer", Args: map[string]any{"offer_id": s.OfferID}},
		}
	case "comment":
		return Result{
			Handled: true,
			Message: "Leave comments as a note on the candidate, then approve or reject here.",
		}
	case "reject":
		if s.Phase == offerPhaseSend {
			return Result{Handled: true, Done: true, Message: fmt.Sprintf("Approved offer for *%s* will not be sent.", s.Candidate)}
		}
		return Result{Handled: true, Done: true, Message: fmt.Sprintf("Offer approval declined for *%s*.", s.Candidate)}
	case "send_now":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Sending the offer to *%s*.", s.Candidate),
			Action:  &APIAction{Name: "send_offer", Args: map[string]any{"offer_id": s.OfferID}},
		}
	case "edit":
		return Result{
			Handled: true,
			Done:    true,
			Message: "Edit the offer in the ATS, then restart approval when it is ready.",
		}
	case "schedule_send":
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Holding the offer for *%s*; reminder set for tomorrow.", s.Candidate),
			Action: &APIAction{Name: "set_reminder", Args: map[string]any{
				"candidate_id": s.CandidateID,
				"days":         1,
				"note":         "Send approved offer",
			}},
		}
	}
	return Result{}
}

var debriefVocab = map[string]string{
	"thumbsup":      "yes",
	"thumbsdown":    "no",
	"thinking_face": "maybe",
}

// DebriefState collects one vote per roster member. The summary only posts
// once everyone has voted; partial progress echoes who is still pending.
type DebriefState struct {
	Candidate string
	Roster    []string
	Votes     map[string]string
}

func (*DebriefState) Kind() Kind                    { return KindDebrief }
func (*DebriefState) Vocabulary() map[string]string { return debriefVocab }

func (s *DebriefState) Handle(action, userID string) Result {
	// Only roster members vote. The owner may have opened the debrief without
	// being on the panel; their reaction must not skew the tally.
	member := false
	for _, p := range s.Roster {
		if p == userID {
			member = true
			break
		}
	}
	if !member {
		return Result{}
	}

	if s.Votes == nil {
		s.Votes = make(map[string]string)
	}
	if _, voted := s.Votes[userID]; voted {
		return Result{}
	}
	s.Votes[userID] = action

	var waiting []string
	for _, p := range s.Roster {
		if _, ok := s.Votes[p]; !ok {
			waiting = append(waiting, fmt.Sprintf("<@%s>", p))
		}
	}
	if len(waiting) > 0 {
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Vote recorded. Waiting on: %s", strings.Join(waiting, ", ")),
		}
	}

	counts := map[string]int{}
	for _, v := range s.Votes {
		counts[v]++
	}
	return Result{
		Handled: true,
		Done:    true,
		Message: fmt.Sprintf("Debrief complete for *%s*: %d yes, %d no, %d maybe.",
			s.Candidate, counts["yes"], counts["no"], counts["maybe"]),
	}
}

var batchDecisionVocab = map[string]string{
	"one":              "one",
	"two":              "two",
	"three":            "three",
	"four":             "four",
	"five":             "five",
	"white_check_mark": "confirm",
	"x":                "cancel",
}

type BatchItem struct {
	Label         string
	ApplicationID string
}

// BatchDecisionState builds a selection with numeric toggles before a single
// confirm locks in the batch. Confirming nothing gets guidance, not a silent
// empty batch.
type BatchDecisionState struct {
	Action   string // the write applied to every selected item
	Reason   string
	Items    []BatchItem
	Selected map[int]bool
}

func (*BatchDecisionState) Kind() Kind                    { return KindBatchDecision }
func (*BatchDecisionState) Vocabulary() map[string]string { return batchDecisionVocab }

func (s *BatchDecisionState) Handle(action, _ string) Result {
	if s.Selected == nil {
		s.Selected = make(map[int]bool)
	}
	if n, ok := numericActions[action]; ok {
		if n > len(s.Items) {
			return Result{}
		}
		if s.Selected[n] {
			delete(s.Selected, n)
		} else {
			s.Selected[n] = true
		}
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Selected: %s of %d.", s.selectionDisplay(), len(s.Items)),
		}
	}
	switch action {
	case "confirm":
		if len(s.Selected) == 0 {
			return Result{
				Handled: true,
				Message: fmt.Sprintf("Nothing selected. Toggle items with number reactions (1-%d), then confirm.", len(s.Items)),
			}
		}
		var ids []string
		var labels []string
		for _, n := range s.selectionOrder() {
			ids = append(ids, s.Items[n-1].ApplicationID)
			labels = append(labels, s.Items[n-1].Label)
		}
		return Result{
			Handled: true,
			Done:    true,
			Message: fmt.Sprintf("Applying *%s* to: %s.", s.Action, strings.Join(labels, ", ")),
			Action: &APIAction{Name: "batch_" + s.Action, Args: map[string]any{
				"application_ids": ids,
				"reason":          s.Reason,
			}},
		}
	case "cancel":
		return Result{Handled: true, Done: true, Message: "Batch cancelled, nothing applied."}
	}
	return Result{}
}

func (s *BatchDecisionState) selectionOrder() []int {
	order := make([]int, 0, len(s.Selected))
	for n := range s.Selected {
		order = append(order, n)
	}
	sort.Ints(order)
	return order
}

func (s *BatchDecisionState) selectionDisplay() string {
	if len(s.Selected) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(s.Selected))
	for _, n := range s.selectionOrder() {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ", ")
}

var rejectPickVocab = map[string]string{
	"one":   "one",
	"two":   "two",
	"three": "three",
	"four":  "four",
	"x":     "cancel",
}

var rejectSendVocab = map[string]string{
	"envelope":     "send_email",
	"fast_forward": "skip_email",
	"x":            "cancel",
}

// RejectFlowState picks a rejection reason, then decides whether the
// candidate gets an email.
type RejectFlowState struct {
	Candidate     string
	ApplicationID string
	Reasons       []string
	ChosenReason  int // 1-based, 0 = not yet picked
}

func (*RejectFlowState) Kind() Kind { return KindRejectFlow }

func (s *RejectFlowState) Vocabulary() map[string]string {
	if s.ChosenReason == 0 {
		return rejectPickVocab
	}
	return rejectSendVocab
}

func (s *RejectFlowState) Handle(action, _ string) Result {
	if n, ok := numericActions[action]; ok {
		if n > len(s.Reasons) {
			return Result{}
		}
		s.ChosenReason = n
		return Result{
			Handled: true,
			Message: fmt.Sprintf("Reason: %s. Send a rejection email :envelope: or reject quietly :fast_forward:?", s.Reasons[n-1]),
		}
	}
	switch action {
	case "send_email":
		return s.rejectResult(true)
	case "skip_email":
		return s.rejectResult(false)
	case "cancel":
		return Result{Handled: true, Done: true, Message: fmt.Sprintf("*%s* was not rejected.", s.Candidate)}
	}
	return Result{}
}

func (s *RejectFlowState) rejectResult(sendEmail bool) Result {
	suffix := "no email will be sent"
	if sendEmail {
		suffix = "a rejection email will go out"
	}
	return Result{
		Handled: true,
		Done:    true,
		Message: fmt.Sprintf("Rejecting *%s* (%s), %s.", s.Candidate, s.Reasons[s.ChosenReason-1], suffix),
		Action: &APIAction{Name: "reject_candidate", Args: map[string]any{
			"application_id": s.ApplicationID,
			"reason":         s.Reasons[s.ChosenReason-1],
			"send_email":     sendEmail,
		}},
	}
}
