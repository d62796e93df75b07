package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/chat"
	"github.com/stagehandhq/stagehand/internal/triage"
	"github.com/stagehandhq/stagehand/internal/workflow"
)

var userIDRE = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// Seeded reaction sets per variant, in display order.
var (
	stageMoveSeed     = []string{"white_check_mark", "hourglass", "x"}
	sourceReviewSeed  = []string{"white_check_mark", "x", "zzz"}
	scheduleSeed      = []string{"one", "two", "three", "white_check_mark", "x"}
	rescheduleSeed    = []string{"one", "two", "three", "envelope", "x"}
	offerApprovalSeed = []string{"white_check_mark", "speech_balloon", "x"}
	debriefSeed       = []string{"thumbsup", "thumbsdown", "thinking_face"}
	rejectFlowSeed    = []string{"one", "two", "three", "four", "x"}
	nudgeSeed         = []string{"bell", "rotating_light", "x"}
	reminderSeed      = []string{"one", "two", "three", "x"}
)

var rejectionReasons = []string{
	"Not a fit for the role",
	"Position filled",
	"Candidate withdrew",
	"Compensation mismatch",
}

// dispatchCommand recognizes session-starting commands. Unrecognized text
// falls through to the agent.
func (b *Bot) dispatchCommand(ctx context.Context, ev chat.MessageEvent, text string) bool {
	fields := strings.Fields(text)
	verb := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	rest = strings.TrimSpace(userIDRE.ReplaceAllString(rest, ""))

	switch verb {
	case "triage":
		b.startTriage(ctx, ev, rest)
	case "move":
		b.startStageMove(ctx, ev, rest)
	case "review":
		if strings.EqualFold(rest, "new") {
			b.startSourceReview(ctx, ev)
			return true
		}
		return false
	case "schedule":
		b.startInterviewSchedule(ctx, ev, rest)
	case "reschedule":
		b.startReschedule(ctx, ev, rest)
	case "offer":
		b.startOfferApproval(ctx, ev, rest)
	case "debrief":
		b.startDebrief(ctx, ev, rest)
	case "batch":
		parts := strings.Fields(rest)
		if len(parts) < 2 || !strings.EqualFold(parts[0], "reject") {
			return false
		}
		b.startBatchReject(ctx, ev, strings.Join(parts[1:], " "))
	case "reject":
		b.startRejectFlow(ctx, ev, rest)
	case "nudge":
		b.startFeedbackNudge(ctx, ev, rest)
	case "remind":
		b.startReminder(ctx, ev, rest)
	default:
		return false
	}
	return true
}

func (b *Bot) startTriage(ctx context.Context, ev chat.MessageEvent, jobTitle string) {
	if jobTitle == "" {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Which job? Try `triage Backend Engineer`.")
		return
	}
	job, err := b.ats.JobByTitle(ctx, jobTitle)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("No job matching %q. Check the open jobs list.", jobTitle))
		return
	}
	apps, err := b.ats.ApplicationsByJob(ctx, job.ID)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Could not load candidates: %v", err))
		return
	}

	var hits []ats.CandidateHit
	for _, a := range apps {
		if a.IsHired() {
			continue
		}
		hits = append(hits, candidateHit(a))
	}
	if len(hits) == 0 {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Nothing to review for *%s*.", job.Title))
		return
	}

	ref, err := b.gateway.PostMessage(ctx, ev.Ref.Channel, ev.ThreadTS,
		triageCard(hits[0], triage.Progress{Current: 1, Total: len(hits)}))
	if err != nil {
		return
	}
	_, discarded, err := b.triage.Start(ev.UserID, hits, ref)
	if err != nil {
		return
	}
	chat.SeedReactions(ctx, b.gateway, ref, triage.Reactions()...)
	if discarded > 0 {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("Replaced your previous triage session; %d candidates were left undecided.", discarded))
	}
}

func (b *Bot) startStageMove(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	next, err := b.nextStage(ctx, app.CurrentInterviewStage)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("*%s* is already at the end of the pipeline (%s).", app.Candidate.Name, app.CurrentInterviewStage.Title))
		return
	}

	state := &workflow.StageMoveState{
		Candidate:     app.Candidate.Name,
		ApplicationID: app.ID,
		CurrentStage:  app.CurrentInterviewStage.Title,
		NextStageID:   next.ID,
		NextStage:     next.Title,
	}
	msg := fmt.Sprintf("*%s* is in %s.\n:white_check_mark: advance to %s  :hourglass: hold  :x: reject",
		app.Candidate.Name, app.CurrentInterviewStage.Title, next.Title)
	b.startWorkflow(ctx, ev, state, msg, stageMoveSeed)
}

func (b *Bot) startSourceReview(ctx context.Context, ev chat.MessageEvent) {
	recent, err := b.ats.RecentApplications(ctx, 7)
	if err != nil || len(recent) == 0 {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "No new applications in the last 7 days.")
		return
	}
	newest := recent[0]

	app, ok := b.findCandidate(ctx, ev, newest.Name)
	if !ok {
		return
	}
	next, err := b.nextStage(ctx, app.CurrentInterviewStage)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Newest applicant is already at the end of the pipeline.")
		return
	}

	state := &workflow.SourceReviewState{
		Candidate:     newest.Name,
		CandidateID:   newest.CandidateID,
		ApplicationID: newest.ApplicationID,
		Job:           newest.Job,
		Source:        newest.Source,
		NextStageID:   next.ID,
		NextStage:     next.Title,
	}
	msg := fmt.Sprintf("New applicant: *%s* (%s) for %s, via %s.\n:white_check_mark: advance  :x: reject  :zzz: snooze",
		newest.Name, newest.Email, newest.Job, newest.Source)
	b.startWorkflow(ctx, ev, state, msg, sourceReviewSeed)
}

func (b *Bot) startInterviewSchedule(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	next, err := b.nextStage(ctx, app.CurrentInterviewStage)
	if err != nil {
		next = &app.CurrentInterviewStage
	}

	slots := proposeSlots(time.Now())
	state := &workflow.InterviewScheduleState{
		Candidate:     app.Candidate.Name,
		ApplicationID: app.ID,
		StageID:       next.ID,
		Stage:         next.Title,
		Slots:         slots,
	}
	msg := fmt.Sprintf("Scheduling *%s* for %s. Pick a slot:\n:one: %s\n:two: %s\n:three: %s\nThen :white_check_mark: to book, :x: to cancel.",
		app.Candidate.Name, next.Title, slots[0], slots[1], slots[2])
	b.startWorkflow(ctx, ev, state, msg, scheduleSeed)
}

func (b *Bot) startReschedule(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	interviews, err := b.ats.UpcomingInterviews(ctx)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Could not load interviews: %v", err))
		return
	}
	var iv *ats.Interview
	for i := range interviews {
		if interviews[i].Application.ID == app.ID {
			iv = &interviews[i]
			break
		}
	}
	if iv == nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("*%s* has no upcoming interview to move.", app.Candidate.Name))
		return
	}

	current := iv.StartTime.Format("Mon Jan 2 15:04")
	slots := proposeSlots(iv.StartTime)
	state := &workflow.RescheduleFlowState{
		Candidate:     app.Candidate.Name,
		ApplicationID: app.ID,
		ScheduleID:    iv.ID,
		CurrentTime:   current,
		Slots:         slots,
	}
	msg := fmt.Sprintf("*%s* has an interview %s. New slot?\n:one: %s\n:two: %s\n:three: %s\n:envelope: contact candidate first  :x: cancel the interview",
		app.Candidate.Name, current, slots[0], slots[1], slots[2])
	b.startWorkflow(ctx, ev, state, msg, rescheduleSeed)
}

func (b *Bot) startOfferApproval(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	offers, err := b.ats.Offers(ctx, "")
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Could not load offers: %v", err))
		return
	}
	var offer *ats.Offer
	for i := range offers {
		if offers[i].Application.ID == app.ID {
			offer = &offers[i]
			break
		}
	}
	if offer == nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("No offer exists for *%s* yet; create one first.", app.Candidate.Name))
		return
	}

	salary := fmt.Sprintf("$%.0f", offer.Salary)
	state := &workflow.OfferApprovalState{
		Candidate:     app.Candidate.Name,
		CandidateID:   app.Candidate.ID,
		ApplicationID: app.ID,
		OfferID:       offer.ID,
		Salary:        salary,
	}
	msg := fmt.Sprintf("Offer approval for *%s*: %s, %s.\n:white_check_mark: approve  :speech_balloon: comment  :x: reject",
		app.Candidate.Name, app.Job.Title, salary)

	var opts []workflow.Option
	if mentions := userIDRE.FindAllStringSubmatch(ev.Text, -1); len(mentions) > 1 {
		// The second mention (after the bot itself) is the designated approver.
		opts = append(opts, workflow.WithApprover(mentions[1][1]))
	}
	b.startWorkflow(ctx, ev, state, msg, offerApprovalSeed, opts...)
}

func (b *Bot) startDebrief(ctx context.Context, ev chat.MessageEvent, hint string) {
	mentions := userIDRE.FindAllStringSubmatch(ev.Text, -1)
	var roster []string
	for i, m := range mentions {
		if i == 0 {
			continue // the bot's own mention
		}
		roster = append(roster, m[1])
	}
	if len(roster) == 0 {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Mention the debrief participants, e.g. `debrief Ada @alice @bob`.")
		return
	}
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}

	state := &workflow.DebriefState{
		Candidate: app.Candidate.Name,
		Roster:    roster,
	}
	var tags []string
	for _, id := range roster {
		tags = append(tags, fmt.Sprintf("<@%s>", id))
	}
	msg := fmt.Sprintf("Debrief for *%s* (%s). %s: vote :thumbsup: yes, :thumbsdown: no, :thinking_face: maybe.",
		app.Candidate.Name, app.Job.Title, strings.Join(tags, " "))
	b.startWorkflow(ctx, ev, state, msg, debriefSeed, workflow.WithRoster(roster))
}

func (b *Bot) startBatchReject(ctx context.Context, ev chat.MessageEvent, stageName string) {
	apps, err := b.ats.ApplicationsByStage(ctx, stageName)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Could not load candidates: %v", err))
		return
	}
	var items []workflow.BatchItem
	for _, a := range apps {
		if a.IsHired() {
			continue
		}
		items = append(items, workflow.BatchItem{
			Label:         fmt.Sprintf("%s (%s)", a.Candidate.Name, a.Job.Title),
			ApplicationID: a.ID,
		})
	}
	if len(items) == 0 {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("No candidates in %q.", stageName))
		return
	}
	// The number vocabulary covers five toggles; the batch limit never raises
	// that ceiling.
	max := b.guard.BatchLimit()
	if max > 5 {
		max = 5
	}
	truncated := false
	if len(items) > max {
		items = items[:max]
		truncated = true
	}

	state := &workflow.BatchDecisionState{
		Action: "reject_candidate",
		Reason: "Batch rejection from " + stageName,
		Items:  items,
	}
	var lines []string
	for i, it := range items {
		lines = append(lines, fmt.Sprintf(":%s: %s", []string{"one", "two", "three", "four", "five"}[i], it.Label))
	}
	msg := fmt.Sprintf("Batch reject from *%s*. Toggle with numbers, then :white_check_mark: to apply, :x: to cancel.\n%s",
		stageName, strings.Join(lines, "\n"))
	if truncated {
		msg += fmt.Sprintf("\nShowing the first %d; run the command again for the rest.", max)
	}

	seed := append(append([]string(nil), []string{"one", "two", "three", "four", "five"}[:len(items)]...), "white_check_mark", "x")
	b.startWorkflow(ctx, ev, state, msg, seed)
}

func (b *Bot) startRejectFlow(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	state := &workflow.RejectFlowState{
		Candidate:     app.Candidate.Name,
		ApplicationID: app.ID,
		Reasons:       rejectionReasons,
	}
	var lines []string
	for i, r := range rejectionReasons {
		lines = append(lines, fmt.Sprintf(":%s: %s", []string{"one", "two", "three", "four"}[i], r))
	}
	msg := fmt.Sprintf("Rejecting *%s* (%s). Pick a reason:\n%s\n:x: never mind",
		app.Candidate.Name, app.Job.Title, strings.Join(lines, "\n"))
	b.startWorkflow(ctx, ev, state, msg, rejectFlowSeed)
}

func (b *Bot) startFeedbackNudge(ctx context.Context, ev chat.MessageEvent, hint string) {
	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	interviews, _ := b.ats.UpcomingInterviews(ctx)
	var names []string
	for _, iv := range interviews {
		if iv.Application.ID != app.ID {
			continue
		}
		for _, p := range iv.Interviewer {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		names = []string{"the interview panel"}
	}

	state := &workflow.FeedbackNudgeState{
		Candidate:    app.Candidate.Name,
		CandidateID:  app.Candidate.ID,
		Interviewers: names,
	}
	msg := fmt.Sprintf("Feedback pending on *%s* from %s.\n:bell: remind  :rotating_light: escalate  :x: dismiss",
		app.Candidate.Name, strings.Join(names, ", "))
	b.startWorkflow(ctx, ev, state, msg, nudgeSeed)
}

func (b *Bot) startReminder(ctx context.Context, ev chat.MessageEvent, rest string) {
	parts := strings.SplitN(rest, " about ", 2)
	hint := strings.TrimSpace(parts[0])
	note := "Follow up"
	if len(parts) == 2 {
		note = strings.TrimSpace(parts[1])
	}

	app, ok := b.findCandidate(ctx, ev, hint)
	if !ok {
		return
	}
	state := &workflow.ReminderState{
		Candidate:   app.Candidate.Name,
		CandidateID: app.Candidate.ID,
		Note:        note,
	}
	msg := fmt.Sprintf("Reminder on *%s*: %q. When?\n:one: tomorrow  :two: in 3 days  :three: in a week  :x: cancel",
		app.Candidate.Name, note)
	b.startWorkflow(ctx, ev, state, msg, reminderSeed)
}

// startWorkflow posts the variant's opening message, opens the session bound
// to it, and seeds the reactions. A replaced session is reported, never
// silently dropped.
func (b *Bot) startWorkflow(ctx context.Context, ev chat.MessageEvent, state workflow.State, msg string, seed []string, opts ...workflow.Option) {
	ref, err := b.gateway.PostMessage(ctx, ev.Ref.Channel, ev.ThreadTS, msg)
	if err != nil {
		return
	}
	_, replaced := b.workflows.Start(ev.UserID, state, ref, opts...)
	chat.SeedReactions(ctx, b.gateway, ref, seed...)
	if replaced != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("Your previous %s session was replaced.", replaced.State.Kind()))
	}
}

// findCandidate resolves a name hint to exactly one active application,
// posting guidance on a miss or an ambiguous match.
func (b *Bot) findCandidate(ctx context.Context, ev chat.MessageEvent, hint string) (ats.Application, bool) {
	if hint == "" {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "Which candidate? Give me a name or email.")
		return ats.Application{}, false
	}
	apps, err := b.ats.ActiveApplications(ctx)
	if err != nil {
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS, fmt.Sprintf("Candidate lookup failed: %v", err))
		return ats.Application{}, false
	}

	needle := strings.ToLower(hint)
	var matches []ats.Application
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.Candidate.Name), needle) ||
			strings.Contains(strings.ToLower(a.Candidate.PrimaryEmailAddress.Value), needle) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 1:
		if matches[0].IsHired() {
			b.post(ctx, ev.Ref.Channel, ev.ThreadTS, "That candidate is hired; hired records are protected.")
			return ats.Application{}, false
		}
		return matches[0], true
	case 0:
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("Could not identify candidate %q; no active candidate matches.", hint))
	default:
		var names []string
		for _, a := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", a.Candidate.Name, a.Job.Title))
		}
		b.post(ctx, ev.Ref.Channel, ev.ThreadTS,
			fmt.Sprintf("%d candidates match %q: %s. Be more specific.", len(matches), hint, strings.Join(names, ", ")))
	}
	return ats.Application{}, false
}

// nextStage returns the stage after current in pipeline order.
func (b *Bot) nextStage(ctx context.Context, current ats.Stage) (*ats.Stage, error) {
	stages, err := b.ats.InterviewStages(ctx)
	if err != nil {
		return nil, err
	}
	for i, s := range stages {
		if s.ID == current.ID && i+1 < len(stages) {
			next := stages[i+1]
			return &next, nil
		}
	}
	return nil, fmt.Errorf("no stage after %q", current.Title)
}

// proposeSlots suggests three weekday-morning slots after base.
func proposeSlots(base time.Time) []string {
	slots := make([]string, 0, 3)
	t := base
	for len(slots) < 3 {
		t = t.AddDate(0, 0, 1)
		if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			continue
		}
		slot := time.Date(t.Year(), t.Month(), t.Day(), 10, 0, 0, 0, t.Location())
		slots = append(slots, slot.Format("Mon Jan 2 15:04"))
	}
	return slots
}

func candidateHit(a ats.Application) ats.CandidateHit {
	return ats.CandidateHit{
		Name:          a.Candidate.Name,
		Email:         a.Candidate.PrimaryEmailAddress.Value,
		CandidateID:   a.Candidate.ID,
		ApplicationID: a.ID,
		Job:           a.Job.Title,
		Stage:         a.CurrentInterviewStage.Title,
	}
}
