package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stagehandhq/stagehand/internal/ats"
)

// Response is the uniform result shape fed back to the model. Failures are
// data, never panics: the conversation loop must survive any tool outcome.
type Response struct {
	Success              bool
	Data                 any
	Error                string
	RequiresConfirmation bool
	Pending              *PendingOp
}

// PendingOp carries everything needed to replay a gated write after approval:
// the tool name and fully resolved arguments, plus display fields for the
// confirmation message.
type PendingOp struct {
	Kind          string
	Description   string
	CandidateID   string
	ApplicationID string
	Action        string
	Args          map[string]any
}

func failf(format string, a ...any) Response {
	return Response{Error: fmt.Sprintf(format, a...)}
}

func succeed(data any) Response {
	return Response{Success: true, Data: data}
}

// Executor runs catalog tools against the ATS. Reads execute immediately;
// writes resolve their target, pass the guard, and either execute, park for
// confirmation, or come back denied.
type Executor struct {
	ats   ats.Service
	guard *Guard
}

func NewExecutor(svc ats.Service, guard *Guard) *Executor {
	return &Executor{ats: svc, guard: guard}
}

func (e *Executor) Execute(ctx context.Context, name string, args map[string]any, requester string) Response {
	t, found := Lookup(name)
	if !found {
		return failf("unknown tool %q", name)
	}
	if !t.Write {
		return e.executeRead(ctx, name, args)
	}
	return e.executeWrite(ctx, t, args, requester)
}

// ExecuteConfirmed performs a previously approved write with its replayed
// arguments. No gate: approval already happened.
func (e *Executor) ExecuteConfirmed(ctx context.Context, name string, args map[string]any) Response {
	t, found := Lookup(name)
	if !found || !t.Write {
		return failf("unknown write tool %q", name)
	}
	return e.doWrite(ctx, name, args)
}

// ==================== Writes ====================

type target struct {
	candidateID   string
	applicationID string
	display       string
	hired         bool
}

func (e *Executor) executeWrite(ctx context.Context, t Tool, args map[string]any, requester string) Response {
	kind, err := WriteKind(t.Name)
	if err != nil {
		return failf("%v", err)
	}

	// Missing-argument failures surface before any ATS call.
	if required, ok := t.InputSchema["required"].([]string); ok {
		for _, key := range required {
			if argString(args, key) == "" && args[key] == nil {
				return failf("missing required argument %q for %s", key, t.Name)
			}
		}
	}

	resolved := make(map[string]any, len(args)+3)
	for k, v := range args {
		resolved[k] = v
	}
	resolved["requester"] = requester

	tgt, res, resolvedOK := e.resolveTarget(ctx, t.Name, resolved)
	if !resolvedOK {
		return res
	}

	decision, reason := e.guard.Check(kind, tgt.hired)
	switch decision {
	case DecisionDeny:
		return failf("permission denied: %s", reason)
	case DecisionAllow:
		return e.doWrite(ctx, t.Name, resolved)
	default:
		return Response{
			RequiresConfirmation: true,
			Pending: &PendingOp{
				Kind:          kind,
				Description:   describe(t.Name, resolved, tgt),
				CandidateID:   tgt.candidateID,
				ApplicationID: tgt.applicationID,
				Action:        t.Name,
				Args:          resolved,
			},
		}
	}
}

// resolveTarget fills in missing entity ids from name/title hints, mutating
// the argument map so the replayed payload carries concrete ids. A hint that
// resolves to nothing or to several records fails here, before the guard is
// ever consulted.
func (e *Executor) resolveTarget(ctx context.Context, name string, args map[string]any) (target, Response, bool) {
	var tgt target

	switch name {
	case "move_candidate_stage", "reject_candidate", "transfer_application",
		"schedule_interview", "create_offer":
		if id := argString(args, "application_id"); id != "" {
			tgt.applicationID = id
			tgt.display = id
			if app, ok := e.findApplication(ctx, id); ok {
				tgt.candidateID = app.Candidate.ID
				tgt.display = app.Candidate.Name
				tgt.hired = app.IsHired()
			}
		} else {
			hit, res, ok := e.resolveCandidate(ctx, args)
			if !ok {
				return tgt, res, false
			}
			tgt = hit
			args["application_id"] = tgt.applicationID
			args["candidate_id"] = tgt.candidateID
		}

	case "add_candidate_note", "add_candidate_tag", "set_reminder", "apply_to_job":
		if id := argString(args, "candidate_id"); id != "" {
			tgt.candidateID = id
			tgt.display = id
			if cand, err := e.ats.CandidateByID(ctx, id); err == nil {
				tgt.display = cand.Name
			}
		} else {
			hit, res, ok := e.resolveCandidate(ctx, args)
			if !ok {
				return tgt, res, false
			}
			tgt = hit
			args["candidate_id"] = tgt.candidateID
		}
	}

	// Secondary resolutions: stage and job names become ids up front.
	switch name {
	case "move_candidate_stage":
		stage, err := e.ats.StageByName(ctx, argString(args, "target_stage"))
		if err != nil {
			return tgt, failf("could not identify stage %q: pick one of the pipeline's interview stages", argString(args, "target_stage")), false
		}
		args["stage_id"] = stage.ID
		args["stage_title"] = stage.Title
	case "schedule_interview":
		stage, err := e.ats.StageByName(ctx, argString(args, "stage_name"))
		if err != nil {
			return tgt, failf("could not identify stage %q: pick one of the pipeline's interview stages", argString(args, "stage_name")), false
		}
		args["stage_id"] = stage.ID
		args["stage_title"] = stage.Title
	case "apply_to_job", "transfer_application":
		job, err := e.ats.JobByTitle(ctx, argString(args, "job_title"))
		if err != nil {
			return tgt, failf("could not identify job %q: check the title against the open jobs list", argString(args, "job_title")), false
		}
		args["job_id"] = job.ID
		args["job_title"] = job.Title
	}

	return tgt, Response{}, true
}

func (e *Executor) resolveCandidate(ctx context.Context, args map[string]any) (target, Response, bool) {
	hint := argString(args, "candidate_name")
	if hint == "" {
		return target{}, failf("could not identify candidate: provide a candidate_name or an explicit id"), false
	}

	apps, err := e.ats.ActiveApplications(ctx)
	if err != nil {
		return target{}, failf("candidate lookup failed: %v", err), false
	}

	needle := strings.ToLower(strings.TrimSpace(hint))
	var matches []ats.Application
	for _, a := range apps {
		name := strings.ToLower(a.Candidate.Name)
		email := strings.ToLower(a.Candidate.PrimaryEmailAddress.Value)
		if strings.Contains(name, needle) || strings.Contains(email, needle) {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		return target{}, failf("could not identify candidate %q: no active candidate matches that name or email", hint), false
	case 1:
		a := matches[0]
		return target{
			candidateID:   a.Candidate.ID,
			applicationID: a.ID,
			display:       a.Candidate.Name,
			hired:         a.IsHired(),
		}, Response{}, true
	default:
		names := make([]string, 0, len(matches))
		for _, a := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", a.Candidate.Name, a.Job.Title))
		}
		return target{}, failf("could not identify candidate %q: %d matches (%s); be more specific or use an id",
			hint, len(matches), strings.Join(names, ", ")), false
	}
}

func (e *Executor) findApplication(ctx context.Context, applicationID string) (ats.Application, bool) {
	apps, err := e.ats.ActiveApplications(ctx)
	if err != nil {
		return ats.Application{}, false
	}
	for _, a := range apps {
		if a.ID == applicationID {
			return a, true
		}
	}
	return ats.Application{}, false
}

func (e *Executor) doWrite(ctx context.Context, name string, args map[string]any) Response {
	var err error
	data := map[string]any{"status": "ok"}

	switch name {
	case "add_candidate_note":
		err = e.ats.AddNote(ctx, argString(args, "candidate_id"), argString(args, "note"), argString(args, "requester"))
	case "move_candidate_stage":
		err = e.ats.MoveStage(ctx, argString(args, "application_id"), argString(args, "stage_id"))
	case "schedule_interview":
		err = e.ats.ScheduleInterview(ctx, argString(args, "application_id"), argString(args, "stage_id"), argString(args, "start_time"))
	case "reschedule_interview":
		err = e.ats.RescheduleInterview(ctx, argString(args, "application_id"), argString(args, "schedule_id"), argString(args, "reason"))
	case "cancel_interview":
		err = e.ats.CancelInterview(ctx, argString(args, "schedule_id"), argString(args, "reason"))
	case "create_candidate":
		var cand *ats.Candidate
		cand, err = e.ats.CreateCandidate(ctx, argString(args, "name"), argString(args, "email"))
		if err == nil {
			data["candidate_id"] = cand.ID
		}
	case "apply_to_job":
		var appID string
		appID, err = e.ats.ApplyToJob(ctx, argString(args, "candidate_id"), argString(args, "job_id"))
		if err == nil {
			data["application_id"] = appID
		}
	case "transfer_application":
		err = e.ats.TransferApplication(ctx, argString(args, "application_id"), argString(args, "job_id"))
	case "reject_candidate":
		err = e.ats.RejectCandidate(ctx, argString(args, "application_id"), argString(args, "reason"))
	case "add_candidate_tag":
		err = e.ats.AddTag(ctx, argString(args, "candidate_id"), argString(args, "tag"))
	case "create_offer":
		var offerID string
		offerID, err = e.ats.CreateOffer(ctx, argString(args, "application_id"), argFloat(args, "salary", 0))
		if err == nil {
			data["offer_id"] = offerID
		}
	case "update_offer":
		err = e.ats.UpdateOffer(ctx, argString(args, "offer_id"), argFloat(args, "salary", 0))
	case "approve_offer":
		err = e.ats.ApproveOffer(ctx, argString(args, "offer_id"))
	case "send_offer":
		err = e.ats.SendOffer(ctx, argString(args, "offer_id"))
	case "set_reminder":
		remindAt := time.Now().AddDate(0, 0, argInt(args, "days", 3)).Format(time.RFC3339)
		err = e.ats.SetReminder(ctx, argString(args, "candidate_id"), argString(args, "note"), remindAt)
	default:
		return failf("unknown write tool %q", name)
	}

	if err != nil {
		return failf("%s failed: %v", name, err)
	}
	return succeed(data)
}

// ==================== Reads ====================

func (e *Executor) executeRead(ctx context.Context, name string, args map[string]any) Response {
	var (
		data any
		err  error
	)

	switch name {
	case "get_pipeline_overview":
		data, err = e.ats.PipelineSummary(ctx)
	case "get_open_jobs":
		data, err = e.ats.OpenJobs(ctx)
	case "get_job_details":
		data, err = e.jobDetails(ctx, argString(args, "job_title"))
	case "search_candidates":
		data, err = e.ats.SearchCandidates(ctx, argString(args, "query"))
	case "get_candidate_details":
		data, err = e.ats.CandidateByID(ctx, argString(args, "candidate_id"))
	case "get_candidate_notes":
		data, err = e.ats.CandidateNotes(ctx, argString(args, "candidate_id"))
	case "get_candidates_by_job":
		data, err = e.candidatesByJob(ctx, argString(args, "job_title"))
	case "get_candidates_by_stage":
		data, err = e.candidatesByStage(ctx, argString(args, "stage_name"))
	case "get_stale_candidates":
		data, err = e.ats.StaleCandidates(ctx, argInt(args, "days_threshold", 7), argBool(args, "include_application_review"))
	case "get_recent_applications":
		data, err = e.ats.RecentApplications(ctx, argInt(args, "days", 7))
	case "get_candidates_needing_decision":
		data, err = e.ats.NeedsDecision(ctx)
	case "get_interview_stages":
		data, err = e.ats.InterviewStages(ctx)
	case "get_upcoming_interviews":
		data, err = e.ats.UpcomingInterviews(ctx)
	case "get_offers":
		data, err = e.ats.Offers(ctx, argString(args, "status"))
	default:
		return failf("unknown read tool %q", name)
	}

	if err != nil {
		return failf("%s failed: %v", name, err)
	}
	return succeed(data)
}

func (e *Executor) jobDetails(ctx context.Context, title string) (any, error) {
	job, err := e.ats.JobByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"job": job}
	if posting, err := e.ats.JobPosting(ctx, job.ID); err == nil {
		out["posting"] = posting
	}
	return out, nil
}

// List reads filter hired candidates out instead of failing the whole call.
func (e *Executor) candidatesByJob(ctx context.Context, title string) (any, error) {
	job, err := e.ats.JobByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	apps, err := e.ats.ApplicationsByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	return visibleHits(apps), nil
}

func (e *Executor) candidatesByStage(ctx context.Context, stageName string) (any, error) {
	apps, err := e.ats.ApplicationsByStage(ctx, stageName)
	if err != nil {
		return nil, err
	}
	return visibleHits(apps), nil
}

func visibleHits(apps []ats.Application) []ats.CandidateHit {
	hits := make([]ats.CandidateHit, 0, len(apps))
	for _, a := range apps {
		if a.IsHired() {
			continue
		}
		hits = append(hits, ats.CandidateHit{
			Name:          a.Candidate.Name,
			Email:         a.Candidate.PrimaryEmailAddress.Value,
			CandidateID:   a.Candidate.ID,
			ApplicationID: a.ID,
			Job:           a.Job.Title,
			Stage:         a.CurrentInterviewStage.Title,
		})
	}
	return hits
}

// ==================== Helpers ====================

func describe(name string, args map[string]any, tgt target) string {
	who := tgt.display
	if who == "" {
		who = "the candidate"
	}
	switch name {
	case "add_candidate_note":
		return fmt.Sprintf("Add a note to %s", who)
	case "move_candidate_stage":
		return fmt.Sprintf("Move %s to %s", who, argString(args, "stage_title"))
	case "schedule_interview":
		return fmt.Sprintf("Schedule %s for %s at %s", who, argString(args, "stage_title"), argString(args, "start_time"))
	case "reschedule_interview":
		return fmt.Sprintf("Reschedule interview %s", argString(args, "schedule_id"))
	case "cancel_interview":
		return fmt.Sprintf("Cancel interview %s", argString(args, "schedule_id"))
	case "create_candidate":
		return fmt.Sprintf("Create candidate %s <%s>", argString(args, "name"), argString(args, "email"))
	case "apply_to_job":
		return fmt.Sprintf("Apply %s to %s", who, argString(args, "job_title"))
	case "transfer_application":
		return fmt.Sprintf("Transfer %s to %s", who, argString(args, "job_title"))
	case "reject_candidate":
		return fmt.Sprintf("Reject %s (%s)", who, argString(args, "reason"))
	case "add_candidate_tag":
		return fmt.Sprintf("Tag %s with %q", who, argString(args, "tag"))
	case "create_offer":
		return fmt.Sprintf("Create a $%.0f offer for %s", argFloat(args, "salary", 0), who)
	case "update_offer":
		return fmt.Sprintf("Update offer %s salary to $%.0f", argString(args, "offer_id"), argFloat(args, "salary", 0))
	case "approve_offer":
		return fmt.Sprintf("Approve offer %s", argString(args, "offer_id"))
	case "send_offer":
		return fmt.Sprintf("Send offer %s", argString(args, "offer_id"))
	case "set_reminder":
		return fmt.Sprintf("Set a reminder on %s", who)
	}
	return name
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func argFloat(args map[string]any, key string, def float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}
