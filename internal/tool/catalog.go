package tool

import "fmt"

// Tool is one entry in the static catalog handed to the model. Write marks
// the safety classification; it is a property of the catalog, never inferred
// at runtime.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Write       bool
}

// Operation kinds for the confirmation gate. Every write tool maps to exactly
// one kind; the mapping is total and checked at startup.
const (
	KindAddNote             = "add_note"
	KindMoveStage           = "move_stage"
	KindScheduleInterview   = "schedule_interview"
	KindRescheduleInterview = "reschedule_interview"
	KindCancelInterview     = "cancel_interview"
	KindCreateCandidate     = "create_candidate"
	KindApplyToJob          = "apply_to_job"
	KindTransferApplication = "transfer_application"
	KindRejectCandidate     = "reject_candidate"
	KindAddTag              = "add_tag"
	KindCreateOffer         = "create_offer"
	KindUpdateOffer         = "update_offer"
	KindApproveOffer        = "approve_offer"
	KindSendOffer           = "send_offer"
	KindSetReminder         = "set_reminder"
)

var writeKinds = map[string]string{
	"add_candidate_note":   KindAddNote,
	"move_candidate_stage": KindMoveStage,
	"schedule_interview":   KindScheduleInterview,
	"reschedule_interview": KindRescheduleInterview,
	"cancel_interview":     KindCancelInterview,
	"create_candidate":     KindCreateCandidate,
	"apply_to_job":         KindApplyToJob,
	"transfer_application": KindTransferApplication,
	"reject_candidate":     KindRejectCandidate,
	"add_candidate_tag":    KindAddTag,
	"create_offer":         KindCreateOffer,
	"update_offer":         KindUpdateOffer,
	"approve_offer":        KindApproveOffer,
	"send_offer":           KindSendOffer,
	"set_reminder":         KindSetReminder,
}

// WriteKind resolves a write tool to its operation kind. An unmapped write
// tool is a configuration error, not a silent default.
func WriteKind(name string) (string, error) {
	kind, ok := writeKinds[name]
	if !ok {
		return "", fmt.Errorf("write tool %q has no operation kind", name)
	}
	return kind, nil
}

func objectSchema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func boolean(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

var catalog = []Tool{
	{
		Name:        "get_pipeline_overview",
		Description: "Summary of the hiring pipeline: total active candidates, counts by stage and by job, open jobs.",
		InputSchema: objectSchema(nil, map[string]any{}),
	},
	{
		Name:        "get_open_jobs",
		Description: "List all currently open jobs.",
		InputSchema: objectSchema(nil, map[string]any{}),
	},
	{
		Name:        "get_job_details",
		Description: "Details and posting for a job matched by title.",
		InputSchema: objectSchema([]string{"job_title"}, map[string]any{
			"job_title": str("Job title or part of it"),
		}),
	},
	{
		Name:        "search_candidates",
		Description: "Search active candidates by name or email.",
		InputSchema: objectSchema([]string{"query"}, map[string]any{
			"query": str("Name or email to search for"),
		}),
	},
	{
		Name:        "get_candidate_details",
		Description: "Full details for one candidate by id.",
		InputSchema: objectSchema([]string{"candidate_id"}, map[string]any{
			"candidate_id": str("Ashby candidate id"),
		}),
	},
	{
		Name:        "get_candidate_notes",
		Description: "Notes on a candidate, newest first.",
		InputSchema: objectSchema([]string{"candidate_id"}, map[string]any{
			"candidate_id": str("Ashby candidate id"),
		}),
	},
	{
		Name:        "get_candidates_by_job",
		Description: "Active candidates for a job matched by title.",
		InputSchema: objectSchema([]string{"job_title"}, map[string]any{
			"job_title": str("Job title or part of it"),
		}),
	},
	{
		Name:        "get_candidates_by_stage",
		Description: "Active candidates in a stage matched by name, across all jobs.",
		InputSchema: objectSchema([]string{"stage_name"}, map[string]any{
			"stage_name": str("Interview stage name, e.g. 'Phone Screen'"),
		}),
	},
	{
		Name:        "get_stale_candidates",
		Description: "Candidates sitting in their current stage longer than a threshold.",
		InputSchema: objectSchema(nil, map[string]any{
			"days_threshold":             num("Days in stage to count as stale (default 7)"),
			"include_application_review": boolean("Include the Application Review stage (default false)"),
		}),
	},
	{
		Name:        "get_recent_applications",
		Description: "Applications submitted in the last N days, with source.",
		InputSchema: objectSchema(nil, map[string]any{
			"days": num("Lookback window in days (default 7)"),
		}),
	},
	{
		Name:        "get_candidates_needing_decision",
		Description: "Candidates in decision-shaped stages (debrief, decision, offer) waiting on the team.",
		InputSchema: objectSchema(nil, map[string]any{}),
	},
	{
		Name:        "get_interview_stages",
		Description: "All interview stages in pipeline order.",
		InputSchema: objectSchema(nil, map[string]any{}),
	},
	{
		Name:        "get_upcoming_interviews",
		Description: "Scheduled interviews that have not happened yet.",
		InputSchema: objectSchema(nil, map[string]any{}),
	},
	{
		Name:        "get_offers",
		Description: "Offers, optionally filtered by status.",
		InputSchema: objectSchema(nil, map[string]any{
			"status": str("Offer status filter, e.g. 'WaitingOnCandidate'"),
		}),
	},

	{
		Name:        "add_candidate_note",
		Description: "Add a note to a candidate. The note is tagged with the requesting user.",
		Write:       true,
		InputSchema: objectSchema([]string{"note"}, map[string]any{
			"candidate_id":   str("Ashby candidate id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"note":           str("Note text"),
		}),
	},
	{
		Name:        "move_candidate_stage",
		Description: "Move a candidate's application to a different interview stage.",
		Write:       true,
		InputSchema: objectSchema([]string{"target_stage"}, map[string]any{
			"application_id": str("Application id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"target_stage":   str("Name of the stage to move to"),
		}),
	},
	{
		Name:        "schedule_interview",
		Description: "Schedule an interview for a candidate at a stage.",
		Write:       true,
		InputSchema: objectSchema([]string{"stage_name", "start_time"}, map[string]any{
			"application_id": str("Application id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"stage_name":     str("Interview stage name"),
			"start_time":     str("ISO 8601 start time"),
		}),
	},
	{
		Name:        "reschedule_interview",
		Description: "Move an existing interview to a new time.",
		Write:       true,
		InputSchema: objectSchema([]string{"schedule_id", "reason"}, map[string]any{
			"application_id": str("Application id"),
			"schedule_id":    str("Interview schedule id"),
			"reason":         str("Why the interview moved"),
		}),
	},
	{
		Name:        "cancel_interview",
		Description: "Cancel a scheduled interview.",
		Write:       true,
		InputSchema: objectSchema([]string{"schedule_id"}, map[string]any{
			"schedule_id": str("Interview schedule id"),
			"reason":      str("Cancellation reason"),
		}),
	},
	{
		Name:        "create_candidate",
		Description: "Create a new candidate record.",
		Write:       true,
		InputSchema: objectSchema([]string{"name", "email"}, map[string]any{
			"name":  str("Candidate full name"),
			"email": str("Candidate email"),
		}),
	},
	{
		Name:        "apply_to_job",
		Description: "Create an application for a candidate on a job.",
		Write:       true,
		InputSchema: objectSchema([]string{"job_title"}, map[string]any{
			"candidate_id":   str("Ashby candidate id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"job_title":      str("Title of the job to apply to"),
		}),
	},
	{
		Name:        "transfer_application",
		Description: "Move an application to a different job.",
		Write:       true,
		InputSchema: objectSchema([]string{"job_title"}, map[string]any{
			"application_id": str("Application id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"job_title":      str("Title of the destination job"),
		}),
	},
	{
		Name:        "reject_candidate",
		Description: "Reject (archive) a candidate's application.",
		Write:       true,
		InputSchema: objectSchema([]string{"reason"}, map[string]any{
			"application_id": str("Application id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"reason":         str("Rejection reason"),
		}),
	},
	{
		Name:        "add_candidate_tag",
		Description: "Add a tag to a candidate.",
		Write:       true,
		InputSchema: objectSchema([]string{"tag"}, map[string]any{
			"candidate_id":   str("Ashby candidate id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"tag":            str("Tag title"),
		}),
	},
	{
		Name:        "create_offer",
		Description: "Create an offer on an application.",
		Write:       true,
		InputSchema: objectSchema([]string{"salary"}, map[string]any{
			"application_id": str("Application id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"salary":         num("Annual salary"),
		}),
	},
	{
		Name:        "update_offer",
		Description: "Update an existing offer's salary.",
		Write:       true,
		InputSchema: objectSchema([]string{"offer_id", "salary"}, map[string]any{
			"offer_id": str("Offer id"),
			"salary":   num("New annual salary"),
		}),
	},
	{
		Name:        "approve_offer",
		Description: "Approve an offer so it can be sent.",
		Write:       true,
		InputSchema: objectSchema([]string{"offer_id"}, map[string]any{
			"offer_id": str("Offer id"),
		}),
	},
	{
		Name:        "send_offer",
		Description: "Send an approved offer to the candidate.",
		Write:       true,
		InputSchema: objectSchema([]string{"offer_id"}, map[string]any{
			"offer_id": str("Offer id"),
		}),
	},
	{
		Name:        "set_reminder",
		Description: "Set a follow-up reminder on a candidate.",
		Write:       true,
		InputSchema: objectSchema([]string{"note"}, map[string]any{
			"candidate_id":   str("Ashby candidate id, if known"),
			"candidate_name": str("Candidate name to look up when the id is not known"),
			"note":           str("Reminder text"),
			"days":           num("Days from now (default 3)"),
		}),
	},
}

// Catalog returns the full static tool catalog.
func Catalog() []Tool { return catalog }

// Lookup finds a tool by name.
func Lookup(name string) (Tool, bool) {
	for _, t := range catalog {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// IsWrite reports the static read/write classification.
func IsWrite(name string) bool {
	t, ok := Lookup(name)
	return ok && t.Write
}
