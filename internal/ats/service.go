package ats

import (
	"context"
	"strings"
)

// Service is the system-of-record surface the core consumes. Transport, retry
// and pagination live behind it; the core treats it as a function table.
type Service interface {
	// Reads
	OpenJobs(ctx context.Context) ([]Job, error)
	JobByTitle(ctx context.Context, title string) (*Job, error)
	JobPosting(ctx context.Context, jobID string) (*Posting, error)
	ActiveApplications(ctx context.Context) ([]Application, error)
	ApplicationsByJob(ctx context.Context, jobID string) ([]Application, error)
	ApplicationsByStage(ctx context.Context, stageName string) ([]Application, error)
	CandidateByID(ctx context.Context, candidateID string) (*Candidate, error)
	CandidateNotes(ctx context.Context, candidateID string) ([]Note, error)
	SearchCandidates(ctx context.Context, query string) ([]CandidateHit, error)
	InterviewStages(ctx context.Context) ([]Stage, error)
	StageByName(ctx context.Context, name string) (*Stage, error)
	UpcomingInterviews(ctx context.Context) ([]Interview, error)
	Offers(ctx context.Context, status string) ([]Offer, error)

	// Derived analysis
	PipelineSummary(ctx context.Context) (*PipelineSummary, error)
	StaleCandidates(ctx context.Context, daysThreshold int, includeAppReview bool) ([]StaleCandidate, error)
	RecentApplications(ctx context.Context, days int) ([]RecentApplication, error)
	NeedsDecision(ctx context.Context) ([]DecisionCandidate, error)

	// Writes
	AddNote(ctx context.Context, candidateID, note, requester string) error
	MoveStage(ctx context.Context, applicationID, stageID string) error
	ScheduleInterview(ctx context.Context, applicationID, stageID, startTime string) error
	RescheduleInterview(ctx context.Context, applicationID, scheduleID, reason string) error
	CancelInterview(ctx context.Context, scheduleID, reason string) error
	CreateCandidate(ctx context.Context, name, email string) (*Candidate, error)
	ApplyToJob(ctx context.Context, candidateID, jobID string) (string, error)
	TransferApplication(ctx context.Context, applicationID, jobID string) error
	RejectCandidate(ctx context.Context, applicationID, reason string) error
	AddTag(ctx context.Context, candidateID, tag string) error
	CreateOffer(ctx context.Context, applicationID string, salary float64) (string, error)
	UpdateOffer(ctx context.Context, offerID string, salary float64) error
	ApproveOffer(ctx context.Context, offerID string) error
	SendOffer(ctx context.Context, offerID string) error
	SetReminder(ctx context.Context, candidateID, note, remindAt string) error
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
