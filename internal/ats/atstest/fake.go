// Package atstest provides an in-memory ats.Service for tests.
package atstest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stagehandhq/stagehand/internal/ats"
	"github.com/stagehandhq/stagehand/internal/errors"
)

// Call records one write against the fake.
type Call struct {
	Name string
	Args []string
}

// Fake serves reads from fixture slices and records writes. Err, when set,
// fails every call.
type Fake struct {
	mu sync.Mutex

	Jobs         []ats.Job
	Stages       []ats.Stage
	Applications []ats.Application
	Candidates   []ats.Candidate
	Notes        []ats.Note
	Interviews   []ats.Interview
	OfferList    []ats.Offer

	Err   error
	Calls []Call
}

var _ ats.Service = (*Fake)(nil)

func New() *Fake { return &Fake{} }

func (f *Fake) record(name string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: name, Args: args})
}

// WriteCalls returns the names of all recorded writes, in order.
func (f *Fake) WriteCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		names[i] = c.Name
	}
	return names
}

func (f *Fake) OpenJobs(ctx context.Context) ([]ats.Job, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var open []ats.Job
	for _, j := range f.Jobs {
		if j.Status == "Open" {
			open = append(open, j)
		}
	}
	return open, nil
}

func (f *Fake) JobByTitle(ctx context.Context, title string) (*ats.Job, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, j := range f.Jobs {
		if strings.Contains(strings.ToLower(j.Title), strings.ToLower(title)) {
			job := j
			return &job, nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("no job matching %q", title))
}

func (f *Fake) JobPosting(ctx context.Context, jobID string) (*ats.Posting, error) {
	return nil, errors.NotFound("no posting for job " + jobID)
}

func (f *Fake) ActiveApplications(ctx context.Context) ([]ats.Application, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Applications, nil
}

func (f *Fake) ApplicationsByJob(ctx context.Context, jobID string) ([]ats.Application, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []ats.Application
	for _, a := range f.Applications {
		if a.Job.ID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Fake) ApplicationsByStage(ctx context.Context, stageName string) ([]ats.Application, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []ats.Application
	for _, a := range f.Applications {
		if strings.Contains(strings.ToLower(a.CurrentInterviewStage.Title), strings.ToLower(stageName)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *Fake) CandidateByID(ctx context.Context, candidateID string) (*ats.Candidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, c := range f.Candidates {
		if c.ID == candidateID {
			cand := c
			return &cand, nil
		}
	}
	for _, a := range f.Applications {
		if a.Candidate.ID == candidateID {
			cand := a.Candidate
			return &cand, nil
		}
	}
	return nil, errors.NotFound("candidate " + candidateID)
}

func (f *Fake) CandidateNotes(ctx context.Context, candidateID string) ([]ats.Note, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Notes, nil
}

func (f *Fake) SearchCandidates(ctx context.Context, query string) ([]ats.CandidateHit, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	q := strings.ToLower(query)
	var hits []ats.CandidateHit
	for _, a := range f.Applications {
		if strings.Contains(strings.ToLower(a.Candidate.Name), q) ||
			strings.Contains(strings.ToLower(a.Candidate.PrimaryEmailAddress.Value), q) {
			hits = append(hits, ats.CandidateHit{
				Name:          a.Candidate.Name,
				Email:         a.Candidate.PrimaryEmailAddress.Value,
				CandidateID:   a.Candidate.ID,
				ApplicationID: a.ID,
				Job:           a.Job.Title,
				Stage:         a.CurrentInterviewStage.Title,
			})
		}
	}
	return hits, nil
}

func (f *Fake) InterviewStages(ctx context.Context) ([]ats.Stage, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Stages, nil
}

func (f *Fake) StageByName(ctx context.Context, name string) (*ats.Stage, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	for _, s := range f.Stages {
		if strings.Contains(strings.ToLower(s.Title), strings.ToLower(name)) {
			stage := s
			return &stage, nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("no stage matching %q", name))
}

func (f *Fake) UpcomingInterviews(ctx context.Context) ([]ats.Interview, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Interviews, nil
}

func (f *Fake) Offers(ctx context.Context, status string) ([]ats.Offer, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.OfferList, nil
}

func (f *Fake) PipelineSummary(ctx context.Context) (*ats.PipelineSummary, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	summary := &ats.PipelineSummary{
		TotalActive: len(f.Applications),
		ByStage:     map[string]int{},
		ByJob:       map[string]int{},
	}
	for _, a := range f.Applications {
		summary.ByStage[a.CurrentInterviewStage.Title]++
		summary.ByJob[a.Job.Title]++
	}
	return summary, nil
}

func (f *Fake) StaleCandidates(ctx context.Context, daysThreshold int, includeAppReview bool) ([]ats.StaleCandidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, nil
}

func (f *Fake) RecentApplications(ctx context.Context, days int) ([]ats.RecentApplication, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, nil
}

func (f *Fake) NeedsDecision(ctx context.Context) ([]ats.DecisionCandidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, nil
}

func (f *Fake) AddNote(ctx context.Context, candidateID, note, requester string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("AddNote", candidateID, note, requester)
	return nil
}

func (f *Fake) MoveStage(ctx context.Context, applicationID, stageID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("MoveStage", applicationID, stageID)
	return nil
}

func (f *Fake) ScheduleInterview(ctx context.Context, applicationID, stageID, startTime string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("ScheduleInterview", applicationID, stageID, startTime)
	return nil
}

func (f *Fake) RescheduleInterview(ctx context.Context, applicationID, scheduleID, reason string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("RescheduleInterview", applicationID, scheduleID, reason)
	return nil
}

func (f *Fake) CancelInterview(ctx context.Context, scheduleID, reason string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("CancelInterview", scheduleID, reason)
	return nil
}

func (f *Fake) CreateCandidate(ctx context.Context, name, email string) (*ats.Candidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.record("CreateCandidate", name, email)
	return &ats.Candidate{ID: "cand-new", Name: name}, nil
}

func (f *Fake) ApplyToJob(ctx context.Context, candidateID, jobID string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.record("ApplyToJob", candidateID, jobID)
	return "app-new", nil
}

func (f *Fake) TransferApplication(ctx context.Context, applicationID, jobID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("TransferApplication", applicationID, jobID)
	return nil
}

func (f *Fake) RejectCandidate(ctx context.Context, applicationID, reason string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("RejectCandidate", applicationID, reason)
	return nil
}

func (f *Fake) AddTag(ctx context.Context, candidateID, tag string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("AddTag", candidateID, tag)
	return nil
}

func (f *Fake) CreateOffer(ctx context.Context, applicationID string, salary float64) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.record("CreateOffer", applicationID, fmt.Sprintf("%.0f", salary))
	return "offer-new", nil
}

func (f *Fake) UpdateOffer(ctx context.Context, offerID string, salary float64) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("UpdateOffer", offerID, fmt.Sprintf("%.0f", salary))
	return nil
}

func (f *Fake) ApproveOffer(ctx context.Context, offerID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("ApproveOffer", offerID)
	return nil
}

func (f *Fake) SendOffer(ctx context.Context, offerID string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("SendOffer", offerID)
	return nil
}

func (f *Fake) SetReminder(ctx context.Context, candidateID, note, remindAt string) error {
	if f.Err != nil {
		return f.Err
	}
	f.record("SetReminder", candidateID, note, remindAt)
	return nil
}
