package ats

import (
	"context"
	"sort"
	"time"
)

// Derived views over active applications. These are client-side rollups, the
// API has no equivalent endpoints.

func (c *Client) PipelineSummary(ctx context.Context) (*PipelineSummary, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := c.OpenJobs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &PipelineSummary{
		TotalActive: len(apps),
		OpenJobs:    len(jobs),
		ByStage:     make(map[string]int),
		ByJob:       make(map[string]int),
	}
	for _, a := range apps {
		summary.ByStage[a.CurrentInterviewStage.Title]++
		summary.ByJob[a.Job.Title]++
	}
	for _, j := range jobs {
		summary.OpenJobTitles = append(summary.OpenJobTitles, j.Title)
	}
	sort.Strings(summary.OpenJobTitles)
	return summary, nil
}

// StaleCandidates lists active applications that have sat in their current
// stage past the threshold. Application Review is usually high-volume noise
// and is excluded unless asked for.
func (c *Client) StaleCandidates(ctx context.Context, daysThreshold int, includeAppReview bool) ([]StaleCandidate, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var stale []StaleCandidate
	for _, a := range apps {
		if a.IsHired() {
			continue
		}
		if !includeAppReview && containsFold(a.CurrentInterviewStage.Title, "application review") {
			continue
		}
		days := int(now.Sub(a.UpdatedAt).Hours() / 24)
		if days >= daysThreshold {
			stale = append(stale, StaleCandidate{CandidateHit: hitFrom(a), DaysInStage: days})
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].DaysInStage > stale[j].DaysInStage })
	return stale, nil
}

func (c *Client) RecentApplications(ctx context.Context, days int) ([]RecentApplication, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	cutoff := now.AddDate(0, 0, -days)
	var recent []RecentApplication
	for _, a := range apps {
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		recent = append(recent, RecentApplication{
			CandidateHit: hitFrom(a),
			DaysAgo:      int(now.Sub(a.CreatedAt).Hours() / 24),
			Source:       a.Source.Title,
		})
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].DaysAgo < recent[j].DaysAgo })
	return recent, nil
}

// NeedsDecision surfaces candidates sitting in decision-shaped stages, the
// ones a recruiter has to act on rather than wait on.
func (c *Client) NeedsDecision(ctx context.Context) ([]DecisionCandidate, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var out []DecisionCandidate
	for _, a := range apps {
		if a.IsHired() {
			continue
		}
		stage := a.CurrentInterviewStage.Title
		if !containsFold(stage, "debrief") && !containsFold(stage, "decision") && !containsFold(stage, "offer") {
			continue
		}
		out = append(out, DecisionCandidate{
			CandidateHit: hitFrom(a),
			DaysWaiting:  int(now.Sub(a.UpdatedAt).Hours() / 24),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysWaiting > out[j].DaysWaiting })
	return out, nil
}
