package ats

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stagehandhq/stagehand/internal/errors"
)

// Client talks to the Ashby-compatible REST API. Every endpoint is a POST with
// a JSON body; list endpoints paginate with a cursor. Jobs, stages and sources
// change rarely and are cached for the process lifetime.
type Client struct {
	baseURL  string
	authz    string
	http     *http.Client
	maxPages int

	mu          sync.Mutex
	jobsCache   []Job
	stagesCache []Stage
}

func NewClient(baseURL, apiKey string, timeout time.Duration, maxPages int) *Client {
	if maxPages <= 0 {
		maxPages = 50
	}
	// Ashby uses basic auth with the key as username and empty password.
	token := base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		authz:    "Basic " + token,
		http:     &http.Client{Timeout: timeout},
		maxPages: maxPages,
	}
}

type listResponse struct {
	Success           bool            `json:"success"`
	Results           json.RawMessage `json:"results"`
	MoreDataAvailable bool            `json:"moreDataAvailable"`
	NextCursor        string          `json:"nextCursor"`
	Errors            []string        `json:"errors,omitempty"`
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) (*listResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authz)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errors.Transient(fmt.Sprintf("%s returned %d", endpoint, resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s returned %d", endpoint, resp.StatusCode)
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if !out.Success {
		if len(out.Errors) > 0 {
			return nil, fmt.Errorf("%s failed: %s", endpoint, strings.Join(out.Errors, "; "))
		}
		return nil, fmt.Errorf("%s failed", endpoint)
	}
	return &out, nil
}

// listAll drains a paginated endpoint into dst (a pointer to a slice).
func listAll[T any](ctx context.Context, c *Client, endpoint string, payload map[string]any) ([]T, error) {
	var all []T
	body := map[string]any{"limit": 100}
	for k, v := range payload {
		body[k] = v
	}

	for page := 0; page < c.maxPages; page++ {
		resp, err := c.post(ctx, endpoint, body)
		if err != nil {
			return nil, err
		}
		var batch []T
		if len(resp.Results) > 0 {
			if err := json.Unmarshal(resp.Results, &batch); err != nil {
				return nil, fmt.Errorf("decode %s results: %w", endpoint, err)
			}
		}
		all = append(all, batch...)
		if !resp.MoreDataAvailable {
			break
		}
		body["cursor"] = resp.NextCursor
	}
	return all, nil
}

func (c *Client) jobs(ctx context.Context) ([]Job, error) {
	c.mu.Lock()
	cached := c.jobsCache
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	jobs, err := listAll[Job](ctx, c, "job.list", nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.jobsCache = jobs
	c.mu.Unlock()
	return jobs, nil
}

func (c *Client) OpenJobs(ctx context.Context) ([]Job, error) {
	jobs, err := c.jobs(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == "Open" {
			open = append(open, j)
		}
	}
	return open, nil
}

// JobByTitle matches on substring, case-insensitive, the way operators type
// job names in chat.
func (c *Client) JobByTitle(ctx context.Context, title string) (*Job, error) {
	jobs, err := c.jobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if containsFold(j.Title, title) {
			return &j, nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("no job matching %q", title))
}

func (c *Client) JobPosting(ctx context.Context, jobID string) (*Posting, error) {
	postings, err := listAll[Posting](ctx, c, "jobPosting.list", map[string]any{"jobId": jobID})
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, errors.NotFound("no posting for job " + jobID)
	}
	return &postings[0], nil
}

func (c *Client) ActiveApplications(ctx context.Context) ([]Application, error) {
	return listAll[Application](ctx, c, "application.list", map[string]any{"status": "Active"})
}

func (c *Client) ApplicationsByJob(ctx context.Context, jobID string) ([]Application, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	var out []Application
	for _, a := range apps {
		if a.Job.ID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *Client) ApplicationsByStage(ctx context.Context, stageName string) ([]Application, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	var out []Application
	for _, a := range apps {
		if containsFold(a.CurrentInterviewStage.Title, stageName) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *Client) CandidateByID(ctx context.Context, candidateID string) (*Candidate, error) {
	resp, err := c.post(ctx, "candidate.info", map[string]any{"candidateId": candidateID})
	if err != nil {
		return nil, err
	}
	var cand Candidate
	if err := json.Unmarshal(resp.Results, &cand); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	if cand.ID == "" {
		return nil, errors.NotFound("candidate " + candidateID)
	}
	return &cand, nil
}

func (c *Client) CandidateNotes(ctx context.Context, candidateID string) ([]Note, error) {
	return listAll[Note](ctx, c, "candidate.listNotes", map[string]any{"candidateId": candidateID})
}

func (c *Client) SearchCandidates(ctx context.Context, query string) ([]CandidateHit, error) {
	apps, err := c.ActiveApplications(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var hits []CandidateHit
	for _, a := range apps {
		name := strings.ToLower(a.Candidate.Name)
		email := strings.ToLower(a.Candidate.PrimaryEmailAddress.Value)
		if strings.Contains(name, q) || strings.Contains(email, q) {
			hits = append(hits, hitFrom(a))
		}
	}
	return hits, nil
}

func (c *Client) InterviewStages(ctx context.Context) ([]Stage, error) {
	c.mu.Lock()
	cached := c.stagesCache
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	stages, err := listAll[Stage](ctx, c, "interviewStage.list", nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.stagesCache = stages
	c.mu.Unlock()
	return stages, nil
}

func (c *Client) StageByName(ctx context.Context, name string) (*Stage, error) {
	stages, err := c.InterviewStages(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range stages {
		if containsFold(s.Title, name) {
			return &s, nil
		}
	}
	return nil, errors.NotFound(fmt.Sprintf("no stage matching %q", name))
}

func (c *Client) UpcomingInterviews(ctx context.Context) ([]Interview, error) {
	schedules, err := listAll[Interview](ctx, c, "interviewSchedule.list", nil)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var upcoming []Interview
	for _, iv := range schedules {
		if iv.StartTime.After(now) {
			upcoming = append(upcoming, iv)
		}
	}
	return upcoming, nil
}

func (c *Client) Offers(ctx context.Context, status string) ([]Offer, error) {
	offers, err := listAll[Offer](ctx, c, "offer.list", nil)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return offers, nil
	}
	var out []Offer
	for _, o := range offers {
		if equalFold(o.Status, status) {
			out = append(out, o)
		}
	}
	return out, nil
}

// ==================== Writes ====================

// AddNote tags the note so ATS readers can trace it back to the bot and the
// Slack requester.
func (c *Client) AddNote(ctx context.Context, candidateID, note, requester string) error {
	tag := "[via Stagehand - " + time.Now().Format("2006-01-02 15:04")
	if requester != "" {
		tag += " - req: " + requester
	}
	tag += "]"
	_, err := c.post(ctx, "candidate.createNote", map[string]any{
		"candidateId": candidateID,
		"note":        tag + "\n" + note,
		"type":        "text",
	})
	return err
}

func (c *Client) MoveStage(ctx context.Context, applicationID, stageID string) error {
	_, err := c.post(ctx, "application.changeStage", map[string]any{
		"applicationId":    applicationID,
		"interviewStageId": stageID,
	})
	return err
}

func (c *Client) ScheduleInterview(ctx context.Context, applicationID, stageID, startTime string) error {
	_, err := c.post(ctx, "interviewSchedule.create", map[string]any{
		"applicationId":    applicationID,
		"interviewStageId": stageID,
		"startTime":        startTime,
	})
	return err
}

func (c *Client) RescheduleInterview(ctx context.Context, applicationID, scheduleID, reason string) error {
	_, err := c.post(ctx, "interviewSchedule.update", map[string]any{
		"applicationId":       applicationID,
		"interviewScheduleId": scheduleID,
		"reason":              reason,
	})
	return err
}

func (c *Client) CancelInterview(ctx context.Context, scheduleID, reason string) error {
	_, err := c.post(ctx, "interviewSchedule.cancel", map[string]any{
		"interviewScheduleId": scheduleID,
		"reason":              reason,
	})
	return err
}

func (c *Client) CreateCandidate(ctx context.Context, name, email string) (*Candidate, error) {
	resp, err := c.post(ctx, "candidate.create", map[string]any{
		"name":  name,
		"email": email,
	})
	if err != nil {
		return nil, err
	}
	var cand Candidate
	if err := json.Unmarshal(resp.Results, &cand); err != nil {
		return nil, fmt.Errorf("decode created candidate: %w", err)
	}
	return &cand, nil
}

func (c *Client) ApplyToJob(ctx context.Context, candidateID, jobID string) (string, error) {
	resp, err := c.post(ctx, "application.create", map[string]any{
		"candidateId": candidateID,
		"jobId":       jobID,
	})
	if err != nil {
		return "", err
	}
	var app Application
	if err := json.Unmarshal(resp.Results, &app); err != nil {
		return "", fmt.Errorf("decode created application: %w", err)
	}
	return app.ID, nil
}

func (c *Client) TransferApplication(ctx context.Context, applicationID, jobID string) error {
	_, err := c.post(ctx, "application.transfer", map[string]any{
		"applicationId": applicationID,
		"jobId":         jobID,
	})
	return err
}

func (c *Client) RejectCandidate(ctx context.Context, applicationID, reason string) error {
	_, err := c.post(ctx, "application.changeStage", map[string]any{
		"applicationId": applicationID,
		"archiveReason": reason,
		"archive":       true,
	})
	return err
}

func (c *Client) AddTag(ctx context.Context, candidateID, tag string) error {
	_, err := c.post(ctx, "candidate.addTag", map[string]any{
		"candidateId": candidateID,
		"title":       tag,
	})
	return err
}

func (c *Client) CreateOffer(ctx context.Context, applicationID string, salary float64) (string, error) {
	resp, err := c.post(ctx, "offer.create", map[string]any{
		"applicationId": applicationID,
		"salary":        salary,
	})
	if err != nil {
		return "", err
	}
	var offer Offer
	if err := json.Unmarshal(resp.Results, &offer); err != nil {
		return "", fmt.Errorf("decode created offer: %w", err)
	}
	return offer.ID, nil
}

func (c *Client) UpdateOffer(ctx context.Context, offerID string, salary float64) error {
	_, err := c.post(ctx, "offer.update", map[string]any{
		"offerId": offerID,
		"salary":  salary,
	})
	return err
}

func (c *Client) ApproveOffer(ctx context.Context, offerID string) error {
	_, err := c.post(ctx, "offer.approve", map[string]any{"offerId": offerID})
	return err
}

func (c *Client) SendOffer(ctx context.Context, offerID string) error {
	_, err := c.post(ctx, "offer.start", map[string]any{"offerId": offerID})
	return err
}

func (c *Client) SetReminder(ctx context.Context, candidateID, note, remindAt string) error {
	_, err := c.post(ctx, "candidate.createReminder", map[string]any{
		"candidateId": candidateID,
		"note":        note,
		"remindAt":    remindAt,
	})
	return err
}

func hitFrom(a Application) CandidateHit {
	return CandidateHit{
		Name:          a.Candidate.Name,
		Email:         a.Candidate.PrimaryEmailAddress.Value,
		CandidateID:   a.Candidate.ID,
		ApplicationID: a.ID,
		Job:           a.Job.Title,
		Stage:         a.CurrentInterviewStage.Title,
	}
}
