package ats

import "time"

type EmailValue struct {
	Value string `json:"value"`
}

type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type SocialLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Candidate struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	PrimaryEmailAddress EmailValue   `json:"primaryEmailAddress"`
	PrimaryPhoneNumber  EmailValue   `json:"primaryPhoneNumber"`
	Tags                []Tag        `json:"tags,omitempty"`
	SocialLinks         []SocialLink `json:"socialLinks,omitempty"`
}

type Job struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	EmploymentType string `json:"employmentType,omitempty"`
}

type Stage struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type,omitempty"`
	InterviewPlanID      string `json:"interviewPlanId,omitempty"`
	OrderInInterviewPlan int    `json:"orderInInterviewPlan,omitempty"`
}

type Source struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Application struct {
	ID                    string    `json:"id"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
	Candidate             Candidate `json:"candidate"`
	Job                   Job       `json:"job"`
	CurrentInterviewStage Stage     `json:"currentInterviewStage"`
	Source                Source    `json:"source"`
}

type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    struct {
		Name string `json:"name"`
	} `json:"author"`
}

type Offer struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	Application Application `json:"application"`
	Salary      float64     `json:"salary,omitempty"`
}

type Posting struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	DescriptionPlain string `json:"descriptionPlain,omitempty"`
	DescriptionHTML  string `json:"descriptionHtml,omitempty"`
}

type Interview struct {
	ID          string      `json:"id"`
	StartTime   time.Time   `json:"startTime"`
	Application Application `json:"application"`
	Stage       Stage       `json:"interviewStage"`
	Interviewer []struct {
		Name string `json:"name"`
	} `json:"interviewers,omitempty"`
}

// CandidateHit is a flattened search result joining candidate and active
// application fields, the shape the model works with.
type CandidateHit struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CandidateID   string `json:"candidate_id"`
	ApplicationID string `json:"application_id"`
	Job           string `json:"job"`
	Stage         string `json:"stage"`
}

type StaleCandidate struct {
	CandidateHit
	DaysInStage int `json:"days_in_stage"`
}

type RecentApplication struct {
	CandidateHit
	DaysAgo int    `json:"days_ago"`
	Source  string `json:"source"`
}

type DecisionCandidate struct {
	CandidateHit
	DaysWaiting int `json:"days_waiting"`
}

type PipelineSummary struct {
	TotalActive   int            `json:"total_active"`
	OpenJobs      int            `json:"open_jobs"`
	ByStage       map[string]int `json:"by_stage"`
	ByJob         map[string]int `json:"by_job"`
	OpenJobTitles []string       `json:"open_job_titles"`
}

// IsHired reports whether the application represents a hired candidate. Hired
// records are protected: reads filter them, writes against them are denied.
func (a Application) IsHired() bool {
	return equalFold(a.Status, "hired") || containsFold(a.CurrentInterviewStage.Title, "hired")
}
