package board

import "time"

// ─── Entities ────────────────────────────────────────────────────────────────

// Job is a job listing owned by an employer. JobID, EmployerID and CreatedAt
// are immutable after creation.
type Job struct {
	JobID            string    `json:"jobId"`
	EmployerID       string    `json:"employerId"`
	JobTitle         string    `json:"jobTitle"`
	JobDescription   string    `json:"jobDescription"`
	Qualifications   *string   `json:"qualifications"`
	Responsibilities *string   `json:"responsibilities"`
	JobType          string    `json:"jobType"`
	Location         string    `json:"location"`
	SalaryRange      *string   `json:"salaryRange"`
	Status           JobStatus `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Application is a job seeker's application to one job. Exactly one
// application may exist per (JobID, JobSeekerID) pair. DecidedAt is set on
// the first (and only) transition out of PENDING.
type Application struct {
	ApplicationID string            `json:"applicationId"`
	JobID         string            `json:"jobId"`
	JobSeekerID   string            `json:"jobSeekerId"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
	DecidedAt     *time.Time        `json:"decidedAt"`
}

// JobPatch carries the mutable job fields of an update request. Nil means
// "leave unchanged". Status, when set, must be a legal transition target.
type JobPatch struct {
	JobTitle         *string
	JobDescription   *string
	Qualifications   *string
	Responsibilities *string
	JobType          *string
	Location         *string
	SalaryRange      *string
	Status           *JobStatus
}

// Empty reports whether the patch changes nothing.
func (p JobPatch) Empty() bool {
	return p.JobTitle == nil && p.JobDescription == nil && p.Qualifications == nil &&
		p.Responsibilities == nil && p.JobType == nil && p.Location == nil &&
		p.SalaryRange == nil && p.Status == nil
}

// ─── Read-model rows ─────────────────────────────────────────────────────────

// EmployerJobItem is one row of an employer's own job list, carrying the
// application count computed from the same read.
type EmployerJobItem struct {
	JobID             string    `json:"jobId"`
	JobTitle          string    `json:"jobTitle"`
	Status            JobStatus `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	ApplicationsCount int       `json:"applicationsCount"`
}

// PublicJobItem is one row of the seeker-facing browse list, joined with the
// employer profile's company name.
type PublicJobItem struct {
	JobID       string    `json:"jobId"`
	JobTitle    string    `json:"jobTitle"`
	CompanyName string    `json:"companyName"`
	Location    string    `json:"location"`
	JobType     string    `json:"jobType"`
	SalaryRange *string   `json:"salaryRange"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JobDetail is the full job view joined with the company name.
type JobDetail struct {
	Job
	CompanyName string `json:"companyName"`
}

// Candidate holds the denormalized job seeker profile fields shown to the
// owning employer on an application detail view. Profile data is owned by the
// profile service; the core only reads it.
type Candidate struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Skills    *string `json:"skills"`
	ResumeURL *string `json:"resumeUrl"`
}

// ApplicationDetail is an application joined with its parent job and the
// candidate profile. JobEmployerID carries the owner for scope checks.
type ApplicationDetail struct {
	Application
	JobTitle      string    `json:"jobTitle"`
	JobEmployerID string    `json:"-"`
	Candidate     Candidate `json:"candidate"`
}

// EmployerApplicationRow is one application in an employer snapshot, joined
// with display fields at read time.
type EmployerApplicationRow struct {
	Application
	JobTitle      string `json:"jobTitle"`
	CandidateName string `json:"candidateName"`
}

// SeekerApplicationRow is one application in a job seeker snapshot.
type SeekerApplicationRow struct {
	Application
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

// EmployerSnapshot is one consistent point-in-time read of everything an
// employer dashboard needs. All aggregation numbers derive from one snapshot
// so they cannot tear against each other.
type EmployerSnapshot struct {
	Jobs         []Job
	Applications []EmployerApplicationRow
}

// SeekerSnapshot is one consistent point-in-time read of a seeker's
// applications joined with job title and company.
type SeekerSnapshot struct {
	Applications []SeekerApplicationRow
}

// ─── Dashboard views ─────────────────────────────────────────────────────────

// JobSummary is the employer KPI pair over their job set.
type JobSummary struct {
	TotalJobs  int `json:"totalJobs"`
	ActiveJobs int `json:"activeJobs"`
}

// ApplicationSummary groups application counts by status.
type ApplicationSummary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// EmployerDashboard is the full employer read model, computed fresh per call.
type EmployerDashboard struct {
	JobSummary           JobSummary               `json:"jobSummary"`
	ApplicationSummary   ApplicationSummary       `json:"applicationSummary"`
	JobApplicationCounts map[string]int           `json:"jobApplicationCounts"`
	RecentApplications   []EmployerApplicationRow `json:"recentApplications"`
}

/// JobSeekerDashboard is the seeker read model: a summary plus the ordered
// application list, newest first.
type JobSeekerDashboard struct {
	Summary      ApplicationSummary     `json:"summary"`
	Applications []SeekerApplicationRow `json:"applications"`
}
