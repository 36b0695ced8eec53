// The Service type contains the pure business logic for the board service.
// It is transport-agnostic: used by the HTTP handler (handler.go) and the
// reminder scheduler, and runs against any Store implementation.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event channels published for the gateway to forward over SSE.
const (
	EventJobStatusChanged   = "EVENT_JOB_STATUS_CHANGED"
	EventJobDeleted         = "EVENT_JOB_DELETED"
	EventApplicationCreated = "EVENT_APPLICATION_RECEIVED"
	EventApplicationDecided = "EVENT_APPLICATION_DECIDED"
)

// Service encapsulates the job/application lifecycle logic: scope checks,
// state-machine enforcement and dashboard aggregation over the entity store.
type Service struct {
	store Store
	rdb   *redis.Client // nil disables event publishing

	recentLimit int
	now         func() time.Time
}

// NewService returns a configured Service. recentLimit is the default length
// of the employer recent-applications feed.
func NewService(store Store, rdb *redis.Client, recentLimit int) *Service {
	return &Service{
		store:       store,
		rdb:         rdb,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

// CreateJobInput carries the validated fields of a job creation request.
// Status is optional; new jobs default to ACTIVE.
type CreateJobInput struct {
	JobTitle         string
	JobDescription   string
	Qualifications   *string
	Responsibilities *string
	JobType          string
	Location         string
	SalaryRange      *string
	Status           *JobStatus
}

// CreateJob creates a job owned by the calling employer. Only DRAFT may be
// requested explicitly; anything else starts ACTIVE.
func (s *Service) CreateJob(ctx context.Context, caller Caller, in CreateJobInput) (*Job, error) {
	if caller.Role != RoleEmployer {
		return nil, fmt.Errorf("%w: only employers may post jobs", ErrNotAuthorized)
	}

	status := JobActive
	if in.Status != nil {
		switch *in.Status {
		case JobDraft, JobActive:
			status = *in.Status
		default:
			return nil, &ValidationError{Msg: fmt.Sprintf("a job cannot be created as %s", *in.Status)}
		}
	}

	now := s.now().UTC()
	job := &Job{
		JobID:            uuid.NewString(),
		EmployerID:       caller.ID,
		JobTitle:         in.JobTitle,
		JobDescription:   in.JobDescription,
		Qualifications:   in.Qualifications,
		Responsibilities: in.Responsibilities,
		JobType:          in.JobType,
		Location:         in.Location,
		SalaryRange:      in.SalaryRange,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.InsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("createJob insert: %w", err)
	}
	return job, nil
}

// ListEmployerJobs returns the caller's own jobs with application counts,
// optionally narrowed to one status.
func (s *Service) ListEmployerJobs(ctx context.Context, caller Caller, status *JobStatus) ([]EmployerJobItem, error) {
	if caller.Role != RoleEmployer {
		return nil, fmt.Errorf("%w: employer listing requires the employer role", ErrNotAuthorized)
	}

	items, err := s.store.ListEmployerJobs(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("listEmployerJobs: %w", err)
	}
	if status == nil {
		return items, nil
	}

	filtered := make([]EmployerJobItem, 0, len(items))
	for _, it := range items {
		if it.Status == *status {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// BrowseJobs returns the seeker-facing job list. The seeker scope predicate
// only covers ACTIVE jobs, so a filter asking for anything else intersects to
// an empty result rather than widening visibility.
func (s *Service) BrowseJobs(ctx context.Context, caller Caller, status *JobStatus) ([]PublicJobItem, error) {
	if caller.Role != RoleJobSeeker {
		return nil, fmt.Errorf("%w: browse requires the job_seeker role", ErrNotAuthorized)
	}
	if status != nil && *status != JobActive {
		return []PublicJobItem{}, nil
	}

	active := JobActive
	items, err := s.store.ListPublicJobs(ctx, &active)
	if err != nil {
		return nil, fmt.Errorf("browseJobs: %w", err)
	}
	return items, nil
}

// GetJob returns the job detail when the caller's scope covers it. Jobs
// outside the caller's scope are indistinguishable from missing ones.
func (s *Service) GetJob(ctx context.Context, caller Caller, jobID string) (*JobDetail, error) {
	detail, err := s.store.GetJobDetail(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}

	hasApplied := false
	if caller.Role == RoleJobSeeker && detail.Status != JobActive {
		hasApplied, err = s.store.HasApplication(ctx, jobID, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("getJob application lookup: %w", err)
		}
	}
	if !caller.CanReadJob(&detail.Job, hasApplied) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
	}
	return detail, nil
}

// UpdateJob applies a field patch and/or a status transition to a job owned
// by the calling employer. The whole patch commits atomically or not at all.
func (s *Service) UpdateJob(ctx context.Context, caller Caller, jobID string, patch JobPatch) (*Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("updateJob lookup: %w", err)
	}
	if !caller.CanMutateJob(job) {
		return nil, fmt.Errorf("%w: job %s belongs to another employer", ErrNotAuthorized, jobID)
	}
	if patch.Empty() {
		return job, nil
	}

	var fromStatuses []JobStatus
	if patch.Status != nil {
		to := *patch.Status
		if !IsJobTransitionAllowed(job.Status, to) {
			return nil, fmt.Errorf("%w: job %s → %s", ErrInvalidTransition, job.Status, to)
		}
		// Compare set of the conditional update: every legal source of `to`.
		// A concurrent transition between the read above and the write below
		// makes the update match zero rows instead of committing stale state.
		fromStatuses = JobTransitionSources(to)
	}

	updated, err := s.store.UpdateJob(ctx, jobID, patch, fromStatuses)
	if err != nil {
		return nil, fmt.Errorf("updateJob: %w", err)
	}

	if patch.Status != nil && updated.Status != job.Status {
		s.publish(ctx, EventJobStatusChanged, map[string]string{
			"type":       EventJobStatusChanged,
			"jobId":      jobID,
			"employerId": caller.ID,
			"from":       string(job.Status),
			"to":         string(updated.Status),
		})
	}
	return updated, nil
}

// DeleteJob removes a job owned by the calling employer together with all of
// its applications. Allowed from any status; the cascade is atomic.
func (s *Service) DeleteJob(ctx context.Context, caller Caller, jobID string) error {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("deleteJob lookup: %w", err)
	}
	if !caller.CanMutateJob(job) {
		return fmt.Errorf("%w: job %s belongs to another employer", ErrNotAuthorized, jobID)
	}

	removed, err := s.store.DeleteJobCascade(ctx, jobID)
	if err != nil {
		return fmt.Errorf("deleteJob cascade: %w", err)
	}

	s.publish(ctx, EventJobDeleted, map[string]string{
		"type":                EventJobDeleted,
		"jobId":               jobID,
		"employerId":          caller.ID,
		"applicationsRemoved": fmt.Sprintf("%d", removed),
	})
	return nil
}

// ─── Applications ────────────────────────────────────────────────────────────

// ApplyToJob files a PENDING application by the calling seeker. The parent
// job must be ACTIVE and the seeker must not have applied before, in any
// status. The store's unique (job, seeker) constraint backstops the pre-check
// against concurrent duplicates.
func (s *Service) ApplyToJob(ctx context.Context, caller Caller, jobID string) (*Application, error) {
	if caller.Role != RoleJobSeeker {
		return nil, fmt.Errorf("%w: only job seekers may apply", ErrNotAuthorized)
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("applyToJob lookup: %w", err)
	}
	if job.Status != JobActive {
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobNotOpen, jobID, job.Status)
	}

	applied, err := s.store.HasApplication(ctx, jobID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("applyToJob duplicate check: %w", err)
	}
	if applied {
		return nil, ErrDuplicateApplication
	}

	app := &Application{
		ApplicationID: uuid.NewString(),
		JobID:         jobID,
		JobSeekerID:   caller.ID,
		Status:        ApplicationPending,
		AppliedAt:     s.now().UTC(),
	}
	if err := s.store.InsertApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("applyToJob insert: %w", err)
	}

	s.publish(ctx, EventApplicationCreated, map[string]string{
		"type":          EventApplicationCreated,
		"applicationId": app.ApplicationID,
		"jobId":         jobID,
		"employerId":    job.EmployerID,
	})
	return app, nil
}

// GetApplication returns the application detail for the owning employer or
// the seeker who filed it.
func (s *Service) GetApplication(ctx context.Context, caller Caller, applicationID string) (*ApplicationDetail, error) {
	detail, err := s.store.GetApplicationDetail(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("getApplication: %w", err)
	}
	if !caller.CanReadApplication(detail) {
		return nil, fmt.Errorf("%w: application %s", ErrNotAuthorized, applicationID)
	}
	return detail, nil
}

// UpdateApplicationStatus decides a PENDING application. Only the employer
// owning the parent job may decide; both targets are terminal.
func (s *Service) UpdateApplicationStatus(ctx context.Context, caller Caller, applicationID string, to ApplicationStatus) (*ApplicationDetail, error) {
	if caller.Role != RoleEmployer {
		return nil, fmt.Errorf("%w: only the hiring employer may decide an application", ErrNotAuthorized)
	}

	detail, err := s.store.GetApplicationDetail(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("updateApplicationStatus lookup: %w", err)
	}
	if !caller.CanDecideApplication(detail) {
		return nil, fmt.Errorf("%w: application %s belongs to another employer's job", ErrNotAuthorized, applicationID)
	}
	if !IsApplicationTransitionAllowed(detail.Status, to) {
		return nil, fmt.Errorf("%w: application %s → %s", ErrInvalidTransition, detail.Status, to)
	}

	// Conditional update from PENDING: a concurrent decision makes this match
	// zero rows, so two racing accepts can never both commit.
	updated, err := s.store.TransitionApplication(ctx, applicationID, to, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("updateApplicationStatus: %w", err)
	}
	detail.Application = *updated

	s.publish(ctx, EventApplicationDecided, map[string]string{
		"type":          EventApplicationDecided,
		"applicationId": applicationID,
		"jobId":         detail.JobID,
		"jobSeekerId":   detail.JobSeekerID,
		"status":        string(updated.Status),
	})
	return detail, nil
}

// ─── Dashboards ──────────────────────────────────────────────────────────────

// GetEmployerDashboard computes the employer read model from one store
// snapshot. limit <= 0 falls back to the configured default.
func (s *Service) GetEmployerDashboard(ctx context.Context, caller Caller, limit int) (*EmployerDashboard, error) {
	if scope, err := DashboardFor(caller.Role); err != nil || scope != ScopeEmployerDashboard {
		return nil, fmt.Errorf("%w: employer dashboard requires the employer role", ErrNotAuthorized)
	}
	if limit <= 0 {
		limit = s.recentLimit
	}

	snap, err := s.store.EmployerSnapshot(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("employerDashboard snapshot: %w", err)
	}
	return BuildEmployerDashboard(snap, limit), nil
}

// GetJobSeekerDashboard computes the seeker read model from one store
// snapshot.
func (s *Service) GetJobSeekerDashboard(ctx context.Context, caller Caller) (*JobSeekerDashboard, error) {
	if scope, err := DashboardFor(caller.Role); err != nil || scope != ScopeJobSeekerDashboard {
		return nil, fmt.Errorf("%w: seeker dashboard requires the job_seeker role", ErrNotAuthorized)
	}

	snap, err := s.store.SeekerSnapshot(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("jobSeekerDashboard snapshot: %w", err)
	}
	return BuildJobSeekerDashboard(snap), nil
}

// PendingCountsByEmployer exposes the reminder digest source.
func (s *Service) PendingCountsByEmployer(ctx context.Context) (map[string]int, error) {
	counts, err := s.store.PendingCountsByEmployer(ctx)
	if err != nil {
		return nil, fmt.Errorf("pendingCountsByEmployer: %w", err)
	}
	return counts, nil
}

// publish sends an event to Redis for the gateway SSE forward (non-fatal).
func (s *Service) publish(ctx context.Context, channel string, payload map[string]string) {
	if s.rdb == nil {
		return
	}
	event, _ := json.Marshal(payload)
	if err := s.rdb.Publish(ctx, channel, event).Err(); err != nil {
		slog.Warn("publish failed", "channel", channel, "err", err)
	}
}
