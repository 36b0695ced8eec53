package board

import (
	"context"
	"time"
)

// Store is the entity store contract the service runs against. The Postgres
// implementation lives in internal/store; an in-memory implementation backs
// the tests.
//
// Error contract: missing rows surface ErrNotFound, unique-pair violations
// surface ErrDuplicateApplication, and timeouts or connection failures
// surface ErrStoreUnavailable (all wrapped with operation context). Every
// method honours ctx cancellation.
//
// Atomicity contract: UpdateJob and TransitionApplication
// perform the status check and the write as one atomic unit (a conditional
// update on the current status). DeleteJobCascade removes the job and all its
// applications together, never partially. Snapshot reads observe one
// consistent point in time.
type Store interface {
	// ─── Jobs ───────────────────────────────────────────────────────────────

	InsertJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	GetJobDetail(ctx context.Context, jobID string) (*JobDetail, error)

	// UpdateJob applies the patch in one statement. When patch.Status is set,
	// fromStatuses is the compare set: the update only commits if the current
	// status is in it. Zero rows matched with the job present means the
	// transition lost the compare — the caller maps that to
	// ErrInvalidTransition.
	UpdateJob(ctx context.Context, jobID string, patch JobPatch, fromStatuses []JobStatus) (*Job, error)

	// DeleteJobCascade removes the job and every application referencing it
	// atomically, returning the number of applications removed.
	DeleteJobCascade(ctx context.Context, jobID string) (int64, error)

	ListEmployerJobs(ctx context.Context, employerID string) ([]EmployerJobItem, error)
	ListPublicJobs(ctx context.Context, status *JobStatus) ([]PublicJobItem, error)

	// ─── Applications ───────────────────────────────────────────────────────

	InsertApplication(ctx context.Context, a *Application) error
	GetApplicationDetail(ctx context.Context, applicationID string) (*ApplicationDetail, error)
	HasApplication(ctx context.Context, jobID, jobSeekerID string) (bool, error)

	// TransitionApplication moves the application out of PENDING, setting
	// DecidedAt, as one conditional update. Zero rows matched with the row
	// present means the application was already decided.
	TransitionApplication(ctx context.Context, applicationID string, to ApplicationStatus, decidedAt time.Time) (*Application, error)

	// ─── Snapshots (aggregation reads) ──────────────────────────────────────

	EmployerSnapshot(ctx context.Context, employerID string) (*EmployerSnapshot, error)
	SeekerSnapshot(ctx context.Context, jobSeekerID string) (*SeekerSnapshot, error)

	// PendingCountsByEmployer returns the number of PENDING applications per
	// employer across the whole store. Feeds the review-reminder digest.
	PendingCountsByEmployer(ctx context.Context) (map[string]int, error)
}
