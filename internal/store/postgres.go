// Package store provides the entity store implementations behind
// board.Store: Postgres for production and an in-memory store for tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobdesk/board-service/internal/board"
)

const jobColumns = `job_id, employer_id, job_title, job_description, qualifications,
	responsibilities, job_type, location, salary_range, status, created_at, updated_at`

const applicationColumns = `application_id, job_id, job_seeker_id, status, applied_at, decided_at`

// Postgres implements board.Store over a pgxpool.Pool. Every call is bounded
// by timeout; deadline and connection failures surface as
// board.ErrStoreUnavailable.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgres returns a Postgres store. timeout <= 0 disables the per-call
// bound.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	return &Postgres{pool: pool, timeout: timeout}
}

// Migrate creates the tables this service owns. The profile and user tables
// are owned by the profile/auth services and only read here; lightweight
// copies are created so joins resolve on a fresh database.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS job_listings (
	job_id           TEXT PRIMARY KEY,
	employer_id      TEXT NOT NULL,
	job_title        VARCHAR(255) NOT NULL,
	job_description  TEXT NOT NULL,
	qualifications   TEXT,
	responsibilities TEXT,
	job_type         VARCHAR(32) NOT NULL,
	location         VARCHAR(200) NOT NULL,
	salary_range     VARCHAR(120),
	status           VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_listings_employer ON job_listings (employer_id);
CREATE INDEX IF NOT EXISTS idx_job_listings_status   ON job_listings (status);

CREATE TABLE IF NOT EXISTS job_applications (
	application_id TEXT PRIMARY KEY,
	job_id         TEXT NOT NULL REFERENCES job_listings (job_id) ON DELETE CASCADE,
	job_seeker_id  TEXT NOT NULL,
	status         VARCHAR(16) NOT NULL DEFAULT 'PENDING',
	applied_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	decided_at     TIMESTAMPTZ,
	CONSTRAINT uq_job_applications_job_seeker UNIQUE (job_id, job_seeker_id)
);
CREATE INDEX IF NOT EXISTS idx_job_applications_seeker ON job_applications (job_seeker_id);
CREATE INDEX IF NOT EXISTS idx_job_applications_status ON job_applications (status);

CREATE TABLE IF NOT EXISTS users (
	id    TEXT PRIMARY KEY,
	email VARCHAR(320) NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS employer_profiles (
	user_id      TEXT PRIMARY KEY,
	company_name VARCHAR(200) NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS job_seeker_profiles (
	user_id    TEXT PRIMARY KEY,
	full_name  VARCHAR(200) NOT NULL DEFAULT '',
	email      VARCHAR(320) NOT NULL DEFAULT '',
	skills     TEXT,
	phone      VARCHAR(40),
	resume_url VARCHAR(1024)
);`)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

func (p *Postgres) InsertJob(ctx context.Context, j *board.Job) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO job_listings (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.JobID, j.EmployerID, j.JobTitle, j.JobDescription, j.Qualifications,
		j.Responsibilities, j.JobType, j.Location, j.SalaryRange,
		string(j.Status), j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return p.wrap("insertJob", err)
	}
	return nil
}

func (p *Postgres) GetJob(ctx context.Context, jobID string) (*board.Job, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	row := p.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM job_listings WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		return nil, p.wrap("getJob", err)
	}
	return job, nil
}

func (p *Postgres) GetJobDetail(ctx context.Context, jobID string) (*board.JobDetail, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	var (
		d         board.JobDetail
		rawStatus string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT j.job_id, j.employer_id, j.job_title, j.job_description,
		        j.qualifications, j.responsibilities, j.job_type, j.location,
		        j.salary_range, j.status, j.created_at, j.updated_at,
		        COALESCE(ep.company_name, '')
		 FROM job_listings j
		 LEFT JOIN employer_profiles ep ON ep.user_id = j.employer_id
		 WHERE j.job_id = $1`, jobID,
	).Scan(
		&d.JobID, &d.EmployerID, &d.JobTitle, &d.JobDescription,
		&d.Qualifications, &d.Responsibilities, &d.JobType, &d.Location,
		&d.SalaryRange, &rawStatus, &d.CreatedAt, &d.UpdatedAt,
		&d.CompanyName,
	)
	if err != nil {
		return nil, p.wrap("getJobDetail", err)
	}
	d.Status = board.JobStatus(rawStatus)
	return &d, nil
}

func (p *Postgres) UpdateJob(ctx context.Context, jobID string, patch board.JobPatch, fromStatuses []board.JobStatus) (*board.Job, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	set := []string{"updated_at = NOW()"}
	args := []any{}
	n := 0
	add := func(col string, v any) {
		n++
		set = append(set, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, v)
	}
	if patch.JobTitle != nil {
		add("job_title", *patch.JobTitle)
	}
	if patch.JobDescription != nil {
		add("job_description", *patch.JobDescription)
	}
	if patch.Qualifications != nil {
		add("qualifications", *patch.Qualifications)
	}
	if patch.Responsibilities != nil {
		add("responsibilities", *patch.Responsibilities)
	}
	if patch.JobType != nil {
		add("job_type", *patch.JobType)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.SalaryRange != nil {
		add("salary_range", *patch.SalaryRange)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	n++
	where := fmt.Sprintf("job_id = $%d", n)
	args = append(args, jobID)

	// Status changes carry a compare set so the transition check and the
	// write commit as one statement.
	if patch.Status != nil {
		from := make([]string, len(fromStatuses))
		for i, s := range fromStatuses {
			from[i] = string(s)
		}
		n++
		where += fmt.Sprintf(" AND status = ANY($%d)", n)
		args = append(args, from)
	}

	row := p.pool.QueryRow(ctx,
		`UPDATE job_listings SET `+strings.Join(set, ", ")+
			` WHERE `+where+` RETURNING `+jobColumns,
		args...,
	)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if errors.Is(err, pgx.ErrNoRows) && patch.Status != nil {
		// Lost the status compare — distinguish a vanished job from an
		// illegal transition.
		current, gerr := p.GetJob(ctx, jobID)
		if gerr != nil {
			return nil, gerr
		}
		return nil, fmt.Errorf("updateJob: %w: job %s → %s",
			board.ErrInvalidTransition, current.Status, *patch.Status)
	}
	return nil, p.wrap("updateJob", err)
}

func (p *Postgres) DeleteJobCascade(ctx context.Context, jobID string) (int64, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, p.wrap("deleteJobCascade begin", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM job_applications WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, p.wrap("deleteJobCascade applications", err)
	}
	removed := tag.RowsAffected()

	jobTag, err := tx.Exec(ctx, `DELETE FROM job_listings WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, p.wrap("deleteJobCascade job", err)
	}
	if jobTag.RowsAffected() == 0 {
		return 0, fmt.Errorf("deleteJobCascade: %w", board.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, p.wrap("deleteJobCascade commit", err)
	}
	return removed, nil
}

func (p *Postgres) ListEmployerJobs(ctx context.Context, employerID string) ([]board.EmployerJobItem, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT j.job_id, j.job_title, j.status, j.created_at,
		        COUNT(a.application_id)
		 FROM job_listings j
		 LEFT JOIN job_applications a ON a.job_id = j.job_id
		 WHERE j.employer_id = $1
		 GROUP BY j.job_id, j.job_title, j.status, j.created_at
		 ORDER BY j.created_at DESC`,
		employerID,
	)
	if err != nil {
		return nil, p.wrap("listEmployerJobs query", err)
	}
	defer rows.Close()

	items := make([]board.EmployerJobItem, 0)
	for rows.Next() {
		var (
			it        board.EmployerJobItem
			rawStatus string
		)
		if err := rows.Scan(&it.JobID, &it.JobTitle, &rawStatus, &it.CreatedAt, &it.ApplicationsCount); err != nil {
			return nil, p.wrap("listEmployerJobs scan", err)
		}
		it.Status = board.JobStatus(rawStatus)
		items = append(items, it)
	}
	return items, p.wrap("listEmployerJobs rows", rows.Err())
}

func (p *Postgres) ListPublicJobs(ctx context.Context, status *board.JobStatus) ([]board.PublicJobItem, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	const base = `
		SELECT j.job_id, j.job_title, COALESCE(ep.company_name, ''),
		       j.location, j.job_type, j.salary_range, j.created_at
		FROM job_listings j
		LEFT JOIN employer_profiles ep ON ep.user_id = j.employer_id`

	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = p.pool.Query(ctx, base+` WHERE j.status = $1 ORDER BY j.created_at DESC`, string(*status))
	} else {
		rows, err = p.pool.Query(ctx, base+` ORDER BY j.created_at DESC`)
	}
	if err != nil {
		return nil, p.wrap("listPublicJobs query", err)
	}
	defer rows.Close()

	items := make([]board.PublicJobItem, 0)
	for rows.Next() {
		var it board.PublicJobItem
		if err := rows.Scan(&it.JobID, &it.JobTitle, &it.CompanyName,
			&it.Location, &it.JobType, &it.SalaryRange, &it.CreatedAt); err != nil {
			return nil, p.wrap("listPublicJobs scan", err)
		}
		items = append(items, it)
	}
	return items, p.wrap("listPublicJobs rows", rows.Err())
}

// ─── Applications ────────────────────────────────────────────────────────────

func (p *Postgres) InsertApplication(ctx context.Context, a *board.Application) error {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO job_applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ApplicationID, a.JobID, a.JobSeekerID, string(a.Status), a.AppliedAt, a.DecidedAt,
	)
	if err != nil {
		return p.wrap("insertApplication", err)
	}
	return nil
}

func (p *Postgres) GetApplicationDetail(ctx context.Context, applicationID string) (*board.ApplicationDetail, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	var (
		d         board.ApplicationDetail
		rawStatus string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT a.application_id, a.job_id, a.job_seeker_id, a.status,
		        a.applied_at, a.decided_at,
		        j.job_title, j.employer_id,
		        COALESCE(NULLIF(p.full_name, ''), u.email, ''),
		        COALESCE(u.email, ''),
		        p.phone, p.skills, p.resume_url
		 FROM job_applications a
		 JOIN job_listings j ON j.job_id = a.job_id
		 LEFT JOIN users u ON u.id = a.job_seeker_id
		 LEFT JOIN job_seeker_profiles p ON p.user_id = a.job_seeker_id
		 WHERE a.application_id = $1`, applicationID,
	).Scan(
		&d.ApplicationID, &d.JobID, &d.JobSeekerID, &rawStatus,
		&d.AppliedAt, &d.DecidedAt,
		&d.JobTitle, &d.JobEmployerID,
		&d.Candidate.Name, &d.Candidate.Email,
		&d.Candidate.Phone, &d.Candidate.Skills, &d.Candidate.ResumeURL,
	)
	if err != nil {
		return nil, p.wrap("getApplicationDetail", err)
	}
	d.Status = board.ApplicationStatus(rawStatus)
	return &d, nil
}

func (p *Postgres) HasApplication(ctx context.Context, jobID, jobSeekerID string) (bool, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM job_applications WHERE job_id = $1 AND job_seeker_id = $2
		 )`, jobID, jobSeekerID,
	).Scan(&exists)
	if err != nil {
		return false, p.wrap("hasApplication", err)
	}
	return exists, nil
}

func (p *Postgres) TransitionApplication(ctx context.Context, applicationID string, to board.ApplicationStatus, decidedAt time.Time) (*board.Application, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	row := p.pool.QueryRow(ctx,
		`UPDATE job_applications
		 SET status = $1, decided_at = $2
		 WHERE application_id = $3 AND status = $4
		 RETURNING `+applicationColumns,
		string(to), decidedAt, applicationID, string(board.ApplicationPending),
	)
	app, err := scanApplication(row)
	if err == nil {
		return app, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or it already left PENDING.
		var current string
		lerr := p.pool.QueryRow(ctx,
			`SELECT status FROM job_applications WHERE application_id = $1`,
			applicationID,
		).Scan(&current)
		if lerr != nil {
			return nil, p.wrap("transitionApplication lookup", lerr)
		}
		return nil, fmt.Errorf("transitionApplication: %w: application %s → %s",
			board.ErrInvalidTransition, current, to)
	}
	return nil, p.wrap("transitionApplication", err)
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

// EmployerSnapshot reads jobs and joined applications inside one
// repeatable-read transaction so the dashboard derives from a single point in
// time.
func (p *Postgres) EmployerSnapshot(ctx context.Context, employerID string) (*board.EmployerSnapshot, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, p.wrap("employerSnapshot begin", err)
	}
	defer tx.Rollback(ctx)

	jobs, err := p.snapshotJobs(ctx, tx, employerID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT a.application_id, a.job_id, a.job_seeker_id, a.status,
		        a.applied_at, a.decided_at,
		        j.job_title,
		        COALESCE(NULLIF(p.full_name, ''), u.email, '')
		 FROM job_applications a
		 JOIN job_listings j ON j.job_id = a.job_id
		 LEFT JOIN users u ON u.id = a.job_seeker_id
		 LEFT JOIN job_seeker_profiles p ON p.user_id = a.job_seeker_id
		 WHERE j.employer_id = $1
		 ORDER BY a.applied_at DESC, a.application_id DESC`,
		employerID,
	)
	if err != nil {
		return nil, p.wrap("employerSnapshot applications", err)
	}
	defer rows.Close()

	apps := make([]board.EmployerApplicationRow, 0)
	for rows.Next() {
		var (
			r         board.EmployerApplicationRow
			rawStatus string
		)
		if err := rows.Scan(&r.ApplicationID, &r.JobID, &r.JobSeekerID, &rawStatus,
			&r.AppliedAt, &r.DecidedAt, &r.JobTitle, &r.CandidateName); err != nil {
			return nil, p.wrap("employerSnapshot scan", err)
		}
		r.Status = board.ApplicationStatus(rawStatus)
		apps = append(apps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap("employerSnapshot rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, p.wrap("employerSnapshot commit", err)
	}
	return &board.EmployerSnapshot{Jobs: jobs, Applications: apps}, nil
}

// SeekerSnapshot reads the seeker's applications joined with job title and
// company name inside one repeatable-read transaction.
func (p *Postgres) SeekerSnapshot(ctx context.Context, jobSeekerID string) (*board.SeekerSnapshot, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, p.wrap("seekerSnapshot begin", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT a.application_id, a.job_id, a.job_seeker_id, a.status,
		        a.applied_at, a.decided_at,
		        j.job_title, COALESCE(ep.company_name, '')
		 FROM job_applications a
		 JOIN job_listings j ON j.job_id = a.job_id
		 LEFT JOIN employer_profiles ep ON ep.user_id = j.employer_id
		 WHERE a.job_seeker_id = $1
		 ORDER BY a.applied_at DESC, a.application_id DESC`,
		jobSeekerID,
	)
	if err != nil {
		return nil, p.wrap("seekerSnapshot query", err)
	}
	defer rows.Close()

	apps := make([]board.SeekerApplicationRow, 0)
	for rows.Next() {
		var (
			r         board.SeekerApplicationRow
			rawStatus string
		)
		if err := rows.Scan(&r.ApplicationID, &r.JobID, &r.JobSeekerID, &rawStatus,
			&r.AppliedAt, &r.DecidedAt, &r.JobTitle, &r.CompanyName); err != nil {
			return nil, p.wrap("seekerSnapshot scan", err)
		}
		r.Status = board.ApplicationStatus(rawStatus)
		apps = append(apps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, p.wrap("seekerSnapshot rows", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, p.wrap("seekerSnapshot commit", err)
	}
	return &board.SeekerSnapshot{Applications: apps}, nil
}

func (p *Postgres) PendingCountsByEmployer(ctx context.Context) (map[string]int, error) {
	ctx, cancel := p.bound(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT j.employer_id, COUNT(*)
		 FROM job_applications a
		 JOIN job_listings j ON j.job_id = a.job_id
		 WHERE a.status = $1
		 GROUP BY j.employer_id`,
		string(board.ApplicationPending),
	)
	if err != nil {
		return nil, p.wrap("pendingCountsByEmployer query", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			employerID string
			count      int
		)
		if err := rows.Scan(&employerID, &count); err != nil {
			return nil, p.wrap("pendingCountsByEmployer scan", err)
		}
		counts[employerID] = count
	}
	return counts, p.wrap("pendingCountsByEmployer rows", rows.Err())
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (p *Postgres) snapshotJobs(ctx context.Context, tx pgx.Tx, employerID string) ([]board.Job, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+jobColumns+` FROM job_listings
		 WHERE employer_id = $1 ORDER BY created_at DESC`,
		employerID,
	)
	if err != nil {
		return nil, p.wrap("employerSnapshot jobs", err)
	}
	defer rows.Close()

	jobs := make([]board.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, p.wrap("employerSnapshot jobs scan", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, p.wrap("employerSnapshot jobs rows", rows.Err())
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*board.Job, error) {
	var (
		j         board.Job
		rawStatus string
	)
	err := row.Scan(
		&j.JobID, &j.EmployerID, &j.JobTitle, &j.JobDescription,
		&j.Qualifications, &j.Responsibilities, &j.JobType, &j.Location,
		&j.SalaryRange, &rawStatus, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = board.JobStatus(rawStatus)
	return &j, nil
}

func scanApplication(row scanner) (*board.Application, error) {
	var (
		a         board.Application
		rawStatus string
	)
	err := row.Scan(&a.ApplicationID, &a.JobID, &a.JobSeekerID, &rawStatus,
		&a.AppliedAt, &a.DecidedAt)
	if err != nil {
		return nil, err
	}
	a.Status = board.ApplicationStatus(rawStatus)
	return &a, nil
}

// bound applies the per-call store timeout.
func (p *Postgres) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// wrap classifies a pgx error into the core error kinds.
func (p *Postgres) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, board.ErrNotFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %v", op, board.ErrStoreUnavailable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, board.ErrDuplicateApplication)
	}
	return fmt.Errorf("%s: %w: %v", op, board.ErrStoreUnavailable, err)
}
