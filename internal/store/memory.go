package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"jobdesk/board-service/internal/board"
)

// Profile is a read-only user profile row. Profile data is owned by the
// profile service; the memory store carries it only so joined display fields
// resolve.
type Profile struct {
	UserID      string
	CompanyName string
	FullName    string
	Email       string
	Phone       *string
	Skills      *string
	ResumeURL   *string
}

// Memory is a mutex-guarded in-memory board.Store. It mirrors the Postgres
// semantics: conditional updates on status, atomic cascade delete, and
// snapshot reads taken under one lock hold.
type Memory struct {
	mu           sync.RWMutex
	jobs         map[string]board.Job
	applications map[string]board.Application
	profiles     map[string]Profile
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:         make(map[string]board.Job),
		applications: make(map[string]board.Application),
		profiles:     make(map[string]Profile),
	}
}

// PutProfile seeds a profile row.
func (m *Memory) PutProfile(p Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
}

// ─── Jobs ────────────────────────────────────────────────────────────────────

func (m *Memory) InsertJob(_ context.Context, j *board.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.JobID]; ok {
		return fmt.Errorf("insertJob: duplicate job id %s", j.JobID)
	}
	m.jobs[j.JobID] = *j
	return nil
}

func (m *Memory) GetJob(_ context.Context, jobID string) (*board.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("getJob: %w", board.ErrNotFound)
	}
	return &j, nil
}

func (m *Memory) GetJobDetail(_ context.Context, jobID string) (*board.JobDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("getJobDetail: %w", board.ErrNotFound)
	}
	return &board.JobDetail{Job: j, CompanyName: m.profiles[j.EmployerID].CompanyName}, nil
}

func (m *Memory) UpdateJob(_ context.Context, jobID string, patch board.JobPatch, fromStatuses []board.JobStatus) (*board.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("updateJob: %w", board.ErrNotFound)
	}

	if patch.Status != nil {
		matched := false
		for _, s := range fromStatuses {
			if j.Status == s {
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("updateJob: %w: job %s → %s",
				board.ErrInvalidTransition, j.Status, *patch.Status)
		}
		j.Status = *patch.Status
	}
	if patch.JobTitle != nil {
		j.JobTitle = *patch.JobTitle
	}
	if patch.JobDescription != nil {
		j.JobDescription = *patch.JobDescription
	}
	if patch.Qualifications != nil {
		j.Qualifications = patch.Qualifications
	}
	if patch.Responsibilities != nil {
		j.Responsibilities = patch.Responsibilities
	}
	if patch.JobType != nil {
		j.JobType = *patch.JobType
	}
	if patch.Location != nil {
		j.Location = *patch.Location
	}
	if patch.SalaryRange != nil {
		j.SalaryRange = patch.SalaryRange
	}
	j.UpdatedAt = time.Now().UTC()

	m.jobs[jobID] = j
	return &j, nil
}

func (m *Memory) DeleteJobCascade(_ context.Context, jobID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[jobID]; !ok {
		return 0, fmt.Errorf("deleteJobCascade: %w", board.ErrNotFound)
	}

	var removed int64
	for id, a := range m.applications {
		if a.JobID == jobID {
			delete(m.applications, id)
			removed++
		}
	}
	delete(m.jobs, jobID)
	return removed, nil
}

func (m *Memory) ListEmployerJobs(_ context.Context, employerID string) ([]board.EmployerJobItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range m.applications {
		counts[a.JobID]++
	}

	items := make([]board.EmployerJobItem, 0)
	for _, j := range m.jobs {
		if j.EmployerID != employerID {
			continue
		}
		items = append(items, board.EmployerJobItem{
			JobID:             j.JobID,
			JobTitle:          j.JobTitle,
			Status:            j.Status,
			CreatedAt:         j.CreatedAt,
			ApplicationsCount: counts[j.JobID],
		})
	}
	sortNewestFirst(items, func(it board.EmployerJobItem) (time.Time, string) {
		return it.CreatedAt, it.JobID
	})
	return items, nil
}

func (m *Memory) ListPublicJobs(_ context.Context, status *board.JobStatus) ([]board.PublicJobItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]board.PublicJobItem, 0)
	for _, j := range m.jobs {
		if status != nil && j.Status != *status {
			continue
		}
		items = append(items, board.PublicJobItem{
			JobID:       j.JobID,
			JobTitle:    j.JobTitle,
			CompanyName: m.profiles[j.EmployerID].CompanyName,
			Location:    j.Location,
			JobType:     j.JobType,
			SalaryRange: j.SalaryRange,
			CreatedAt:   j.CreatedAt,
		})
	}
	sortNewestFirst(items, func(it board.PublicJobItem) (time.Time, string) {
		return it.CreatedAt, it.JobID
	})
	return items, nil
}

// ─── Applications ────────────────────────────────────────────────────────────

func (m *Memory) InsertApplication(_ context.Context, a *board.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.applications {
		if existing.JobID == a.JobID && existing.JobSeekerID == a.JobSeekerID {
			return fmt.Errorf("insertApplication: %w", board.ErrDuplicateApplication)
		}
	}
	m.applications[a.ApplicationID] = *a
	return nil
}

func (m *Memory) GetApplicationDetail(_ context.Context, applicationID string) (*board.ApplicationDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.applications[applicationID]
	if !ok {
		return nil, fmt.Errorf("getApplicationDetail: %w", board.ErrNotFound)
	}
	j, ok := m.jobs[a.JobID]
	if !ok {
		return nil, fmt.Errorf("getApplicationDetail job: %w", board.ErrNotFound)
	}
	p := m.profiles[a.JobSeekerID]
	name := p.FullName
	if name == "" {
		name = p.Email
	}
	return &board.ApplicationDetail{
		Application:   a,
		JobTitle:      j.JobTitle,
		JobEmployerID: j.EmployerID,
		Candidate: board.Candidate{
			Name:      name,
			Email:     p.Email,
			Phone:     p.Phone,
			Skills:    p.Skills,
			ResumeURL: p.ResumeURL,
		},
	}, nil
}

func (m *Memory) HasApplication(_ context.Context, jobID, jobSeekerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.applications {
		if a.JobID == jobID && a.JobSeekerID == jobSeekerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) TransitionApplication(_ context.Context, applicationID string, to board.ApplicationStatus, decidedAt time.Time) (*board.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.applications[applicationID]
	if !ok {
		return nil, fmt.Errorf("transitionApplication: %w", board.ErrNotFound)
	}
	if a.Status != board.ApplicationPending {
		return nil, fmt.Errorf("transitionApplication: %w: application %s → %s",
			board.ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.DecidedAt = &decidedAt
	m.applications[applicationID] = a
	return &a, nil
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

func (m *Memory) EmployerSnapshot(_ context.Context, employerID string) (*board.EmployerSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &board.EmployerSnapshot{
		Jobs:         make([]board.Job, 0),
		Applications: make([]board.EmployerApplicationRow, 0),
	}
	owned := make(map[string]board.Job)
	for _, j := range m.jobs {
		if j.EmployerID == employerID {
			owned[j.JobID] = j
			snap.Jobs = append(snap.Jobs, j)
		}
	}
	for _, a := range m.applications {
		j, ok := owned[a.JobID]
		if !ok {
			continue
		}
		p := m.profiles[a.JobSeekerID]
		name := p.FullName
		if name == "" {
			name = p.Email
		}
		snap.Applications = append(snap.Applications, board.EmployerApplicationRow{
			Application:   a,
			JobTitle:      j.JobTitle,
			CandidateName: name,
		})
	}
	sortNewestFirst(snap.Jobs, func(j board.Job) (time.Time, string) {
		return j.CreatedAt, j.JobID
	})
	sortNewestFirst(snap.Applications, func(r board.EmployerApplicationRow) (time.Time, string) {
		return r.AppliedAt, r.ApplicationID
	})
	return snap, nil
}

func (m *Memory) SeekerSnapshot(_ context.Context, jobSeekerID string) (*board.SeekerSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &board.SeekerSnapshot{Applications: make([]board.SeekerApplicationRow, 0)}
	for _, a := range m.applications {
		if a.JobSeekerID != jobSeekerID {
			continue
		}
		j := m.jobs[a.JobID]
		snap.Applications = append(snap.Applications, board.SeekerApplicationRow{
			Application: a,
			JobTitle:    j.JobTitle,
			CompanyName: m.profiles[j.EmployerID].CompanyName,
		})
	}
	sortNewestFirst(snap.Applications, func(r board.SeekerApplicationRow) (time.Time, string) {
		return r.AppliedAt, r.ApplicationID
	})
	return snap, nil
}

func (m *Memory) PendingCountsByEmployer(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range m.applications {
		if a.Status != board.ApplicationPending {
			continue
		}
		if j, ok := m.jobs[a.JobID]; ok {
			counts[j.EmployerID]++
		}
	}
	return counts, nil
}

// sortNewestFirst orders items by timestamp descending, breaking ties on id
// descending — the same ordering the Postgres queries produce.
func sortNewestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, k int) bool {
		ti, idi := key(items[i])
		tk, idk := key(items[k])
		if !ti.Equal(tk) {
			return ti.After(tk)
		}
		return idi > idk
	})
}
