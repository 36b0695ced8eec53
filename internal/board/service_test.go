package board_test

import (
	"context"
	"errors"
	"testing"

	"jobdesk/board-service/internal/board"
	"jobdesk/board-service/internal/store"
)

var (
	employer  = board.Caller{ID: "emp-1", Role: board.RoleEmployer}
	rival     = board.Caller{ID: "emp-2", Role: board.RoleEmployer}
	seekerOne = board.Caller{ID: "seeker-1", Role: board.RoleJobSeeker}
	seekerTwo = board.Caller{ID: "seeker-2", Role: board.RoleJobSeeker}
)

func newTestService(t *testing.T) (*board.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	mem.PutProfile(store.Profile{UserID: employer.ID, CompanyName: "Acme"})
	mem.PutProfile(store.Profile{UserID: seekerOne.ID, FullName: "Sam Seeker", Email: "sam@example.com"})
	mem.PutProfile(store.Profile{UserID: seekerTwo.ID, FullName: "Toni Seeker", Email: "toni@example.com"})
	return board.NewService(mem, nil, 5), mem
}

func mustCreateJob(t *testing.T, svc *board.Service, caller board.Caller, status *board.JobStatus) *board.Job {
	t.Helper()
	job, err := svc.CreateJob(context.Background(), caller, board.CreateJobInput{
		JobTitle:       "Backend Engineer",
		JobDescription: "Build the thing.",
		JobType:        "Full-time",
		Location:       "Remote",
		Status:         status,
	})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	return job
}

func draftStatus() *board.JobStatus {
	s := board.JobDraft
	return &s
}

// ── Job creation ───────────────────────────────────────────────────────────

func TestCreateJob_DefaultsToActive(t *testing.T) {
	svc, _ := newTestService(t)
	job := mustCreateJob(t, svc, employer, nil)
	if job.Status != board.JobActive {
		t.Errorf("new job status = %s, want ACTIVE", job.Status)
	}
	if job.EmployerID != employer.ID {
		t.Errorf("new job employer = %s, want %s", job.EmployerID, employer.ID)
	}
}

func TestCreateJob_ExplicitDraft(t *testing.T) {
	svc, _ := newTestService(t)
	job := mustCreateJob(t, svc, employer, draftStatus())
	if job.Status != board.JobDraft {
		t.Errorf("new job status = %s, want DRAFT", job.Status)
	}
}

func TestCreateJob_ClosedRejected(t *testing.T) {
	svc, _ := newTestService(t)
	closed := board.JobClosed
	_, err := svc.CreateJob(context.Background(), employer, board.CreateJobInput{
		JobTitle: "x", JobDescription: "x", JobType: "Contract", Location: "Remote",
		Status: &closed,
	})
	var ve *board.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("creating a CLOSED job should fail validation, got %v", err)
	}
}

func TestCreateJob_SeekerRefused(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateJob(context.Background(), seekerOne, board.CreateJobInput{
		JobTitle: "x", JobDescription: "x", JobType: "Contract", Location: "Remote",
	})
	if !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("seeker job creation should be NotAuthorized, got %v", err)
	}
}

// ── Job lifecycle ──────────────────────────────────────────────────────────

func TestJobLifecycle_ForwardOnly(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, draftStatus())

	active := board.JobActive
	updated, err := svc.UpdateJob(ctx, employer, job.JobID, board.JobPatch{Status: &active})
	if err != nil {
		t.Fatalf("DRAFT → ACTIVE: %v", err)
	}
	if updated.Status != board.JobActive {
		t.Fatalf("status = %s, want ACTIVE", updated.Status)
	}

	closed := board.JobClosed
	updated, err = svc.UpdateJob(ctx, employer, job.JobID, board.JobPatch{Status: &closed})
	if err != nil {
		t.Fatalf("ACTIVE → CLOSED: %v", err)
	}
	if updated.Status != board.JobClosed {
		t.Fatalf("status = %s, want CLOSED", updated.Status)
	}

	// No resurrection: CLOSED → ACTIVE must fail and leave the row unchanged.
	_, err = svc.UpdateJob(ctx, employer, job.JobID, board.JobPatch{Status: &active})
	if !errors.Is(err, board.ErrInvalidTransition) {
		t.Errorf("CLOSED → ACTIVE should be InvalidTransition, got %v", err)
	}
	got, err := svc.GetJob(ctx, employer, job.JobID)
	if err != nil {
		t.Fatalf("GetJob after failed transition: %v", err)
	}
	if got.Status != board.JobClosed {
		t.Errorf("status after failed transition = %s, want CLOSED", got.Status)
	}
}

func TestJobLifecycle_SkipForbidden(t *testing.T) {
	svc, _ := newTestService(t)
	job := mustCreateJob(t, svc, employer, draftStatus())

	closed := board.JobClosed
	_, err := svc.UpdateJob(context.Background(), employer, job.JobID, board.JobPatch{Status: &closed})
	if !errors.Is(err, board.ErrInvalidTransition) {
		t.Errorf("DRAFT → CLOSED should be InvalidTransition, got %v", err)
	}
}

func TestUpdateJob_FieldsOnly(t *testing.T) {
	svc, _ := newTestService(t)
	job := mustCreateJob(t, svc, employer, nil)

	title := "Senior Backend Engineer"
	updated, err := svc.UpdateJob(context.Background(), employer, job.JobID, board.JobPatch{JobTitle: &title})
	if err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
	if updated.JobTitle != title {
		t.Errorf("title = %q, want %q", updated.JobTitle, title)
	}
	if updated.Status != board.JobActive {
		t.Errorf("field patch must not touch status, got %s", updated.Status)
	}
}

func TestUpdateJob_OwnershipEnforced(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	title := "hijacked"
	if _, err := svc.UpdateJob(ctx, rival, job.JobID, board.JobPatch{JobTitle: &title}); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("rival update should be NotAuthorized, got %v", err)
	}
	if err := svc.DeleteJob(ctx, rival, job.JobID); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("rival delete should be NotAuthorized, got %v", err)
	}
	if _, err := svc.UpdateJob(ctx, rival, "no-such-job", board.JobPatch{JobTitle: &title}); !errors.Is(err, board.ErrNotFound) {
		t.Errorf("missing job should be NotFound, got %v", err)
	}
}

// ── Applications ───────────────────────────────────────────────────────────

func TestApplyToJob_DraftFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, draftStatus())

	_, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if !errors.Is(err, board.ErrJobNotOpen) {
		t.Fatalf("applying to a DRAFT job should be JobNotOpen, got %v", err)
	}

	dash, err := svc.GetJobSeekerDashboard(ctx, seekerOne)
	if err != nil {
		t.Fatalf("GetJobSeekerDashboard: %v", err)
	}
	if dash.Summary.Total != 0 {
		t.Errorf("no application must be created on failure, total = %d", dash.Summary.Total)
	}
}

func TestApplyToJob_ClosedFails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	closed := board.JobClosed
	if _, err := svc.UpdateJob(ctx, employer, job.JobID, board.JobPatch{Status: &closed}); err != nil {
		t.Fatalf("close job: %v", err)
	}
	if _, err := svc.ApplyToJob(ctx, seekerOne, job.JobID); !errors.Is(err, board.ErrJobNotOpen) {
		t.Errorf("applying to a CLOSED job should be JobNotOpen, got %v", err)
	}
}

func TestApplyToJob_Duplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	if _, err := svc.ApplyToJob(ctx, seekerOne, job.JobID); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if _, err := svc.ApplyToJob(ctx, seekerOne, job.JobID); !errors.Is(err, board.ErrDuplicateApplication) {
		t.Fatalf("second apply should be DuplicateApplication, got %v", err)
	}

	dash, err := svc.GetEmployerDashboard(ctx, employer, 0)
	if err != nil {
		t.Fatalf("GetEmployerDashboard: %v", err)
	}
	if dash.ApplicationSummary.Total != 1 {
		t.Errorf("store must contain exactly one application, total = %d", dash.ApplicationSummary.Total)
	}
}

func TestApplyToJob_EmployerRefused(t *testing.T) {
	svc, _ := newTestService(t)
	job := mustCreateJob(t, svc, employer, nil)
	if _, err := svc.ApplyToJob(context.Background(), rival, job.JobID); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("employer applying should be NotAuthorized, got %v", err)
	}
}

func TestUpdateApplicationStatus_SeekerRefused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	app, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	// A seeker may never decide their own application.
	_, err = svc.UpdateApplicationStatus(ctx, seekerOne, app.ApplicationID, board.ApplicationAccepted)
	if !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("seeker deciding own application should be NotAuthorized, got %v", err)
	}
}

func TestUpdateApplicationStatus_RivalEmployerRefused(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	app, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err = svc.UpdateApplicationStatus(ctx, rival, app.ApplicationID, board.ApplicationAccepted)
	if !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("rival employer deciding should be NotAuthorized, got %v", err)
	}
}

func TestUpdateApplicationStatus_TerminalIsFinal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	app, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	decided, err := svc.UpdateApplicationStatus(ctx, employer, app.ApplicationID, board.ApplicationAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if decided.Status != board.ApplicationAccepted {
		t.Fatalf("status = %s, want ACCEPTED", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Fatal("DecidedAt must be set on the first transition out of PENDING")
	}
	first := *decided.DecidedAt

	// Any further transition fails and DecidedAt does not move.
	for _, to := range []board.ApplicationStatus{board.ApplicationRejected, board.ApplicationAccepted, board.ApplicationPending} {
		if _, err := svc.UpdateApplicationStatus(ctx, employer, app.ApplicationID, to); !errors.Is(err, board.ErrInvalidTransition) {
			t.Errorf("ACCEPTED → %s should be InvalidTransition, got %v", to, err)
		}
	}
	detail, err := svc.GetApplication(ctx, employer, app.ApplicationID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if detail.DecidedAt == nil || !detail.DecidedAt.Equal(first) {
		t.Error("DecidedAt changed after failed transitions")
	}
}

func TestGetApplication_DetailJoinsCandidate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	app, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	detail, err := svc.GetApplication(ctx, employer, app.ApplicationID)
	if err != nil {
		t.Fatalf("GetApplication: %v", err)
	}
	if detail.JobTitle != "Backend Engineer" {
		t.Errorf("JobTitle = %q, want Backend Engineer", detail.JobTitle)
	}
	if detail.Candidate.Name != "Sam Seeker" {
		t.Errorf("Candidate.Name = %q, want Sam Seeker", detail.Candidate.Name)
	}

	// The applicant may read it too; a stranger may not.
	if _, err := svc.GetApplication(ctx, seekerOne, app.ApplicationID); err != nil {
		t.Errorf("applicant read failed: %v", err)
	}
	if _, err := svc.GetApplication(ctx, seekerTwo, app.ApplicationID); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("stranger read should be NotAuthorized, got %v", err)
	}
}

// ── Cascade delete ─────────────────────────────────────────────────────────

func TestDeleteJob_Cascades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	appOne, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply one: %v", err)
	}
	if _, err := svc.ApplyToJob(ctx, seekerTwo, job.JobID); err != nil {
		t.Fatalf("apply two: %v", err)
	}

	if err := svc.DeleteJob(ctx, employer, job.JobID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}

	dash, err := svc.GetEmployerDashboard(ctx, employer, 0)
	if err != nil {
		t.Fatalf("GetEmployerDashboard: %v", err)
	}
	if len(dash.JobApplicationCounts) != 0 {
		t.Errorf("jobApplicationCounts = %v, want empty", dash.JobApplicationCounts)
	}
	if dash.ApplicationSummary.Total != 0 {
		t.Errorf("applications after cascade = %d, want 0", dash.ApplicationSummary.Total)
	}

	// No reader may ever see an application of a deleted job.
	if _, err := svc.GetApplication(ctx, employer, appOne.ApplicationID); !errors.Is(err, board.ErrNotFound) {
		t.Errorf("application of deleted job should be NotFound, got %v", err)
	}

	seekerDash, err := svc.GetJobSeekerDashboard(ctx, seekerOne)
	if err != nil {
		t.Fatalf("GetJobSeekerDashboard: %v", err)
	}
	if seekerDash.Summary.Total != 0 {
		t.Errorf("seeker still sees %d applications after cascade", seekerDash.Summary.Total)
	}
}

// ── Dashboard scenario (end to end over the read model) ────────────────────

func TestEmployerDashboard_Scenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	job := mustCreateJob(t, svc, employer, nil)

	appOne, err := svc.ApplyToJob(ctx, seekerOne, job.JobID)
	if err != nil {
		t.Fatalf("apply one: %v", err)
	}
	if _, err := svc.ApplyToJob(ctx, seekerTwo, job.JobID); err != nil {
		t.Fatalf("apply two: %v", err)
	}

	dash, err := svc.GetEmployerDashboard(ctx, employer, 0)
	if err != nil {
		t.Fatalf("GetEmployerDashboard: %v", err)
	}
	if dash.JobApplicationCounts[job.JobID] != 2 {
		t.Errorf("job count = %d, want 2", dash.JobApplicationCounts[job.JobID])
	}

	if _, err := svc.UpdateApplicationStatus(ctx, employer, appOne.ApplicationID, board.ApplicationAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	dash, err = svc.GetEmployerDashboard(ctx, employer, 0)
	if err != nil {
		t.Fatalf("GetEmployerDashboard: %v", err)
	}
	want := board.ApplicationSummary{Total: 2, Pending: 1, Accepted: 1, Rejected: 0}
	if dash.ApplicationSummary != want {
		t.Errorf("ApplicationSummary = %+v, want %+v", dash.ApplicationSummary, want)
	}

	sum := 0
	for _, c := range dash.JobApplicationCounts {
		sum += c
	}
	if sum != dash.ApplicationSummary.Total {
		t.Errorf("sum of counts %d != total %d", sum, dash.ApplicationSummary.Total)
	}
	if len(dash.RecentApplications) != 2 {
		t.Errorf("recent feed has %d rows, want 2", len(dash.RecentApplications))
	}

	if err := svc.DeleteJob(ctx, employer, job.JobID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	dash, err = svc.GetEmployerDashboard(ctx, employer, 0)
	if err != nil {
		t.Fatalf("GetEmployerDashboard: %v", err)
	}
	if len(dash.JobApplicationCounts) != 0 || dash.ApplicationSummary.Total != 0 {
		t.Errorf("dashboard after delete = %+v, want empty", dash)
	}
}

func TestDashboards_RoleScoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetEmployerDashboard(ctx, seekerOne, 0); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("seeker on employer dashboard should be NotAuthorized, got %v", err)
	}
	if _, err := svc.GetJobSeekerDashboard(ctx, employer); !errors.Is(err, board.ErrNotAuthorized) {
		t.Errorf("employer on seeker dashboard should be NotAuthorized, got %v", err)
	}
}

// ── Listing and visibility ─────────────────────────────────────────────────

func TestListJobs_Scoped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustCreateJob(t, svc, employer, nil)
	mustCreateJob(t, svc, employer, draftStatus())
	mustCreateJob(t, svc, rival, nil)

	mine, err := svc.ListEmployerJobs(ctx, employer, nil)
	if err != nil {
		t.Fatalf("ListEmployerJobs: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("employer sees %d jobs, want 2 (own only)", len(mine))
	}

	active := board.JobActive
	activeOnly, err := svc.ListEmployerJobs(ctx, employer, &active)
	if err != nil {
		t.Fatalf("ListEmployerJobs filtered: %v", err)
	}
	if len(activeOnly) != 1 {
		t.Errorf("employer active filter returned %d jobs, want 1", len(activeOnly))
	}

	browse, err := svc.BrowseJobs(ctx, seekerOne, nil)
	if err != nil {
		t.Fatalf("BrowseJobs: %v", err)
	}
	if len(browse) != 2 {
		t.Errorf("seeker sees %d jobs, want 2 (ACTIVE only, both employers)", len(browse))
	}

	// A filter cannot widen the seeker scope beyond ACTIVE.
	draft := board.JobDraft
	hidden, err := svc.BrowseJobs(ctx, seekerOne, &draft)
	if err != nil {
		t.Fatalf("BrowseJobs draft filter: %v", err)
	}
	if len(hidden) != 0 {
		t.Errorf("seeker draft filter returned %d jobs, want 0", len(hidden))
	}
}

func TestGetJob_SeekerVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	draftJob := mustCreateJob(t, svc, employer, draftStatus())
	if _, err := svc.GetJob(ctx, seekerOne, draftJob.JobID); !errors.Is(err, board.ErrNotFound) {
		t.Errorf("seeker viewing a draft job should be NotFound, got %v", err)
	}

	// A seeker keeps detail access to jobs they applied to, even once closed.
	openJob := mustCreateJob(t, svc, employer, nil)
	if _, err := svc.ApplyToJob(ctx, seekerOne, openJob.JobID); err != nil {
		t.Fatalf("apply: %v", err)
	}
	closed := board.JobClosed
	if _, err := svc.UpdateJob(ctx, employer, openJob.JobID, board.JobPatch{Status: &closed}); err != nil {
		t.Fatalf("close: %v", err)
	}

	detail, err := svc.GetJob(ctx, seekerOne, openJob.JobID)
	if err != nil {
		t.Fatalf("applicant viewing closed job: %v", err)
	}
	if detail.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", detail.CompanyName)
	}
	if _, err := svc.GetJob(ctx, seekerTwo, openJob.JobID); !errors.Is(err, board.ErrNotFound) {
		t.Errorf("non-applicant viewing closed job should be NotFound, got %v", err)
	}
}
