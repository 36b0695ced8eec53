package board

import "fmt"

// Role is the closed set of caller roles forwarded by the gateway.
type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

// ParseRole converts a raw string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleEmployer, RoleJobSeeker:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Caller is the authenticated identity issuing a request. The gateway
// verifies the session; the core trusts the identity but re-validates
// ownership against store rows on every call.
type Caller struct {
	ID   string
	Role Role
}

// DashboardScope names the dashboard a role resolves to.
type DashboardScope string

const (
	ScopeEmployerDashboard  DashboardScope = "employer"
	ScopeJobSeekerDashboard DashboardScope = "job_seeker"
)

// DashboardFor resolves the role-to-dashboard mapping once per request.
func DashboardFor(r Role) (DashboardScope, error) {
	switch r {
	case RoleEmployer:
		return ScopeEmployerDashboard, nil
	case RoleJobSeeker:
		return ScopeJobSeekerDashboard, nil
	}
	return "", fmt.Errorf("no dashboard for role %q", r)
}

// CanReadJob reports whether the caller's scope predicate covers the job.
// Employers see their own jobs in any status. Seekers see ACTIVE jobs, plus
// (when hasApplied) jobs they already applied to regardless of status.
func (c Caller) CanReadJob(j *Job, hasApplied bool) bool {
	switch c.Role {
	case RoleEmployer:
		return j.EmployerID == c.ID
	case RoleJobSeeker:
		return j.Status == JobActive || hasApplied
	}
	return false
}

// CanMutateJob reports whether the caller may edit, transition or delete the
// job. Only the owning employer may, unconditionally of job status.
func (c Caller) CanMutateJob(j *Job) bool {
	return c.Role == RoleEmployer && j.EmployerID == c.ID
}

// CanDecideApplication reports whether the caller may transition the
// application, which requires owning the parent job. A seeker may never
// decide their own application.
func (c Caller) CanDecideApplication(d *ApplicationDetail) bool {
	return c.Role == RoleEmployer && d.JobEmployerID == c.ID
}

// CanReadApplication reports whether the caller may view the application:
// the owning employer of the parent job, or the seeker who filed it.
func (c Caller) CanReadApplication(d *ApplicationDetail) bool {
	switch c.Role {
	case RoleEmployer:
		return d.JobEmployerID == c.ID
	case RoleJobSeeker:
		return d.JobSeekerID == c.ID
	}
	return false
}
