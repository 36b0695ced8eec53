package board

import "sort"

// Aggregation over snapshots. Every function here is pure: it derives a view
// from one EmployerSnapshot or SeekerSnapshot, so all numbers of a dashboard
// agree with each other — sum of per-job counts always equals the summary
// total computed from the same snapshot.

// SummarizeJobs counts an employer's jobs, total and ACTIVE.
func SummarizeJobs(jobs []Job) JobSummary {
	sum := JobSummary{TotalJobs: len(jobs)}
	for _, j := range jobs {
		if j.Status == JobActive {
			sum.ActiveJobs++
		}
	}
	return sum
}

// SummarizeApplications groups applications by status.
func SummarizeApplications(apps []EmployerApplicationRow) ApplicationSummary {
	var sum ApplicationSummary
	for _, a := range apps {
		sum.Total++
		switch a.Status {
		case ApplicationPending:
			sum.Pending++
		case ApplicationAccepted:
			sum.Accepted++
		case ApplicationRejected:
			sum.Rejected++
		}
	}
	return sum
}

// CountApplicationsPerJob maps jobId → application count for every job in the
// snapshot. Jobs without applications are included with a zero count.
func CountApplicationsPerJob(jobs []Job, apps []EmployerApplicationRow) map[string]int {
	counts := make(map[string]int, len(jobs))
	for _, j := range jobs {
		counts[j.JobID] = 0
	}
	for _, a := range apps {
		if _, ok := counts[a.JobID]; ok {
			counts[a.JobID]++
		}
	}
	return counts
}

// RecentApplications returns at most limit applications ordered newest
// AppliedAt first, breaking ties on ApplicationID descending. The input slice
// is not modified.
func RecentApplications(apps []EmployerApplicationRow, limit int) []EmployerApplicationRow {
	if limit <= 0 {
		return []EmployerApplicationRow{}
	}
	sorted := make([]EmployerApplicationRow, len(apps))
	copy(sorted, apps)
	sort.Slice(sorted, func(i, k int) bool {
		if !sorted[i].AppliedAt.Equal(sorted[k].AppliedAt) {
			return sorted[i].AppliedAt.After(sorted[k].AppliedAt)
		}
		return sorted[i].ApplicationID > sorted[k].ApplicationID
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// BuildEmployerDashboard derives the full employer read model from one
// snapshot.
func BuildEmployerDashboard(snap *EmployerSnapshot, recentLimit int) *EmployerDashboard {
	return &EmployerDashboard{
		JobSummary:           SummarizeJobs(snap.Jobs),
		ApplicationSummary:   SummarizeApplications(snap.Applications),
		JobApplicationCounts: CountApplicationsPerJob(snap.Jobs, snap.Applications),
		RecentApplications:   RecentApplications(snap.Applications, recentLimit),
	}
}

// BuildJobSeekerDashboard derives the seeker read model from one snapshot:
// status summary plus the application list ordered newest first.
func BuildJobSeekerDashboard(snap *SeekerSnapshot) *JobSeekerDashboard {
	var sum ApplicationSummary
	for _, a := range snap.Applications {
		sum.Total++
		switch a.Status {
		case ApplicationPending:
			sum.Pending++
		case ApplicationAccepted:
			sum.Accepted++
		case ApplicationRejected:
			sum.Rejected++
		}
	}

	apps := make([]SeekerApplicationRow, len(snap.Applications))
	copy(apps, snap.Applications)
	sort.Slice(apps, func(i, k int) bool {
		if !apps[i].AppliedAt.Equal(apps[k].AppliedAt) {
			return apps[i].AppliedAt.After(apps[k].AppliedAt)
		}
		return apps[i].ApplicationID > apps[k].ApplicationID
	})

	return &JobSeekerDashboard{Summary: sum, Applications: apps}
}
