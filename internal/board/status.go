// Package board contains the job/application lifecycle core: the status
// state machines, role scoping, dashboard aggregation, and the service
// orchestrating them over the entity store.
//
// Valid status graphs:
//
//	Job:         DRAFT ──► ACTIVE ──► CLOSED
//	Application: PENDING ──► ACCEPTED
//	                  └────► REJECTED
//
// CLOSED, ACCEPTED and REJECTED are terminal states.
package board

import "fmt"

// JobStatus values mirror the job_listings.status column.
// Stored uppercase; lowercase display casing belongs to clients.
type JobStatus string

const (
	JobDraft  JobStatus = "DRAFT"
	JobActive JobStatus = "ACTIVE"
	JobClosed JobStatus = "CLOSED"
)

// ApplicationStatus values mirror the job_applications.status column.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationAccepted ApplicationStatus = "ACCEPTED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// jobTransitions lists every allowed (from → to) pair for job postings.
var jobTransitions = map[JobStatus][]JobStatus{
	JobDraft:  {JobActive},
	JobActive: {JobClosed},
	// CLOSED is terminal — no resurrection back to ACTIVE
}

// applicationTransitions lists every allowed (from → to) pair for applications.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending: {ApplicationAccepted, ApplicationRejected},
	// ACCEPTED and REJECTED are terminal
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error for
// unknown values. Comparison is case-sensitive: the canonical casing is
// uppercase and anything else is rejected.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobDraft, JobActive, JobClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus,
// returning an error for unknown values.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsJobTransitionAllowed returns true when moving from → to is permitted by
// the job state machine.
func IsJobTransitionAllowed(from, to JobStatus) bool {
	allowed, ok := jobTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsApplicationTransitionAllowed returns true when moving from → to is
// permitted by the application state machine.
func IsApplicationTransitionAllowed(from, to ApplicationStatus) bool {
	allowed, ok := applicationTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// JobTransitionSources returns every status from which to is reachable.
// The store uses the result as the compare set of a conditional update so
// the transition check and the write commit as one atomic statement.
func JobTransitionSources(to JobStatus) []JobStatus {
	var sources []JobStatus
	for from, targets := range jobTransitions {
		for _, t := range targets {
			if t == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

// IsJobTerminal reports whether a job status has no outgoing transitions.
func IsJobTerminal(s JobStatus) bool {
	return len(jobTransitions[s]) == 0
}

// IsApplicationTerminal reports whether an application status has no outgoing
// transitions. Used to distinguish "already decided" from other update errors.
func IsApplicationTerminal(s ApplicationStatus) bool {
	return len(applicationTransitions[s]) == 0
}

// IsDecided returns true once an application has left PENDING.
func IsDecided(s ApplicationStatus) bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}
