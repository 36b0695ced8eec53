package board

import "fmt"

// ─── Sentinel errors ─────────────────────────────────────────────────────────
//
// Every core failure is one of these kinds (optionally wrapped with operation
// context via %w). The transport layer maps kinds to HTTP codes; the core only
// guarantees the kind plus a human-readable detail string.

// ErrNotFound is returned when an entity id does not exist.
var ErrNotFound = fmt.Errorf("not found")

// ErrNotAuthorized is returned when the caller's scope does not cover the
// target entity, including writes on another identity's jobs or applications.
var ErrNotAuthorized = fmt.Errorf("not authorized")

// ErrInvalidTransition is returned when a status change is not in the
// transition table. The entity is left unchanged.
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// ErrJobNotOpen is returned when a seeker applies to a job that is not ACTIVE.
var ErrJobNotOpen = fmt.Errorf("job is not open for applications")

// ErrDuplicateApplication is returned when a seeker applies twice to the
// same job, regardless of the first application's status.
var ErrDuplicateApplication = fmt.Errorf("already applied to this job")

// ErrStoreUnavailable is returned when the persistence collaborator times out
// or fails. It is the only kind eligible for caller-side retry.
var ErrStoreUnavailable = fmt.Errorf("store unavailable")

// ValidationError wraps a user-facing validation message for missing or
// malformed input fields.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
