package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule rejects a write.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a concurrent mutation invalidated the
	// assumptions of a request. Callers should refresh state and retry.
	ErrConflict = errors.New("application: conflict")
	// ErrSuperseded is returned to a generate call whose computation was
	// cancelled by a newer generate. It is a conflict for callers.
	ErrSuperseded = errors.New("application: superseded by a newer request")
	// ErrSlotBlocked is returned when a mutation targets a blocked timeslot.
	ErrSlotBlocked = errors.New("application: slot blocked")
	// ErrAlreadyVoted is returned when a user votes twice on one session.
	ErrAlreadyVoted = errors.New("application: already voted")
	// ErrVoteMissing is returned when a user withdraws a vote never cast.
	ErrVoteMissing = errors.New("application: vote missing")
	// ErrAlreadyScheduled is returned when a session already on the board
	// is placed again.
	ErrAlreadyScheduled = errors.New("application: already scheduled")
	// ErrScheduleFull is returned when no free eligible slot remains.
	ErrScheduleFull = errors.New("application: schedule full")
	// ErrInvariantViolation is returned when a mutation would break a board
	// invariant for a reason no other sentinel covers. It indicates a
	// programming error and is logged as such.
	ErrInvariantViolation = errors.New("application: invariant violation")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a login session has expired.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a login session has been revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// Merge copies entries from another validation error into the receiver.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(field, msg)
	}
}
