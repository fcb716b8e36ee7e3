package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when session metadata is unknown.
	ErrSessionNotFound = errors.New("interview session not found")
	// ErrSessionNotCompleted is returned when scoring is attempted before completion.
	ErrSessionNotCompleted = errors.New("interview session not completed")
	// ErrSessionAlreadyCompleted guards the one-time completion transition.
	ErrSessionAlreadyCompleted = errors.New("interview session already completed")
	// ErrInvalidTransition indicates a lifecycle move the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrEmptySession indicates no question contributed to any dimension.
	ErrEmptySession = errors.New("no scorable questions in session")
	// ErrInvalidWeightProfile indicates a profile with negative weights or a sum other than 1.
	ErrInvalidWeightProfile = errors.New("invalid weight profile")
	// ErrUnknownProfile is returned when a named profile is not registered.
	ErrUnknownProfile = errors.New("unknown weight profile")
	// ErrBreakdownNotFound indicates feedback was requested before scores were stored.
	ErrBreakdownNotFound = errors.New("session score breakdown not found")
	// ErrFeedbackNotFound indicates no feedback record exists for the session.
	ErrFeedbackNotFound = errors.New("feedback record not found")
	// ErrStatsNotFound indicates the user has no history yet.
	ErrStatsNotFound = errors.New("user history stats not found")
	// ErrUnknownChartType is returned for unsupported chart names.
	ErrUnknownChartType = errors.New("unknown chart type")
	// ErrInvalidInput indicates a malformed request, such as a missing identifier.
	ErrInvalidInput = errors.New("invalid input")
	// ErrLockNotAcquired is returned when a per-key lock could not be taken in time.
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// PersistenceError reports a failed save after a value was computed.
// The computed value is never partially written.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
