/*
errors.go - Error types for the tracker

ERROR CATEGORIES:
  1. Lookup errors     - unknown phase, missing persisted row
  2. Lifecycle errors  - phase not loaded yet
  3. Validation errors - day out of range, bad template, bad persisted data
  4. Gateway errors    - load/save failures (wrapped)

A missing persisted row (ErrPhaseNotFound from a Gateway) is not a failure:
the Book falls back to the phase template. Every other load error is
surfaced through LoadError.
*/
package tracker

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPhaseNotFound is returned for unknown phase keys and by gateways
	// when no row exists for a key.
	ErrPhaseNotFound = errors.New("phase not found")

	// ErrPhaseNotReady is returned when a phase has not finished loading.
	ErrPhaseNotReady = errors.New("phase not ready")

	// ErrDayOutOfRange is returned when an edit names a day the phase does not have.
	ErrDayOutOfRange = errors.New("day out of range")

	// ErrInvalidTemplate is returned for templates that cannot produce a phase.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidRecords is returned when persisted records break the phase invariants.
	ErrInvalidRecords = errors.New("invalid day records")

	// ErrStaleWrite is returned by gateways refusing a row older than the stored one.
	ErrStaleWrite = errors.New("stale write")

	// ErrQueueClosed is returned when saving through a closed SaveQueue.
	ErrQueueClosed = errors.New("save queue closed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DayOutOfRangeError rejects an edit addressed to a day outside 1..Days.
type DayOutOfRangeError struct {
	Phase PhaseKey
	Day   int
	Days  int
}

func (e *DayOutOfRangeError) Error() string {
	return fmt.Sprintf("day %d out of range for %s (1..%d)", e.Day, e.Phase, e.Days)
}

func (e *DayOutOfRangeError) Unwrap() error {
	return ErrDayOutOfRange
}

// InvalidRecordsError describes why a stored record sequence was rejected.
type InvalidRecordsError struct {
	Day    int
	Reason string
}

func (e *InvalidRecordsError) Error() string {
	if e.Day == 0 {
		return fmt.Sprintf("invalid day records: %s", e.Reason)
	}
	return fmt.Sprintf("invalid day records at day %d: %s", e.Day, e.Reason)
}

func (e *InvalidRecordsError) Unwrap() error {
	return ErrInvalidRecords
}

// LoadError is a genuine gateway failure while loading a phase, as opposed
// to a missing row.
type LoadError struct {
	Phase PhaseKey
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Phase, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing phase.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPhaseNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDayOutOfRange) ||
		errors.Is(err, ErrInvalidTemplate)
}

// IsRetryable returns true if repeating the operation may succeed.
func IsRetryable(err error) bool {
	var le *LoadError
	if errors.As(err, &le) {
		return !errors.Is(le.Err, ErrInvalidRecords)
	}
	return errors.Is(err, ErrPhaseNotReady)
}
