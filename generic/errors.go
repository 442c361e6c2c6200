/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error kinds in one place. Every failure is returned to the caller as a
  typed value; the administrative layer decides how to present it. The engine
  never localizes or formats user-facing text beyond Error().

ERROR CATEGORIES:
  1. Input errors - DivisionError, DateOrderError (user-correctable)
  2. Timeline conflicts - OverlapError, RescheduleConflictError
  3. Concurrency - StaleStateError
  4. Lookups - not-found sentinels

USAGE:
  if errors.Is(err, generic.ErrOverlap) {
      var oe *generic.OverlapError
      errors.As(err, &oe) // oe.Conflict.Number, oe.Conflict.Term
  }

SEE ALSO:
  - duration.go: Raises DivisionError and OverlapError
  - reschedule.go: Raises RescheduleConflictError and StaleStateError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDivision is returned when a duration is not a whole number of periods.
	ErrDivision = errors.New("duration not divisible by payment frequency")

	// ErrOverlap is returned when a contract interval conflicts with an
	// active or draft sibling on the same entity.
	ErrOverlap = errors.New("contract period overlaps an existing contract")

	// ErrDateOrder is returned when start_date >= end_date.
	ErrDateOrder = errors.New("start date must be before end date")

	// ErrRescheduleConflict is returned when a regenerated tail would overlap
	// a different contract.
	ErrRescheduleConflict = errors.New("rescheduled period overlaps another contract")

	// ErrStaleState is returned when a settlement raced a reschedule.
	ErrStaleState = errors.New("obligations changed during reschedule")

	ErrContractNotFound   = errors.New("contract not found")
	ErrObligationNotFound = errors.New("obligation not found")

	// ErrAlreadySettled is returned when settling or postponing a settled obligation.
	ErrAlreadySettled = errors.New("obligation already settled")

	// ErrNotCollection is returned when a collection-only operation targets
	// another kind of obligation.
	ErrNotCollection = errors.New("operation requires a collection payment")

	ErrNotSupply = errors.New("operation requires a supply payment")

	// ErrInvalidInput wraps malformed request values (missing dates,
	// negative amounts, non-positive delays).
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidFrequency = errors.New("invalid payment frequency")
	ErrInvalidDuration  = errors.New("duration must be a positive number of months")
	ErrInvalidStatus    = errors.New("invalid contract status transition")
	ErrUnknownKind      = errors.New("unknown contract kind")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DivisionError reports a duration that does not split into whole periods.
type DivisionError struct {
	Months    int
	Frequency Frequency
}

func (e *DivisionError) Error() string {
	return fmt.Sprintf("duration of %d months is not divisible into %s periods (%d months per %s)",
		e.Months, e.Frequency, e.Frequency.Months(), e.Frequency.Unit())
}

func (e *DivisionError) Unwrap() error { return ErrDivision }

// ConflictRef identifies the contract a candidate collided with.
type ConflictRef struct {
	ContractID ContractID
	Number     string
	Term       Period
}

// OverlapError reports the sibling contract a candidate interval collides with.
type OverlapError struct {
	EntityID  EntityID
	Candidate Period
	Conflict  ConflictRef
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("period %s overlaps contract %s %s",
		e.Candidate, e.Conflict.Number, e.Conflict.Term)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// DateOrderError reports a start date that is not before the end date.
type DateOrderError struct {
	Start Date
	End   Date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("start date %s must be before end date %s", e.Start, e.End)
}

func (e *DateOrderError) Unwrap() error { return ErrDateOrder }

// RescheduleConflictError reports a reschedule or renewal window that
// collides with another contract. Nothing was deleted.
type RescheduleConflictError struct {
	ContractID ContractID
	Window     Period
	Conflict   ConflictRef
}

func (e *RescheduleConflictError) Error() string {
	return fmt.Sprintf("contract %s: new period %s overlaps contract %s %s",
		e.ContractID, e.Window, e.Conflict.Number, e.Conflict.Term)
}

func (e *RescheduleConflictError) Unwrap() error { return ErrRescheduleConflict }

// StaleStateError reports obligations that were settled while a reschedule
// was deleting them.
type StaleStateError struct {
	ContractID ContractID
	Expected   int
	Deleted    int
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("contract %s: expected to delete %d unsettled obligations, deleted %d",
		e.ContractID, e.Expected, e.Deleted)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDivision) ||
		errors.Is(err, ErrDateOrder) ||
		errors.Is(err, ErrInvalidFrequency) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrNotCollection) ||
		errors.Is(err, ErrNotSupply)
}

// IsConflict returns true if the error reports a clash with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrRescheduleConflict) ||
		errors.Is(err, ErrStaleState) ||
		errors.Is(err, ErrAlreadySettled)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStaleState)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrObligationNotFound)
}
