/*
duration.go - Contract duration and timeline validation

PURPOSE:
  A contract's duration must split into whole billing periods, and its
  [start, end] interval must not collide with another active or draft
  contract of the same kind on the same entity.

OVERLAP TEST:
  Two intervals conflict when the candidate starts inside the existing one,
  ends inside it, contains it, or is contained by it (Period.Overlaps).

    existing     |-----------|
    candidate        |---|            contained
    candidate  |---------------|      contains
    candidate            |--------|   starts inside
    candidate |-----|                 ends inside

RACES:
  These checks run before a save without a lock. ContractManager repeats the
  overlap check inside the write transaction, so a concurrent sibling save is
  still caught and reported as the same OverlapError.

SEE ALSO:
  - period.go: Period.Overlaps
  - contract.go: Commit-time re-check
*/
package generic

import (
	"context"
	"fmt"
)

// IsValidDuration reports whether months is a positive whole number of
// periods of f.
func IsValidDuration(months int, f Frequency) bool {
	return months > 0 && f.IsValid() && months%f.Months() == 0
}

// CalculatePaymentsCount returns how many obligations a duration produces.
// It returns a *DivisionError exactly when IsValidDuration is false for a
// positive duration and a known frequency.
func CalculatePaymentsCount(months int, f Frequency) (int, error) {
	if !f.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
	if months <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDuration, months)
	}
	if months%f.Months() != 0 {
		return 0, &DivisionError{Months: months, Frequency: f}
	}
	return months / f.Months(), nil
}

// FindOverlap returns the first contract in siblings, other than exclude,
// whose term overlaps candidate and whose status reserves its timeline.
func FindOverlap(siblings []Contract, candidate Period, exclude ContractID) *Contract {
	for i := range siblings {
		s := siblings[i]
		if exclude != "" && s.ID == exclude {
			continue
		}
		if !s.Status.Blocks() {
			continue
		}
		if s.Term().Overlaps(candidate) {
			return &s
		}
	}
	return nil
}

func conflictRef(c *Contract) ConflictRef {
	return ConflictRef{ContractID: c.ID, Number: c.Number, Term: c.Term()}
}

// =============================================================================
// VALIDATOR
// =============================================================================

type Validator struct {
	Contracts ContractReader
}

func NewValidator(contracts ContractReader) *Validator {
	return &Validator{Contracts: contracts}
}

// ValidateStartDate fails when start falls inside the term of a sibling.
func (v *Validator) ValidateStartDate(
	ctx context.Context,
	kind ContractKind,
	entityID EntityID,
	start Date,
	exclude ContractID,
) error {
	return v.checkOverlap(ctx, kind, entityID, Period{Start: start, End: start}, exclude)
}

// ValidateDuration fails when [start, start+months-1day] overlaps a sibling.
func (v *Validator) ValidateDuration(
	ctx context.Context,
	kind ContractKind,
	entityID EntityID,
	start Date,
	months int,
	exclude ContractID,
) error {
	if months <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, months)
	}
	return v.checkOverlap(ctx, kind, entityID, NewPeriod(start, months), exclude)
}

// ValidateContract runs every check a contract must pass before it is saved:
// known kind and frequency, whole periods, start before end, and no overlap
// when its status reserves the timeline.
func (v *Validator) ValidateContract(ctx context.Context, c Contract) error {
	if _, err := LookupDirection(c.Kind); err != nil {
		return err
	}
	if c.EntityID == "" {
		return fmt.Errorf("%w: entity is required", ErrInvalidInput)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	if c.Rate.IsNegative() {
		return fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
	}
	if _, err := CalculatePaymentsCount(c.DurationMonths, c.Frequency); err != nil {
		return err
	}
	term := c.Term()
	if !term.IsValid() {
		return &DateOrderError{Start: term.Start, End: term.End}
	}
	if !c.Status.Blocks() {
		return nil
	}
	if err := v.ValidateStartDate(ctx, c.Kind, c.EntityID, c.StartDate, c.ID); err != nil {
		return err
	}
	return v.ValidateDuration(ctx, c.Kind, c.EntityID, c.StartDate, c.DurationMonths, c.ID)
}

func (v *Validator) checkOverlap(
	ctx context.Context,
	kind ContractKind,
	entityID EntityID,
	candidate Period,
	exclude ContractID,
) error {
	siblings, err := v.Contracts.ContractsForEntity(ctx, kind, entityID, BlockingStatuses)
	if err != nil {
		return fmt.Errorf("loading contracts for %s: %w", entityID, err)
	}
	if conflict := FindOverlap(siblings, candidate, exclude); conflict != nil {
		return &OverlapError{EntityID: entityID, Candidate: candidate, Conflict: conflictRef(conflict)}
	}
	return nil
}
