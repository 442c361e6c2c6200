/*
Package generic provides the core lease scheduling engine.

PURPOSE:
  This package contains the contract-kind agnostic types and algorithms that
  turn a contract into a schedule of payment obligations. Whether the contract
  is a tenant lease (rent collected from a tenant) or a management contract
  (proceeds supplied to an owner), the same engine validates the timeline,
  generates the schedule, derives obligation status and reschedules.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract: A lease or management agreement over a leasable entity
  - Obligation: One scheduled payment covering one billing period
  - ContractKind: Which side of the business a contract belongs to
  - Identifiers: Type-safe IDs

DESIGN PRINCIPLES:
  1. Derived state: status and end date are computed, never trusted from storage
  2. Precision: Uses decimal.Decimal for all money
  3. Settled history is immutable: only unsettled obligations are ever deleted
  4. Type Safety: Strong typing for IDs prevents mixing contract/entity IDs

USAGE:
  c := generic.Contract{
      Kind:           lease.Kind,
      EntityID:       "unit-4b",
      StartDate:      generic.NewDate(2025, time.January, 1),
      DurationMonths: 12,
      Frequency:      generic.FrequencyMonthly,
      Rate:           decimal.NewFromInt(1200),
  }
  c.Normalize()
  obligations, err := generic.BuildSchedule(c, c.StartDate, c.DurationMonths, c.Frequency, 1)

SEE ALSO:
  - period.go: Period, Frequency and end-date arithmetic
  - schedule.go: Obligation generation
  - status.go: Status derivation
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ContractID string
type ObligationID string

// EntityID identifies a leasable entity: a unit for leases, a property for
// management contracts.
type EntityID string

// PartyID identifies the counterparty: a tenant or an owner.
type PartyID string

// =============================================================================
// CONTRACT
// =============================================================================

// ContractKind identifies the contract variant. Kinds are registered by the
// domain packages (lease, management) through RegisterDirection.
type ContractKind string

type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractRenewed    ContractStatus = "renewed"
	ContractExpired    ContractStatus = "expired"
	ContractTerminated ContractStatus = "terminated"
)

// BlockingStatuses are the statuses whose timelines must not overlap.
var BlockingStatuses = []ContractStatus{ContractActive, ContractDraft}

func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractDraft, ContractActive, ContractRenewed, ContractExpired, ContractTerminated:
		return true
	}
	return false
}

// Blocks reports whether a contract in this status reserves its timeline.
func (s ContractStatus) Blocks() bool {
	return s == ContractActive || s == ContractDraft
}

type Contract struct {
	ID     ContractID
	Number string
	Kind   ContractKind

	PartyID  PartyID
	EntityID EntityID

	// PropertyID is the property the entity belongs to. For management
	// contracts it equals EntityID.
	PropertyID EntityID

	StartDate      Date
	DurationMonths int
	Frequency      Frequency

	// EndDate is derived from StartDate and DurationMonths. Call Normalize
	// after touching either.
	EndDate Date

	// Rate is the monthly rent for leases and the commission percentage
	// (0-100) for management contracts.
	Rate decimal.Decimal

	Status    ContractStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize recomputes the derived fields.
func (c *Contract) Normalize() {
	c.EndDate = EndDate(c.StartDate, c.DurationMonths)
	if c.PropertyID == "" {
		c.PropertyID = c.EntityID
	}
}

// Term returns [StartDate, EndDate].
func (c Contract) Term() Period {
	return Period{Start: c.StartDate, End: EndDate(c.StartDate, c.DurationMonths)}
}

// =============================================================================
// OBLIGATION - One scheduled payment
// =============================================================================

type Obligation struct {
	ID         ObligationID
	ContractID ContractID
	Kind       ContractKind
	Sequence   int

	// Amount is the collection amount, or the gross for supply payments.
	Amount decimal.Decimal

	// The billing period this obligation covers.
	DueStart Date
	DueEnd   Date

	// SettledOn is the collection date (leases) or paid date (management).
	SettledOn *Date

	Reference string
	Notes     string

	// Collection payments
	DelayDays   int
	DelayReason string

	// Supply payments
	CommissionRate   decimal.Decimal
	CommissionAmount decimal.Decimal
	Deductions       decimal.Decimal
	NetAmount        decimal.Decimal

	CreatedAt time.Time
}

func (o Obligation) IsSettled() bool { return o.SettledOn != nil }

func (o Obligation) IsPostponed() bool { return o.SettledOn == nil && o.DelayDays > 0 }

// Period returns the billing period [DueStart, DueEnd].
func (o Obligation) Period() Period { return Period{Start: o.DueStart, End: o.DueEnd} }

// CoveredMonths returns how many months of the contract this obligation covers.
func (o Obligation) CoveredMonths() int { return o.Period().Months() }

// =============================================================================
// EXPENSE - Deductions from an owner's proceeds
// =============================================================================

type Expense struct {
	ID          string
	PropertyID  EntityID
	Date        Date
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}
