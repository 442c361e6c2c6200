/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - Derived values (status, late fee) alongside stored ones
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Contracts:
    ContractDTO, ContractRequest, SaveContractResponse

  Obligations:
    ObligationDTO, SettleRequest, PostponeRequest

  Schedule changes:
    TermsRequest, ScheduleChangeDTO

  Reconciliation:
    ReconciliationDTO, BucketDTO, PaymentRefDTO

  Other:
    ExpenseDTO, ExpenseRequest, SettingsDTO, ScenarioDTO, SweepResultDTO

MONEY:
  decimal.Decimal values are serialized as JSON strings ("1200.00" style)
  so no precision is lost in transit.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/management"
)

// =============================================================================
// CONTRACTS
// =============================================================================

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID             string          `json:"id"`
	Number         string          `json:"number"`
	Kind           string          `json:"kind"`
	PartyID        string          `json:"party_id"`
	EntityID       string          `json:"entity_id"`
	PropertyID     string          `json:"property_id"`
	StartDate      generic.Date    `json:"start_date"`
	DurationMonths int             `json:"duration_months"`
	Frequency      string          `json:"frequency"`
	EndDate        generic.Date    `json:"end_date"`
	Rate           decimal.Decimal `json:"rate"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ContractRequest is the body of contract create and update.
type ContractRequest struct {
	Number         string          `json:"number"`
	Kind           string          `json:"kind"`
	PartyID        string          `json:"party_id"`
	EntityID       string          `json:"entity_id"`
	PropertyID     string          `json:"property_id"`
	StartDate      generic.Date    `json:"start_date"`
	DurationMonths int             `json:"duration_months"`
	Frequency      string          `json:"frequency"`
	Rate           decimal.Decimal `json:"rate"`
	Status         string          `json:"status"`
}

// SaveContractResponse reports a save and the schedule it triggered.
// GenerationError is set when best-effort generation failed; the contract
// was still saved.
type SaveContractResponse struct {
	Contract        ContractDTO `json:"contract"`
	Generated       int         `json:"generated"`
	GenerationError string      `json:"generation_error,omitempty"`
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

// ObligationDTO represents a payment obligation with its derived status.
type ObligationDTO struct {
	ID         string          `json:"id"`
	ContractID string          `json:"contract_id"`
	Kind       string          `json:"kind"`
	Sequence   int             `json:"sequence"`
	Amount     decimal.Decimal `json:"amount"`
	DueStart   generic.Date    `json:"due_start"`
	DueEnd     generic.Date    `json:"due_end"`
	SettledOn  *generic.Date   `json:"settled_on"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Status     string          `json:"status"`

	// Collection payments
	DelayDays   int              `json:"delay_days,omitempty"`
	DelayReason string           `json:"delay_reason,omitempty"`
	LateFee     *decimal.Decimal `json:"late_fee,omitempty"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`

	// Supply payments
	CommissionRate   *decimal.Decimal `json:"commission_rate,omitempty"`
	CommissionAmount *decimal.Decimal `json:"commission_amount,omitempty"`
	Deductions       *decimal.Decimal `json:"deductions,omitempty"`
	NetAmount        *decimal.Decimal `json:"net_amount,omitempty"`
}

// SettleRequest records a collection (leases) or payout (management).
type SettleRequest struct {
	SettledOn generic.Date `json:"settled_on"`
	Reference string       `json:"reference"`
}

// PostponeRequest postpones a collection payment.
type PostponeRequest struct {
	Days   int    `json:"days"`
	Reason string `json:"reason"`
}

// =============================================================================
// SCHEDULE CHANGES
// =============================================================================

// TermsRequest is the body of reschedule and renew. An omitted rate keeps
// the current one; an empty frequency keeps the current one.
type TermsRequest struct {
	Rate      *decimal.Decimal `json:"rate"`
	Months    int              `json:"months"`
	Frequency string           `json:"frequency"`
}

type ScheduleChangeDTO struct {
	Contract   ContractDTO     `json:"contract"`
	Kept       int             `json:"kept"`
	Deleted    int             `json:"deleted"`
	Created    []ObligationDTO `json:"created"`
	PaidMonths int             `json:"paid_months"`
	NewEndDate generic.Date    `json:"new_end_date"`
}

// =============================================================================
// RECONCILIATION
// =============================================================================

type PaymentRefDTO struct {
	ObligationID string          `json:"obligation_id"`
	ContractID   string          `json:"contract_id"`
	DueStart     generic.Date    `json:"due_start"`
	DueEnd       generic.Date    `json:"due_end"`
	SettledOn    *generic.Date   `json:"settled_on"`
	Amount       decimal.Decimal `json:"amount"`
	LateFee      decimal.Decimal `json:"late_fee"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

type BucketDTO struct {
	Category string          `json:"category"`
	Counted  bool            `json:"counted"`
	Payments []PaymentRefDTO `json:"payments"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ReconciliationDTO is the categorized payout of one supply payment.
// Buckets are listed in rule order.
type ReconciliationDTO struct {
	SupplyID       string          `json:"supply_id"`
	ContractID     string          `json:"contract_id"`
	PropertyID     string          `json:"property_id"`
	PeriodStart    generic.Date    `json:"period_start"`
	PeriodEnd      generic.Date    `json:"period_end"`
	Buckets        []BucketDTO     `json:"buckets"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Gross          decimal.Decimal `json:"gross"`
	Commission     decimal.Decimal `json:"commission"`
	Deductions     decimal.Decimal `json:"deductions"`
	Net            decimal.Decimal `json:"net"`
}

// =============================================================================
// EXPENSES, SETTINGS, SCENARIOS, SWEEP
// =============================================================================

type ExpenseDTO struct {
	ID          string          `json:"id"`
	PropertyID  string          `json:"property_id"`
	Date        generic.Date    `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type ExpenseRequest struct {
	PropertyID  string          `json:"property_id"`
	Date        generic.Date    `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type SettingsDTO struct {
	PaymentDueDays   int             `json:"payment_due_days"`
	LateFeeDailyRate decimal.Decimal `json:"late_fee_daily_rate"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SweepResultDTO reports one maintenance sweep.
type SweepResultDTO struct {
	RanAt     time.Time    `json:"ran_at"`
	AsOf      generic.Date `json:"as_of"`
	Expired   int          `json:"expired"`
	Generated int          `json:"generated"`
	Error     string       `json:"error,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error    string       `json:"error"`
	Code     string       `json:"code,omitempty"`
	Details  any          `json:"details,omitempty"`
	Conflict *ConflictDTO `json:"conflict,omitempty"`
}

// ConflictDTO names the contract an overlapping timeline collided with.
type ConflictDTO struct {
	ContractID string       `json:"contract_id"`
	Number     string       `json:"number"`
	StartDate  generic.Date `json:"start_date"`
	EndDate    generic.Date `json:"end_date"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toContractDTO(c generic.Contract) ContractDTO {
	return ContractDTO{
		ID:             string(c.ID),
		Number:         c.Number,
		Kind:           string(c.Kind),
		PartyID:        string(c.PartyID),
		EntityID:       string(c.EntityID),
		PropertyID:     string(c.PropertyID),
		StartDate:      c.StartDate,
		DurationMonths: c.DurationMonths,
		Frequency:      string(c.Frequency),
		EndDate:        c.EndDate,
		Rate:           c.Rate,
		Status:         string(c.Status),
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (req ContractRequest) toContract(id generic.ContractID) (generic.Contract, error) {
	freq, err := generic.ParseFrequency(req.Frequency)
	if err != nil {
		return generic.Contract{}, err
	}
	return generic.Contract{
		ID:             id,
		Number:         req.Number,
		Kind:           generic.ContractKind(req.Kind),
		PartyID:        generic.PartyID(req.PartyID),
		EntityID:       generic.EntityID(req.EntityID),
		PropertyID:     generic.EntityID(req.PropertyID),
		StartDate:      req.StartDate,
		DurationMonths: req.DurationMonths,
		Frequency:      freq,
		Rate:           req.Rate,
		Status:         generic.ContractStatus(req.Status),
	}, nil
}

// toObligationDTO annotates an obligation with its status as of today.
func toObligationDTO(o generic.Obligation, today generic.Date, s generic.Settings) ObligationDTO {
	dto := ObligationDTO{
		ID:         string(o.ID),
		ContractID: string(o.ContractID),
		Kind:       string(o.Kind),
		Sequence:   o.Sequence,
		Amount:     o.Amount,
		DueStart:   o.DueStart,
		DueEnd:     o.DueEnd,
		SettledOn:  o.SettledOn,
		Reference:  o.Reference,
		Notes:      o.Notes,
		Status:     string(generic.DeriveStatus(o, today, s)),
	}
	switch o.Kind {
	case lease.Kind:
		fee := lease.LateFee(o, today, s)
		total := o.Amount.Add(fee)
		dto.DelayDays = o.DelayDays
		dto.DelayReason = o.DelayReason
		dto.LateFee = &fee
		dto.TotalAmount = &total
	case management.Kind:
		dto.CommissionRate = decimalPtr(o.CommissionRate)
		dto.CommissionAmount = decimalPtr(o.CommissionAmount)
		dto.Deductions = decimalPtr(o.Deductions)
		dto.NetAmount = decimalPtr(o.NetAmount)
	}
	return dto
}

func toObligationDTOs(obs []generic.Obligation, today generic.Date, s generic.Settings) []ObligationDTO {
	dtos := make([]ObligationDTO, len(obs))
	for i, o := range obs {
		dtos[i] = toObligationDTO(o, today, s)
	}
	return dtos
}

func toScheduleChangeDTO(c *generic.ScheduleChange, today generic.Date, s generic.Settings) ScheduleChangeDTO {
	return ScheduleChangeDTO{
		Contract:   toContractDTO(c.Contract),
		Kept:       c.Kept,
		Deleted:    c.Deleted,
		Created:    toObligationDTOs(c.Created, today, s),
		PaidMonths: c.PaidMonths,
		NewEndDate: c.NewEndDate,
	}
}

func toReconciliationDTO(r *management.Reconciliation) ReconciliationDTO {
	dto := ReconciliationDTO{
		SupplyID:       string(r.SupplyID),
		ContractID:     string(r.ContractID),
		PropertyID:     string(r.PropertyID),
		PeriodStart:    r.Period.Start,
		PeriodEnd:      r.Period.End,
		CommissionRate: r.CommissionRate,
		Gross:          r.Gross,
		Commission:     r.Commission,
		Deductions:     r.Deductions,
		Net:            r.Net,
	}
	for _, cat := range management.Categories() {
		b := r.Bucket(cat)
		bucket := BucketDTO{
			Category: string(cat),
			Counted:  cat.Counted(),
			Payments: make([]PaymentRefDTO, len(b.Payments)),
			Subtotal: b.Subtotal,
		}
		for i, p := range b.Payments {
			bucket.Payments[i] = PaymentRefDTO{
				ObligationID: string(p.ObligationID),
				ContractID:   string(p.ContractID),
				DueStart:     p.DueStart,
				DueEnd:       p.DueEnd,
				SettledOn:    p.SettledOn,
				Amount:       p.Amount,
				LateFee:      p.LateFee,
				TotalAmount:  p.TotalAmount,
			}
		}
		dto.Buckets = append(dto.Buckets, bucket)
	}
	return dto
}

func toExpenseDTO(e generic.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:          e.ID,
		PropertyID:  string(e.PropertyID),
		Date:        e.Date,
		Amount:      e.Amount,
		Description: e.Description,
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
