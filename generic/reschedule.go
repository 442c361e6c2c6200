/*
reschedule.go - Changing the terms of a contract with a live schedule

PURPOSE:
  Two operations change the remaining schedule of a contract without ever
  touching money that has already been accounted for.

RESCHEDULE:
  New rate/frequency for what is left of the contract.
  1. Settled obligations are kept as they are; paid_months is what they cover.
  2. Every unsettled obligation is deleted.
  3. additional_months are regenerated from the day after the last SETTLED
     period (the contract start when nothing is settled), keeping the
     contract start as the anchor (see BuildTail).
  4. duration = paid_months + additional_months; rate and frequency updated.
     With a settled gap the unsettled months before the last settled period
     stay in the term: duration = months up to the resume point + additional.
  Only active contracts can be rescheduled.

    before   [P][P][P][ ][ ][ ][ ][ ][ ][ ][ ][ ]   12 x monthly, 3 paid
    after    [P][P][P][  Q  ][  Q  ]                 + 6 months quarterly

RENEWAL:
  Extends a contract past its end. Nothing is deleted; new obligations are
  appended from end_date + 1 day; duration = old + extension. The new tail
  is anchored on the contract start, so the last period ends on end_date.

FAILURE MODES (checked before any write):
  - DivisionError: months do not split into the new frequency
  - RescheduleConflictError: the new window overlaps another contract

ATOMICITY AND RACES:
  Both run in a single TxStore.WithTx. If DeleteUnsettled removes fewer rows
  than were read as unsettled, a settlement slipped in: the obligations are
  re-read once in the same transaction and the plan recomputed. A second
  mismatch fails with StaleStateError and the transaction rolls back.

SEE ALSO:
  - schedule.go: BuildSchedule
  - duration.go: FindOverlap
*/
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TermsChange is the input of Reschedule and Renew.
type TermsChange struct {
	ContractID ContractID

	// Rate replaces the contract rate when valid.
	Rate decimal.NullDecimal

	// Months is additional_months for Reschedule, the extension for Renew.
	Months int

	// Frequency of the new obligations. Empty keeps the current one.
	Frequency Frequency
}

// ScheduleChange reports what a reschedule or renewal did.
type ScheduleChange struct {
	Contract   Contract
	Kept       int
	Deleted    int
	Created    []Obligation
	PaidMonths int
	NewEndDate Date
}

type Engine struct {
	Store TxStore
	Log   logrus.FieldLogger
}

func NewEngine(store TxStore, log logrus.FieldLogger) *Engine {
	return &Engine{Store: store, Log: log}
}

// schedulePlan splits a contract's obligations at the settlement boundary.
type schedulePlan struct {
	settled    []Obligation
	unsettled  []Obligation
	paidMonths int
	lastSeq    int

	// offset is the number of contract months before the new tail.
	offset int
}

func planFrom(c Contract, obligations []Obligation) schedulePlan {
	var p schedulePlan
	var lastEnd *Date
	for _, o := range obligations {
		if o.Sequence > p.lastSeq && o.IsSettled() {
			p.lastSeq = o.Sequence
		}
		if !o.IsSettled() {
			p.unsettled = append(p.unsettled, o)
			continue
		}
		p.settled = append(p.settled, o)
		p.paidMonths += o.CoveredMonths()
		if lastEnd == nil || o.DueEnd.After(*lastEnd) {
			end := o.DueEnd
			lastEnd = &end
		}
	}
	if lastEnd != nil {
		p.offset = MonthsBetween(c.StartDate, lastEnd.AddDays(1))
	}
	return p
}

func (p schedulePlan) window(c Contract, months int) Period {
	return TailPeriod(c, p.offset, months)
}

func (p schedulePlan) unsettledIDs() []ObligationID {
	ids := make([]ObligationID, len(p.unsettled))
	for i, o := range p.unsettled {
		ids[i] = o.ID
	}
	return ids
}

// Reschedule replaces the unsettled tail of a contract.
func (e *Engine) Reschedule(ctx context.Context, req TermsChange) (*ScheduleChange, error) {
	var result *ScheduleChange
	err := e.Store.WithTx(ctx, func(st Store) error {
		c, err := st.GetContract(ctx, req.ContractID)
		if err != nil {
			return err
		}
		if c.Status != ContractActive {
			return fmt.Errorf("%w: cannot reschedule a %s contract", ErrInvalidStatus, c.Status)
		}
		freq := req.Frequency
		if freq == "" {
			freq = c.Frequency
		}
		if _, err := CalculatePaymentsCount(req.Months, freq); err != nil {
			return err
		}

		obligations, err := st.Obligations(ctx, c.ID)
		if err != nil {
			return err
		}
		plan := planFrom(c, obligations)
		if err := e.checkWindow(ctx, st, c, plan.window(c, req.Months)); err != nil {
			return err
		}

		deleted, err := st.DeleteUnsettled(ctx, plan.unsettledIDs())
		if err != nil {
			return err
		}
		if deleted != len(plan.unsettled) {
			e.Log.WithFields(logrus.Fields{
				"contract_id": c.ID,
				"expected":    len(plan.unsettled),
				"deleted":     deleted,
			}).Warn("obligations settled during reschedule, re-reading")

			obligations, err = st.Obligations(ctx, c.ID)
			if err != nil {
				return err
			}
			plan = planFrom(c, obligations)
			if err := e.checkWindow(ctx, st, c, plan.window(c, req.Months)); err != nil {
				return err
			}
			again, err := st.DeleteUnsettled(ctx, plan.unsettledIDs())
			if err != nil {
				return err
			}
			if again != len(plan.unsettled) {
				return &StaleStateError{ContractID: c.ID, Expected: len(plan.unsettled), Deleted: again}
			}
			deleted += again
		}

		c.Frequency = freq
		if req.Rate.Valid {
			c.Rate = req.Rate.Decimal
		}
		created, err := BuildTail(c, plan.offset, req.Months, freq, plan.lastSeq+1)
		if err != nil {
			return err
		}
		if err := st.InsertObligations(ctx, created); err != nil {
			return err
		}

		c.DurationMonths = plan.offset + req.Months
		c.Normalize()
		c.UpdatedAt = time.Now().UTC()
		if err := st.SaveContract(ctx, c); err != nil {
			return err
		}

		result = &ScheduleChange{
			Contract:   c,
			Kept:       len(plan.settled),
			Deleted:    deleted,
			Created:    created,
			PaidMonths: plan.paidMonths,
			NewEndDate: c.EndDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.Log.WithFields(logrus.Fields{
		"contract_id": result.Contract.ID,
		"kept":        result.Kept,
		"deleted":     result.Deleted,
		"created":     len(result.Created),
		"end_date":    result.NewEndDate.String(),
	}).Info("contract rescheduled")
	return result, nil
}

// Renew appends obligations after the current end date.
func (e *Engine) Renew(ctx context.Context, req TermsChange) (*ScheduleChange, error) {
	var result *ScheduleChange
	err := e.Store.WithTx(ctx, func(st Store) error {
		c, err := st.GetContract(ctx, req.ContractID)
		if err != nil {
			return err
		}
		if c.Status == ContractTerminated || c.Status == ContractDraft {
			return fmt.Errorf("%w: cannot renew a %s contract", ErrInvalidStatus, c.Status)
		}
		freq := req.Frequency
		if freq == "" {
			freq = c.Frequency
		}
		if _, err := CalculatePaymentsCount(req.Months, freq); err != nil {
			return err
		}

		window := TailPeriod(c, c.DurationMonths, req.Months)
		if err := e.checkWindow(ctx, st, c, window); err != nil {
			return err
		}

		obligations, err := st.Obligations(ctx, c.ID)
		if err != nil {
			return err
		}
		lastSeq := 0
		for _, o := range obligations {
			if o.Sequence > lastSeq {
				lastSeq = o.Sequence
			}
		}

		c.Frequency = freq
		if req.Rate.Valid {
			c.Rate = req.Rate.Decimal
		}
		created, err := BuildTail(c, c.DurationMonths, req.Months, freq, lastSeq+1)
		if err != nil {
			return err
		}
		if err := st.InsertObligations(ctx, created); err != nil {
			return err
		}

		c.DurationMonths += req.Months
		c.Status = ContractActive
		c.Normalize()
		c.UpdatedAt = time.Now().UTC()
		if err := st.SaveContract(ctx, c); err != nil {
			return err
		}

		result = &ScheduleChange{
			Contract:   c,
			Kept:       len(obligations),
			Created:    created,
			NewEndDate: c.EndDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.Log.WithFields(logrus.Fields{
		"contract_id": result.Contract.ID,
		"created":     len(result.Created),
		"end_date":    result.NewEndDate.String(),
	}).Info("contract renewed")
	return result, nil
}

func (e *Engine) checkWindow(ctx context.Context, st Store, c Contract, window Period) error {
	siblings, err := st.ContractsForEntity(ctx, c.Kind, c.EntityID, BlockingStatuses)
	if err != nil {
		return err
	}
	if conflict := FindOverlap(siblings, window, c.ID); conflict != nil {
		return &RescheduleConflictError{ContractID: c.ID, Window: window, Conflict: conflictRef(conflict)}
	}
	return nil
}
