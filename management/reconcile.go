/*
reconcile.go - Crediting tenant payments to an owner payout period

PURPOSE:
  For a supply payment covering [period_start, period_end] on a property,
  every collection payment of a lease on that property that touches the
  period is placed in exactly one category. Only categories 2 and 3 count
  toward the owner's gross.

CATEGORIES (first match wins):
                               due start       settled on        counted
  1 unpaid_for_period          inside          -                 no
  2 due_and_paid_in_period     inside          <= period_end     yes
  3 late_collected_for_earlier before start    inside            yes
  4 paid_late_after_period     inside          > period_end      no
  5 collected_early_for_future after end       inside            no

  A payment touches the period when its due start is inside it or it was
  settled inside it. A category 4 payment is credited later, as category 3
  of the period it was settled in.

    Feb            Mar (supply period)       Apr
    |--------------|------------------------|------------
       due 02-20 ........ settled 03-10             -> 3, counted
                     due 03-01 ... settled 03-05    -> 2, counted
                     due 03-15 ..................... settled 04-02 -> 4
                                  settled 03-28 ... due 04-01      -> 5

AMOUNTS:
  gross       = sum of total_amount (rent + late fee) of categories 2 and 3
  commission  = gross x rate / 100
  deductions  = expenses of the property dated inside the period
  net         = gross - commission - deductions

SEE ALSO:
  - lease/latefee.go: TotalAmount
  - generic/store.go: ObligationsForProperty
*/
package management

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
)

type Category string

const (
	CategoryUnpaid         Category = "unpaid_for_period"
	CategoryDueAndPaid     Category = "due_and_paid_in_period"
	CategoryLateCollected  Category = "late_collected_for_earlier_period"
	CategoryPaidLateAfter  Category = "paid_late_after_period"
	CategoryCollectedEarly Category = "collected_early_for_future_period"
)

// Categories lists the categories in rule order.
func Categories() []Category {
	return []Category{
		CategoryUnpaid,
		CategoryDueAndPaid,
		CategoryLateCollected,
		CategoryPaidLateAfter,
		CategoryCollectedEarly,
	}
}

// Counted reports whether payments in the category are credited to the
// period's payout.
func (c Category) Counted() bool {
	return c == CategoryDueAndPaid || c == CategoryLateCollected
}

// Classify places a collection payment relative to a supply period. The
// second result is false when the payment does not touch the period.
func Classify(o generic.Obligation, period generic.Period) (Category, bool) {
	dueInside := period.Contains(o.DueStart)
	switch {
	case dueInside && o.SettledOn == nil:
		return CategoryUnpaid, true
	case dueInside && o.SettledOn.BeforeOrEqual(period.End):
		return CategoryDueAndPaid, true
	case dueInside:
		return CategoryPaidLateAfter, true
	case o.SettledOn == nil || !period.Contains(*o.SettledOn):
		return "", false
	case o.DueStart.Before(period.Start):
		return CategoryLateCollected, true
	default:
		return CategoryCollectedEarly, true
	}
}

// =============================================================================
// RESULT
// =============================================================================

// PaymentRef identifies a collection payment inside a bucket.
type PaymentRef struct {
	ObligationID generic.ObligationID
	ContractID   generic.ContractID
	DueStart     generic.Date
	DueEnd       generic.Date
	SettledOn    *generic.Date
	Amount       decimal.Decimal
	LateFee      decimal.Decimal
	TotalAmount  decimal.Decimal
}

type Bucket struct {
	Category Category
	Payments []PaymentRef
	Subtotal decimal.Decimal
}

// Reconciliation is the categorized result for one supply period.
type Reconciliation struct {
	SupplyID   generic.ObligationID
	ContractID generic.ContractID
	PropertyID generic.EntityID
	Period     generic.Period

	Buckets map[Category]*Bucket

	CommissionRate decimal.Decimal
	Gross          decimal.Decimal
	Commission     decimal.Decimal
	Deductions     decimal.Decimal
	Net            decimal.Decimal
}

// Bucket returns the bucket of a category.
func (r *Reconciliation) Bucket(c Category) *Bucket {
	return r.Buckets[c]
}

// Build classifies payments into a period and computes the payout amounts.
// Payments that do not touch the period are ignored.
func Build(
	period generic.Period,
	payments []generic.Obligation,
	expenses []generic.Expense,
	rate decimal.Decimal,
	today generic.Date,
	s generic.Settings,
) *Reconciliation {
	r := &Reconciliation{
		Period:         period,
		Buckets:        make(map[Category]*Bucket, 5),
		CommissionRate: rate,
		Gross:          decimal.Zero,
		Deductions:     decimal.Zero,
	}
	for _, c := range Categories() {
		r.Buckets[c] = &Bucket{Category: c, Subtotal: decimal.Zero}
	}

	for _, o := range payments {
		cat, ok := Classify(o, period)
		if !ok {
			continue
		}
		fee := lease.LateFee(o, today, s)
		total := o.Amount.Add(fee)
		b := r.Buckets[cat]
		b.Payments = append(b.Payments, PaymentRef{
			ObligationID: o.ID,
			ContractID:   o.ContractID,
			DueStart:     o.DueStart,
			DueEnd:       o.DueEnd,
			SettledOn:    o.SettledOn,
			Amount:       o.Amount,
			LateFee:      fee,
			TotalAmount:  total,
		})
		b.Subtotal = b.Subtotal.Add(total)
	}

	r.Gross = r.Buckets[CategoryDueAndPaid].Subtotal.Add(r.Buckets[CategoryLateCollected].Subtotal)
	for _, e := range expenses {
		if period.Contains(e.Date) {
			r.Deductions = r.Deductions.Add(e.Amount)
		}
	}
	r.Commission = Commission(r.Gross, rate)
	r.Net = r.Gross.Sub(r.Commission).Sub(r.Deductions)
	return r
}

// =============================================================================
// RECONCILER
// =============================================================================

type Reconciler struct {
	Store    generic.TxStore
	Settings generic.SettingsStore
	Log      logrus.FieldLogger
}

func NewReconciler(store generic.TxStore, settings generic.SettingsStore, log logrus.FieldLogger) *Reconciler {
	return &Reconciler{Store: store, Settings: settings, Log: log}
}

// Reconcile computes the categorized payout of a supply payment as of today.
func (r *Reconciler) Reconcile(ctx context.Context, supplyID generic.ObligationID, today generic.Date) (*Reconciliation, error) {
	s, err := r.Settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return reconcile(ctx, r.Store, supplyID, today, s)
}

// Apply reconciles a supply payment and writes gross, commission, deductions
// and net onto it. Settled supply payments are never rewritten.
func (r *Reconciler) Apply(ctx context.Context, supplyID generic.ObligationID, today generic.Date) (*Reconciliation, error) {
	s, err := r.Settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var result *Reconciliation
	err = r.Store.WithTx(ctx, func(st generic.Store) error {
		rec, err := reconcile(ctx, st, supplyID, today, s)
		if err != nil {
			return err
		}
		o, err := st.GetObligation(ctx, supplyID)
		if err != nil {
			return err
		}
		if o.IsSettled() {
			return fmt.Errorf("%w: supply payment %s", generic.ErrAlreadySettled, o.ID)
		}
		o.Amount = rec.Gross
		o.CommissionRate = rec.CommissionRate
		o.CommissionAmount = rec.Commission
		o.Deductions = rec.Deductions
		o.NetAmount = rec.Net
		if err := st.UpdateObligation(ctx, o); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Log.WithFields(logrus.Fields{
		"obligation_id": supplyID,
		"contract_id":   result.ContractID,
		"period":        result.Period.String(),
		"gross":         result.Gross.String(),
		"net":           result.Net.String(),
	}).Info("supply payment reconciled")
	return result, nil
}

func reconcile(
	ctx context.Context,
	st generic.Store,
	supplyID generic.ObligationID,
	today generic.Date,
	s generic.Settings,
) (*Reconciliation, error) {
	supply, err := st.GetObligation(ctx, supplyID)
	if err != nil {
		return nil, err
	}
	if supply.Kind != Kind {
		return nil, fmt.Errorf("%w: %s is a %s obligation", generic.ErrNotSupply, supply.ID, supply.Kind)
	}
	c, err := st.GetContract(ctx, supply.ContractID)
	if err != nil {
		return nil, err
	}

	period := supply.Period()
	payments, err := st.ObligationsForProperty(ctx, lease.Kind, c.PropertyID, period)
	if err != nil {
		return nil, fmt.Errorf("loading collections for %s: %w", c.PropertyID, err)
	}
	expenses, err := st.ExpensesForProperty(ctx, c.PropertyID, period)
	if err != nil {
		return nil, fmt.Errorf("loading expenses for %s: %w", c.PropertyID, err)
	}

	rate := supply.CommissionRate
	if rate.IsZero() {
		rate = c.Rate
	}
	rec := Build(period, payments, expenses, rate, today, s)
	rec.SupplyID = supply.ID
	rec.ContractID = c.ID
	rec.PropertyID = c.PropertyID
	return rec, nil
}
