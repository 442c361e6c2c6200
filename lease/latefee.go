package lease

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// LATE FEES - Derived on read, never stored
// =============================================================================

// FeeStart is the first day that counts toward a late fee: the due date plus
// the grace period. Postponement does not move it.
func FeeStart(o generic.Obligation, s generic.Settings) generic.Date {
	return o.DueStart.AddDays(s.PaymentDueDays)
}

// DaysOverdue counts days from FeeStart to today, or to the settlement date
// once settled. Never negative.
func DaysOverdue(o generic.Obligation, today generic.Date, s generic.Settings) int {
	until := today
	if o.SettledOn != nil {
		until = *o.SettledOn
	}
	days := generic.DaysBetween(FeeStart(o, s), until)
	if days < 0 {
		return 0
	}
	return days
}

// LateFee returns amount x daily rate x days overdue. The fee freezes on the
// settlement date.
func LateFee(o generic.Obligation, today generic.Date, s generic.Settings) decimal.Decimal {
	days := DaysOverdue(o, today, s)
	if days == 0 {
		return decimal.Zero
	}
	return o.Amount.Mul(s.LateFeeDailyRate).Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// TotalAmount is the rent plus its late fee.
func TotalAmount(o generic.Obligation, today generic.Date, s generic.Settings) decimal.Decimal {
	return o.Amount.Add(LateFee(o, today, s))
}
