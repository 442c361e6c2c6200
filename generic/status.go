/*
status.go - Obligation status derivation

PURPOSE:
  Status is never stored. It is a pure function of today, the due date,
  the settlement date, the delay and the configured grace period, so it can
  never drift out of date when the calendar moves.

STATES (precedence top to bottom):
  collected   settled_on is set                              terminal
  postponed   not collected, delay_days > 0                  until collected
  overdue     due_start < today - grace
  due         today - grace <= due_start <= today
  upcoming    due_start > today

  Postponement does not expire on its own; a postponed obligation stays
  postponed until it is collected.

QUERY PREDICATES:
  Each status has a Filter returning exactly the obligations DeriveStatus
  maps to that status, in memory and in SQL:

    store.QueryObligations(ctx, generic.OverduePayments(today, settings))

SEE ALSO:
  - filter.go: Filter building blocks
*/
package generic

import "fmt"

type PaymentStatus string

const (
	StatusCollected PaymentStatus = "collected"
	StatusPostponed PaymentStatus = "postponed"
	StatusOverdue   PaymentStatus = "overdue"
	StatusDue       PaymentStatus = "due"
	StatusUpcoming  PaymentStatus = "upcoming"
)

// Statuses lists every status in precedence order.
func Statuses() []PaymentStatus {
	return []PaymentStatus{StatusCollected, StatusPostponed, StatusOverdue, StatusDue, StatusUpcoming}
}

func ParseStatus(s string) (PaymentStatus, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// DeriveStatus maps an obligation to its status as of today.
func DeriveStatus(o Obligation, today Date, s Settings) PaymentStatus {
	switch {
	case o.SettledOn != nil:
		return StatusCollected
	case o.DelayDays > 0:
		return StatusPostponed
	case o.DueStart.Before(graceStart(today, s)):
		return StatusOverdue
	case o.DueStart.BeforeOrEqual(today):
		return StatusDue
	default:
		return StatusUpcoming
	}
}

func graceStart(today Date, s Settings) Date {
	return today.AddDays(-s.PaymentDueDays)
}

// =============================================================================
// QUERY PREDICATES
// =============================================================================

func CollectedPayments() Filter {
	return Settled()
}

func PostponedPayments() Filter {
	return All(Not(Settled()), Delayed())
}

func OverduePayments(today Date, s Settings) Filter {
	return All(Not(Settled()), Not(Delayed()), DueStartBefore(graceStart(today, s)))
}

func DueForCollection(today Date, s Settings) Filter {
	return All(
		Not(Settled()),
		Not(Delayed()),
		DueStartOnOrAfter(graceStart(today, s)),
		DueStartOnOrBefore(today),
	)
}

func UpcomingPayments(today Date, s Settings) Filter {
	return All(Not(Settled()), Not(Delayed()), DueStartAfter(today))
}

// StatusFilter returns the query predicate for a status.
func StatusFilter(status PaymentStatus, today Date, s Settings) Filter {
	switch status {
	case StatusCollected:
		return CollectedPayments()
	case StatusPostponed:
		return PostponedPayments()
	case StatusOverdue:
		return OverduePayments(today, s)
	case StatusDue:
		return DueForCollection(today, s)
	case StatusUpcoming:
		return UpcomingPayments(today, s)
	}
	return Any()
}
