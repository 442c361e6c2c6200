package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range [Start, End]
// =============================================================================

// Period is an inclusive range of calendar days. Contract terms, billing
// periods and owner payout periods are all Periods.
//
// End-date convention: a period that starts on S and lasts N months ends on
// S + N months - 1 day, so consecutive periods never share a day.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod returns the period of the given length in months starting at start.
func NewPeriod(start Date, months int) Period {
	return Period{Start: start, End: EndDate(start, months)}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps is the four-way overlap test: other starts inside p, other ends
// inside p, other contains p, or p contains other.
func (p Period) Overlaps(other Period) bool {
	return p.Contains(other.Start) ||
		p.Contains(other.End) ||
		(other.Start.BeforeOrEqual(p.Start) && other.End.AfterOrEqual(p.End)) ||
		(p.Start.BeforeOrEqual(other.Start) && p.End.AfterOrEqual(other.End))
}

// Months returns how many whole months the period covers.
func (p Period) Months() int {
	return MonthsBetween(p.Start, p.End.AddDays(1))
}

// Days returns the number of days in the period, both ends included.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// IsValid reports whether Start < End.
func (p Period) IsValid() bool {
	return p.Start.Before(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// Next returns the period of the same month length that follows p.
func (p Period) Next() Period {
	start := p.End.AddDays(1)
	return NewPeriod(start, p.Months())
}

// =============================================================================
// FREQUENCY - How often an obligation falls due
// =============================================================================

type Frequency string

const (
	FrequencyMonthly      Frequency = "monthly"
	FrequencyQuarterly    Frequency = "quarterly"
	FrequencySemiAnnually Frequency = "semi_annually"
	FrequencyAnnually     Frequency = "annually"
)

var frequencyMonths = map[Frequency]int{
	FrequencyMonthly:      1,
	FrequencyQuarterly:    3,
	FrequencySemiAnnually: 6,
	FrequencyAnnually:     12,
}

// Frequencies lists the supported frequencies, shortest first.
func Frequencies() []Frequency {
	return []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnually, FrequencyAnnually}
}

// ParseFrequency accepts the canonical names plus "semi-annually".
func ParseFrequency(s string) (Frequency, error) {
	if s == "semi-annually" {
		return FrequencySemiAnnually, nil
	}
	f := Frequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	_, ok := frequencyMonths[f]
	return ok
}

// Months is the length of one billing period. Zero for an unknown frequency.
func (f Frequency) Months() int {
	return frequencyMonths[f]
}

// Unit names the period unit, used when reporting divisibility failures.
func (f Frequency) Unit() string {
	switch f {
	case FrequencyMonthly:
		return "month"
	case FrequencyQuarterly:
		return "quarter"
	case FrequencySemiAnnually:
		return "half-year"
	case FrequencyAnnually:
		return "year"
	default:
		return string(f)
	}
}

// BucketFor returns the calendar bucket of this frequency containing d:
// its month, quarter, half-year or year.
func (f Frequency) BucketFor(d Date) Period {
	months := f.Months()
	if months == 0 {
		months = 1
	}
	startMonth := time.Month((int(d.Month())-1)/months*months + 1)
	start := StartOfMonth(d.Year(), startMonth)
	return NewPeriod(start, months)
}

// =============================================================================
// PERIOD ARITHMETIC
// =============================================================================

// EndDate returns start + months months - 1 day.
func EndDate(start Date, months int) Date {
	return start.AddMonths(months).AddDays(-1)
}

// PeriodEnd returns the inclusive end of one billing period starting at start.
func PeriodEnd(start Date, f Frequency) Date {
	return EndDate(start, f.Months())
}

// PeriodsIn returns how many whole periods of f fit into months.
func PeriodsIn(months int, f Frequency) int {
	if f.Months() == 0 {
		return 0
	}
	return months / f.Months()
}
