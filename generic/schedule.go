/*
schedule.go - Payment schedule generation

PURPOSE:
  Expands a contract's duration and frequency into dated obligations.

ALGORITHM:
  n = months / frequency months (DivisionError otherwise)
  for i in 0..n-1:
      start_i = from + i*f months
      end_i   = from + (i+1)*f months - 1 day
  end_{n-1} is clamped to from + months - 1 day

  Periods are anchored on "from" rather than chained from the previous end,
  so month-end starts (Jan 31) stay contiguous: end_i + 1 day == start_{i+1}.

TAILS:
  Reschedule and renewal append to an existing schedule. BuildTail keeps the
  contract's own anchor and skips the months already covered:
      start_i = contract_start + (offset + i*f) months
  so the last period always ends on EndDate(contract_start, offset + months),
  which is the contract end after the change. Anchoring a tail on its first
  day instead drifts for starts on the 29th-31st (Jan 31 + 1 month = Feb 28,
  Feb 28 + 1 month = Mar 28, not Mar 30).

AMOUNTS:
  Set by the contract kind's Direction.Prepare. Leases charge monthly rent
  times the period length; management contracts start at zero and are filled
  by reconciliation from money actually collected.

IDEMPOTENCE:
  Generate does not check for existing obligations. Callers check
  CanGeneratePayments first (ContractManager does).

SEE ALSO:
  - duration.go: CalculatePaymentsCount
  - reschedule.go: Regenerates tails with BuildSchedule
*/
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BuildSchedule returns the obligations covering months from "from" at
// frequency f, numbered from firstSeq. It does not persist anything.
func BuildSchedule(c Contract, from Date, months int, f Frequency, firstSeq int) ([]Obligation, error) {
	return buildAnchored(c, from, 0, months, f, firstSeq)
}

// BuildTail returns the obligations covering months after the first offset
// months of c, anchored on c.StartDate.
func BuildTail(c Contract, offset, months int, f Frequency, firstSeq int) ([]Obligation, error) {
	return buildAnchored(c, c.StartDate, offset, months, f, firstSeq)
}

// TailPeriod is the window BuildTail covers.
func TailPeriod(c Contract, offset, months int) Period {
	return Period{
		Start: c.StartDate.AddMonths(offset),
		End:   EndDate(c.StartDate, offset+months),
	}
}

func buildAnchored(c Contract, anchor Date, offset, months int, f Frequency, firstSeq int) ([]Obligation, error) {
	count, err := CalculatePaymentsCount(months, f)
	if err != nil {
		return nil, err
	}
	dir, err := LookupDirection(c.Kind)
	if err != nil {
		return nil, err
	}

	end := EndDate(anchor, offset+months)
	step := f.Months()
	now := time.Now().UTC()

	obligations := make([]Obligation, 0, count)
	for i := 0; i < count; i++ {
		start := anchor.AddMonths(offset + i*step)
		periodEnd := anchor.AddMonths(offset + (i+1)*step).AddDays(-1)
		if i == count-1 || periodEnd.After(end) {
			periodEnd = end
		}

		o := Obligation{
			ID:         ObligationID(uuid.NewString()),
			ContractID: c.ID,
			Kind:       c.Kind,
			Sequence:   firstSeq + i,
			DueStart:   start,
			DueEnd:     periodEnd,
			CreatedAt:  now,
		}
		dir.Prepare(c, &o)
		obligations = append(obligations, o)
	}
	return obligations, nil
}

// CanGeneratePayments reports whether a contract is active and has no
// obligations yet.
func CanGeneratePayments(ctx context.Context, store Store, c Contract) (bool, error) {
	if c.Status != ContractActive {
		return false, nil
	}
	n, err := store.CountObligations(ctx, c.ID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Log logrus.FieldLogger
}

func NewGenerator(log logrus.FieldLogger) *Generator {
	return &Generator{Log: log}
}

// Generate builds the full schedule of c and persists it through store.
func (g *Generator) Generate(ctx context.Context, store Store, c Contract) ([]Obligation, error) {
	term := c.Term()
	if !term.IsValid() {
		return nil, &DateOrderError{Start: term.Start, End: term.End}
	}
	obligations, err := BuildSchedule(c, c.StartDate, c.DurationMonths, c.Frequency, 1)
	if err != nil {
		return nil, err
	}
	if err := store.InsertObligations(ctx, obligations); err != nil {
		return nil, fmt.Errorf("saving schedule for contract %s: %w", c.ID, err)
	}

	g.Log.WithFields(logrus.Fields{
		"contract_id": c.ID,
		"kind":        c.Kind,
		"count":       len(obligations),
		"term":        term.String(),
	}).Info("payment schedule generated")
	return obligations, nil
}
