package generic_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// SCHEDULE GENERATION
// =============================================================================

func TestBuildSchedule_MonthlyLease2025(t *testing.T) {
	// GIVEN: 12-month monthly lease from 2025-01-01 at 1200/month
	// THEN: 12 payments, January through December, 1200 each
	c := leaseContract("c1", "unit-1", "2025-01-01", 12, generic.FrequencyMonthly, 1200)

	obs, err := generic.BuildSchedule(c, c.StartDate, c.DurationMonths, c.Frequency, 1)
	require.NoError(t, err)
	require.Len(t, obs, 12)

	assert.Equal(t, "2025-01-01", obs[0].DueStart.String())
	assert.Equal(t, "2025-01-31", obs[0].DueEnd.String())
	assert.Equal(t, "2025-02-01", obs[1].DueStart.String())
	assert.Equal(t, "2025-02-28", obs[1].DueEnd.String())
	assert.Equal(t, "2025-12-01", obs[11].DueStart.String())
	assert.Equal(t, "2025-12-31", obs[11].DueEnd.String())

	for i, o := range obs {
		assert.Equal(t, i+1, o.Sequence)
		assert.Equal(t, c.ID, o.ContractID)
		assert.True(t, o.Amount.Equal(decimal.NewFromInt(1200)), "payment %d amount %s", i, o.Amount)
		assert.Nil(t, o.SettledOn)
		assert.NotEmpty(t, o.ID)
	}
}

func TestBuildSchedule_QuarterlyChargesThreeMonths(t *testing.T) {
	c := leaseContract("c1", "unit-1", "2025-01-01", 12, generic.FrequencyQuarterly, 1200)

	obs, err := generic.BuildSchedule(c, c.StartDate, c.DurationMonths, c.Frequency, 1)
	require.NoError(t, err)
	require.Len(t, obs, 4)
	for _, o := range obs {
		assert.True(t, o.Amount.Equal(decimal.NewFromInt(3600)))
		assert.Equal(t, 3, o.CoveredMonths())
	}
	assert.Equal(t, "2025-04-01", obs[1].DueStart.String())
	assert.Equal(t, "2025-06-30", obs[1].DueEnd.String())
}

func TestBuildSchedule_ManagementStartsAtZero(t *testing.T) {
	c := managementContract("m1", "prop-1", "2025-01-01", 6, 10)

	obs, err := generic.BuildSchedule(c, c.StartDate, c.DurationMonths, c.Frequency, 1)
	require.NoError(t, err)
	require.Len(t, obs, 6)
	for _, o := range obs {
		assert.True(t, o.Amount.IsZero())
		assert.True(t, o.CommissionRate.Equal(decimal.NewFromInt(10)))
	}
}

// Consecutive periods never overlap or leave a gap, and the schedule spans
// exactly the contract term.
func TestBuildSchedule_Contiguous(t *testing.T) {
	starts := []string{"2025-01-01", "2025-01-31", "2024-02-29", "2025-03-15", "2025-08-31", "2025-11-30"}
	durations := map[generic.Frequency][]int{
		generic.FrequencyMonthly:      {1, 5, 12, 25},
		generic.FrequencyQuarterly:    {3, 9, 12},
		generic.FrequencySemiAnnually: {6, 18},
		generic.FrequencyAnnually:     {12, 36},
	}

	for _, start := range starts {
		for f, months := range durations {
			for _, m := range months {
				c := leaseContract("c1", "unit-1", start, m, f, 1000)
				obs, err := generic.BuildSchedule(c, c.StartDate, m, f, 1)
				require.NoError(t, err)

				require.Equal(t, m/f.Months(), len(obs))
				assert.Equal(t, c.StartDate, obs[0].DueStart, "%s %d %s", start, m, f)
				assert.Equal(t, c.EndDate, obs[len(obs)-1].DueEnd, "%s %d %s", start, m, f)
				for i := 1; i < len(obs); i++ {
					assert.Equal(t, obs[i-1].DueEnd.AddDays(1), obs[i].DueStart,
						"%s %d %s: gap between %d and %d", start, m, f, i-1, i)
				}
			}
		}
	}
}

func TestBuildSchedule_UnknownKind(t *testing.T) {
	c := leaseContract("c1", "unit-1", "2025-01-01", 12, generic.FrequencyMonthly, 1000)
	c.Kind = "sublet"
	_, err := generic.BuildSchedule(c, c.StartDate, 12, c.Frequency, 1)
	assert.ErrorIs(t, err, generic.ErrUnknownKind)
}

// =============================================================================
// GENERATION GUARD
// =============================================================================

func TestCanGeneratePayments(t *testing.T) {
	st := newStore()
	ctx := context.Background()

	active := leaseContract("c1", "unit-1", "2025-01-01", 12, generic.FrequencyMonthly, 1000)
	draft := leaseContract("c2", "unit-2", "2025-01-01", 12, generic.FrequencyMonthly, 1000)
	draft.Status = generic.ContractDraft
	seed(t, st, active, draft)

	ok, err := generic.CanGeneratePayments(ctx, st, active)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = generic.CanGeneratePayments(ctx, st, draft)
	require.NoError(t, err)
	assert.False(t, ok, "draft contracts have no schedule")

	_, err = generic.NewGenerator(nullLogger()).Generate(ctx, st, active)
	require.NoError(t, err)

	ok, err = generic.CanGeneratePayments(ctx, st, active)
	require.NoError(t, err)
	assert.False(t, ok, "schedule already exists")
}
