package generic_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/generic/store"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/management"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.Date {
	return generic.MustParseDate(s)
}

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func defaultSettings() generic.Settings {
	return generic.DefaultSettings()
}

func leaseContract(id, unit, start string, months int, f generic.Frequency, rent int64) generic.Contract {
	c := generic.Contract{
		ID:             generic.ContractID(id),
		Number:         "LSE-" + id,
		Kind:           lease.Kind,
		PartyID:        "tenant-1",
		EntityID:       generic.EntityID(unit),
		PropertyID:     "prop-1",
		StartDate:      date(start),
		DurationMonths: months,
		Frequency:      f,
		Rate:           decimal.NewFromInt(rent),
		Status:         generic.ContractActive,
	}
	c.Normalize()
	return c
}

func managementContract(id, property, start string, months int, rate int64) generic.Contract {
	c := generic.Contract{
		ID:             generic.ContractID(id),
		Number:         "MGT-" + id,
		Kind:           management.Kind,
		PartyID:        "owner-1",
		EntityID:       generic.EntityID(property),
		StartDate:      date(start),
		DurationMonths: months,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(rate),
		Status:         generic.ContractActive,
	}
	c.Normalize()
	return c
}

// seed saves contracts directly, bypassing validation.
func seed(t *testing.T, st generic.Store, contracts ...generic.Contract) {
	t.Helper()
	for _, c := range contracts {
		require.NoError(t, st.SaveContract(context.Background(), c))
	}
}

// seedWithSchedule saves a contract and its generated schedule.
func seedWithSchedule(t *testing.T, st generic.Store, c generic.Contract) []generic.Obligation {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, c))
	obs, err := generic.NewGenerator(nullLogger()).Generate(ctx, st, c)
	require.NoError(t, err)
	return obs
}

func settle(t *testing.T, st generic.Store, o generic.Obligation, on string) {
	t.Helper()
	d := date(on)
	o.SettledOn = &d
	require.NoError(t, st.UpdateObligation(context.Background(), o))
}

func obligation(due string, months int) generic.Obligation {
	start := date(due)
	return generic.Obligation{
		ID:       generic.ObligationID("o-" + due),
		Kind:     lease.Kind,
		DueStart: start,
		DueEnd:   generic.EndDate(start, months),
		Amount:   decimal.NewFromInt(1000),
	}
}

func newStore() *store.TxMemory {
	return store.NewTxMemory()
}
