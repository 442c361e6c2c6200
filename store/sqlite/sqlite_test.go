package sqlite_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) generic.Date { return generic.MustParseDate(s) }

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	log, _ := test.NewNullLogger()
	st, err := sqlite.New(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func unitLease(id, unit, property string) generic.Contract {
	start := d("2025-01-01")
	return generic.Contract{
		ID:             generic.ContractID(id),
		Number:         "LSE-" + id,
		Kind:           "lease",
		PartyID:        "tenant-1",
		EntityID:       generic.EntityID(unit),
		PropertyID:     generic.EntityID(property),
		StartDate:      start,
		DurationMonths: 12,
		Frequency:      generic.FrequencyMonthly,
		EndDate:        generic.EndDate(start, 12),
		Rate:           decimal.RequireFromString("1200.50"),
		Status:         generic.ContractActive,
	}
}

func rent(id string, contract generic.ContractID, seq int, due string) generic.Obligation {
	start := d(due)
	return generic.Obligation{
		ID:         generic.ObligationID(id),
		ContractID: contract,
		Kind:       "lease",
		Sequence:   seq,
		Amount:     decimal.NewFromInt(1000),
		DueStart:   start,
		DueEnd:     generic.EndDate(start, 1),
	}
}

func ids(obs []generic.Obligation) []string {
	out := make([]string, 0, len(obs))
	for _, o := range obs {
		out = append(out, string(o.ID))
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// MIGRATIONS
// =============================================================================

func TestNew_AppliesAllMigrations(t *testing.T) {
	st := newTestStore(t)

	version, err := st.MigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

// =============================================================================
// CONTRACTS
// =============================================================================

func TestStore_ContractRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := unitLease("c1", "unit-1", "prop-1")
	require.NoError(t, st.SaveContract(ctx, c))

	got, err := st.GetContract(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "LSE-c1", got.Number)
	assert.Equal(t, generic.EntityID("unit-1"), got.EntityID)
	assert.Equal(t, "2025-12-31", got.EndDate.String())
	assert.True(t, got.Rate.Equal(decimal.RequireFromString("1200.50")))
	assert.Equal(t, generic.ContractActive, got.Status)

	c.Status = generic.ContractTerminated
	require.NoError(t, st.SaveContract(ctx, c))

	active, err := st.ContractsForEntity(ctx, "lease", "unit-1", []generic.ContractStatus{generic.ContractActive})
	require.NoError(t, err)
	assert.Empty(t, active)

	terminated, err := st.ContractsByStatus(ctx, generic.ContractTerminated)
	require.NoError(t, err)
	require.Len(t, terminated, 1)

	_, err = st.GetContract(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrContractNotFound)
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

func TestStore_StatusQueriesMatchDerivedStatus(t *testing.T) {
	// GIVEN: obligations in every status as of 2025-03-20
	// WHEN: each status is queried through SQL
	// THEN: the result is exactly the set DeriveStatus assigns that status
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("c1", "unit-1", "prop-1")))

	settled := d("2025-01-03")
	obs := []generic.Obligation{
		rent("jan", "c1", 1, "2025-01-01"),
		rent("feb", "c1", 2, "2025-02-01"),
		rent("mar-10", "c1", 3, "2025-03-10"),
		rent("mar-13", "c1", 4, "2025-03-13"),
		rent("mar-15", "c1", 5, "2025-03-15"),
		rent("apr", "c1", 6, "2025-04-01"),
		rent("may", "c1", 7, "2025-05-01"),
	}
	obs[0].SettledOn = &settled
	obs[1].DelayDays = 30
	require.NoError(t, st.InsertObligations(ctx, obs))

	today := d("2025-03-20")
	settings := generic.DefaultSettings()
	stored, err := st.Obligations(ctx, "c1")
	require.NoError(t, err)

	for _, status := range generic.Statuses() {
		t.Run(string(status), func(t *testing.T) {
			got, err := st.QueryObligations(ctx, generic.StatusFilter(status, today, settings))
			require.NoError(t, err)

			var want []generic.Obligation
			for _, o := range stored {
				if generic.DeriveStatus(o, today, settings) == status {
					want = append(want, o)
				}
			}
			assert.Equal(t, ids(want), ids(got))
		})
	}
}

func TestStore_UpdateAndDeleteUnsettled(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("c1", "unit-1", "prop-1")))
	require.NoError(t, st.InsertObligations(ctx, []generic.Obligation{
		rent("o1", "c1", 1, "2025-01-01"),
		rent("o2", "c1", 2, "2025-02-01"),
		rent("o3", "c1", 3, "2025-03-01"),
	}))

	o1, err := st.GetObligation(ctx, "o1")
	require.NoError(t, err)
	on := d("2025-01-05")
	o1.SettledOn = &on
	o1.Reference = "TRX-1"
	require.NoError(t, st.UpdateObligation(ctx, o1))

	n, err := st.DeleteUnsettled(ctx, []generic.ObligationID{"o1", "o2", "o3"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := st.Obligations(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "TRX-1", left[0].Reference)
	assert.Equal(t, "2025-01-05", left[0].SettledOn.String())

	err = st.UpdateObligation(ctx, rent("missing", "c1", 9, "2025-09-01"))
	assert.ErrorIs(t, err, generic.ErrObligationNotFound)
}

func TestStore_DuplicateSequenceRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("c1", "unit-1", "prop-1")))
	require.NoError(t, st.InsertObligations(ctx, []generic.Obligation{rent("o1", "c1", 1, "2025-01-01")}))

	err := st.InsertObligations(ctx, []generic.Obligation{rent("o1-bis", "c1", 1, "2025-01-01")})
	assert.Error(t, err)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("c1", "unit-1", "prop-1")))

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx generic.Store) error {
		require.NoError(t, tx.SaveContract(ctx, unitLease("c2", "unit-2", "prop-1")))
		require.NoError(t, tx.InsertObligations(ctx, []generic.Obligation{rent("o1", "c1", 1, "2025-01-01")}))

		n, err := tx.CountObligations(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "writes are visible inside the transaction")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = st.GetContract(ctx, "c2")
	assert.ErrorIs(t, err, generic.ErrContractNotFound)
	n, err := st.CountObligations(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_ObligationsForProperty_TouchRule(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("l1", "u1", "p1")))
	require.NoError(t, st.SaveContract(ctx, unitLease("l2", "u9", "p2")))

	settledInside := d("2025-03-10")
	collectedEarly := d("2025-03-28")
	obs := []generic.Obligation{
		rent("settled-inside", "l1", 1, "2025-02-20"),
		rent("due-inside", "l1", 2, "2025-03-01"),
		rent("early", "l1", 3, "2025-04-01"),
		rent("outside", "l1", 4, "2025-05-01"),
		rent("other-property", "l2", 1, "2025-03-01"),
	}
	obs[0].SettledOn = &settledInside
	obs[2].SettledOn = &collectedEarly
	require.NoError(t, st.InsertObligations(ctx, obs))

	march := generic.Period{Start: d("2025-03-01"), End: d("2025-03-31")}
	got, err := st.ObligationsForProperty(ctx, "lease", "p1", march)
	require.NoError(t, err)

	var order []generic.ObligationID
	for _, o := range got {
		order = append(order, o.ID)
	}
	assert.Equal(t, []generic.ObligationID{"settled-inside", "due-inside", "early"}, order)
}

// =============================================================================
// EXPENSES / SETTINGS / RESET
// =============================================================================

func TestStore_ExpensesForProperty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, e := range []generic.Expense{
		{ID: "e1", PropertyID: "p1", Date: d("2025-03-12"), Amount: decimal.RequireFromString("150.25"), Description: "plumbing"},
		{ID: "e2", PropertyID: "p1", Date: d("2025-04-02"), Amount: decimal.NewFromInt(80)},
		{ID: "e3", PropertyID: "p2", Date: d("2025-03-12"), Amount: decimal.NewFromInt(999)},
	} {
		require.NoError(t, st.SaveExpense(ctx, e))
	}

	got, err := st.ExpensesForProperty(ctx, "p1", generic.Period{Start: d("2025-03-01"), End: d("2025-03-31")})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "plumbing", got[0].Description)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("150.25")))
}

func TestStore_SettingsDefaultsAndUpsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	s, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, s.PaymentDueDays)
	assert.True(t, s.LateFeeDailyRate.Equal(decimal.RequireFromString("0.05")))

	s.PaymentDueDays = 10
	s.LateFeeDailyRate = decimal.RequireFromString("0.02")
	require.NoError(t, st.SaveSettings(ctx, s))

	got, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, got.PaymentDueDays)
	assert.True(t, got.LateFeeDailyRate.Equal(decimal.RequireFromString("0.02")))
}

func TestStore_ResetKeepsSettings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.SaveContract(ctx, unitLease("c1", "unit-1", "prop-1")))
	require.NoError(t, st.InsertObligations(ctx, []generic.Obligation{rent("o1", "c1", 1, "2025-01-01")}))
	require.NoError(t, st.SaveExpense(ctx, generic.Expense{ID: "e1", PropertyID: "prop-1", Date: d("2025-01-10"), Amount: decimal.NewFromInt(10)}))
	require.NoError(t, st.SaveSettings(ctx, generic.Settings{PaymentDueDays: 3, LateFeeDailyRate: decimal.RequireFromString("0.01")}))

	require.NoError(t, st.Reset(ctx))

	all, err := st.ContractsByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = st.GetObligation(ctx, "o1")
	assert.ErrorIs(t, err, generic.ErrObligationNotFound)

	s, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.PaymentDueDays)
}
