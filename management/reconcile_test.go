package management_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/generic/store"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/management"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) generic.Date { return generic.MustParseDate(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func march() generic.Period {
	return generic.Period{Start: d("2025-03-01"), End: d("2025-03-31")}
}

func payment(due string, settled string) generic.Obligation {
	start := d(due)
	o := generic.Obligation{
		ID:       generic.ObligationID("o-" + due),
		Kind:     lease.Kind,
		Amount:   decimal.NewFromInt(1000),
		DueStart: start,
		DueEnd:   generic.EndDate(start, 1),
	}
	if settled != "" {
		on := d(settled)
		o.SettledOn = &on
	}
	return o
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestClassify_MarchSupplyPeriod(t *testing.T) {
	tests := []struct {
		name    string
		due     string
		settled string
		want    management.Category
	}{
		{"due inside, unpaid", "2025-03-20", "", management.CategoryUnpaid},
		{"due inside, paid inside", "2025-03-01", "2025-03-05", management.CategoryDueAndPaid},
		{"due inside, paid before due", "2025-03-15", "2025-02-25", management.CategoryDueAndPaid},
		{"due Feb 20, collected Mar 10", "2025-02-20", "2025-03-10", management.CategoryLateCollected},
		{"due inside, paid in April", "2025-03-15", "2025-04-02", management.CategoryPaidLateAfter},
		{"due April, collected Mar 28", "2025-04-01", "2025-03-28", management.CategoryCollectedEarly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, ok := management.Classify(payment(tt.due, tt.settled), march())
			require.True(t, ok)
			assert.Equal(t, tt.want, cat)
		})
	}
}

func TestClassify_NotTouching(t *testing.T) {
	for _, o := range []generic.Obligation{
		payment("2025-02-01", "2025-02-03"),
		payment("2025-02-01", ""),
		payment("2025-04-01", "2025-04-01"),
		payment("2025-01-15", "2025-04-10"),
	} {
		_, ok := management.Classify(o, march())
		assert.False(t, ok, "due %s", o.DueStart)
	}
}

// Every payment that touches the period lands in exactly one category, and
// only categories 2 and 3 count.
func TestClassify_CompleteOverTouchSet(t *testing.T) {
	period := march()
	for dueOffset := -45; dueOffset <= 75; dueOffset += 2 {
		due := period.Start.AddDays(dueOffset)
		settlements := []string{""}
		for s := -20; s <= 90; s += 5 {
			settlements = append(settlements, period.Start.AddDays(s).String())
		}
		for _, settled := range settlements {
			o := payment(due.String(), settled)
			touches := period.Contains(o.DueStart) || (o.SettledOn != nil && period.Contains(*o.SettledOn))

			cat, ok := management.Classify(o, period)
			require.Equal(t, touches, ok, "due %s settled %q", due, settled)
			if !ok {
				continue
			}
			counted := o.SettledOn != nil && period.Contains(*o.SettledOn) && o.DueStart.BeforeOrEqual(period.End) ||
				o.SettledOn != nil && period.Contains(o.DueStart) && o.SettledOn.Before(period.Start)
			assert.Equal(t, counted, cat.Counted(), "due %s settled %q -> %s", due, settled, cat)
		}
	}
}

func TestCommission(t *testing.T) {
	assert.True(t, management.Commission(dec("2011"), dec("10")).Equal(dec("201.10")))
	assert.True(t, management.Commission(dec("1234.56"), dec("7.5")).Equal(dec("92.59")))
	assert.True(t, management.Commission(decimal.Zero, dec("10")).IsZero())
}

// =============================================================================
// RECONCILER
// =============================================================================

type fixture struct {
	store  *store.TxMemory
	supply generic.Obligation
	rec    *management.Reconciler
}

// newFixture builds prop-1 with three leases and a monthly management
// contract whose March supply payment touches:
//
//	A 02-20 settled 03-10   late collected      1000 + 11 fee
//	A 03-20 unpaid          unpaid              1000 + 9 fee
//	B 03-01 settled 03-05   due and paid        1000
//	B 04-01 settled 03-28   collected early     1000
//	C 03-15 settled 04-02   paid late after     1000 + 11 fee
func newFixture(t *testing.T) fixture {
	t.Helper()
	st := store.NewTxMemory()
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	gen := generic.NewGenerator(log)

	require.NoError(t, st.SaveSettings(ctx, generic.Settings{PaymentDueDays: 7, LateFeeDailyRate: dec("0.001")}))

	schedule := func(c generic.Contract) []generic.Obligation {
		c.Normalize()
		require.NoError(t, st.SaveContract(ctx, c))
		obs, err := gen.Generate(ctx, st, c)
		require.NoError(t, err)
		return obs
	}
	leaseOn := func(id, unit, start string, months int) generic.Contract {
		return generic.Contract{
			ID: generic.ContractID(id), Kind: lease.Kind, EntityID: generic.EntityID(unit), PropertyID: "prop-1",
			StartDate: d(start), DurationMonths: months, Frequency: generic.FrequencyMonthly,
			Rate: decimal.NewFromInt(1000), Status: generic.ContractActive,
		}
	}
	settleOn := func(o generic.Obligation, on string) {
		day := d(on)
		o.SettledOn = &day
		require.NoError(t, st.UpdateObligation(ctx, o))
	}

	a := schedule(leaseOn("A", "u1", "2025-02-20", 2))
	b := schedule(leaseOn("B", "u2", "2025-01-01", 4))
	c := schedule(leaseOn("C", "u3", "2025-03-15", 2))
	schedule(generic.Contract{
		ID: "other", Kind: lease.Kind, EntityID: "u9", PropertyID: "prop-2",
		StartDate: d("2025-03-01"), DurationMonths: 1, Frequency: generic.FrequencyMonthly,
		Rate: decimal.NewFromInt(5000), Status: generic.ContractActive,
	})
	mgmt := schedule(generic.Contract{
		ID: "M", Kind: management.Kind, EntityID: "prop-1",
		StartDate: d("2025-01-01"), DurationMonths: 12, Frequency: generic.FrequencyMonthly,
		Rate: decimal.NewFromInt(10), Status: generic.ContractActive,
	})

	settleOn(a[0], "2025-03-10")
	settleOn(b[0], "2025-01-03")
	settleOn(b[1], "2025-02-03")
	settleOn(b[2], "2025-03-05")
	settleOn(b[3], "2025-03-28")
	settleOn(c[0], "2025-04-02")

	require.NoError(t, st.SaveExpense(ctx, generic.Expense{ID: "e1", PropertyID: "prop-1", Date: d("2025-03-12"), Amount: dec("150")}))
	require.NoError(t, st.SaveExpense(ctx, generic.Expense{ID: "e2", PropertyID: "prop-1", Date: d("2025-04-02"), Amount: dec("80")}))
	require.NoError(t, st.SaveExpense(ctx, generic.Expense{ID: "e3", PropertyID: "prop-2", Date: d("2025-03-12"), Amount: dec("999")}))

	return fixture{store: st, supply: mgmt[2], rec: management.NewReconciler(st, st, log)}
}

func TestReconcile_MarchPayout(t *testing.T) {
	f := newFixture(t)
	rec, err := f.rec.Reconcile(context.Background(), f.supply.ID, d("2025-04-05"))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-01", rec.Period.Start.String())
	assert.Equal(t, "2025-03-31", rec.Period.End.String())

	counts := map[management.Category]int{}
	for _, cat := range management.Categories() {
		counts[cat] = len(rec.Bucket(cat).Payments)
	}
	assert.Equal(t, map[management.Category]int{
		management.CategoryUnpaid:         1,
		management.CategoryDueAndPaid:     1,
		management.CategoryLateCollected:  1,
		management.CategoryPaidLateAfter:  1,
		management.CategoryCollectedEarly: 1,
	}, counts)

	late := rec.Bucket(management.CategoryLateCollected).Payments[0]
	assert.Equal(t, generic.ContractID("A"), late.ContractID)
	assert.True(t, late.LateFee.Equal(dec("11")), "late fee %s", late.LateFee)

	assert.True(t, rec.Bucket(management.CategoryUnpaid).Subtotal.Equal(dec("1009")))
	assert.True(t, rec.Gross.Equal(dec("2011")), "gross %s", rec.Gross)
	assert.True(t, rec.CommissionRate.Equal(dec("10")))
	assert.True(t, rec.Commission.Equal(dec("201.10")), "commission %s", rec.Commission)
	assert.True(t, rec.Deductions.Equal(dec("150")), "deductions %s", rec.Deductions)
	assert.True(t, rec.Net.Equal(dec("1659.90")), "net %s", rec.Net)
}

func TestReconcile_ApplyWritesPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rec.Apply(ctx, f.supply.ID, d("2025-04-05"))
	require.NoError(t, err)

	o, err := f.store.GetObligation(ctx, f.supply.ID)
	require.NoError(t, err)
	assert.True(t, o.Amount.Equal(dec("2011")))
	assert.True(t, o.CommissionAmount.Equal(dec("201.10")))
	assert.True(t, o.Deductions.Equal(dec("150")))
	assert.True(t, o.NetAmount.Equal(dec("1659.90")))

	// Paid out: the payout is frozen.
	paid := d("2025-04-06")
	o.SettledOn = &paid
	require.NoError(t, f.store.UpdateObligation(ctx, o))
	_, err = f.rec.Apply(ctx, f.supply.ID, d("2025-04-07"))
	assert.ErrorIs(t, err, generic.ErrAlreadySettled)
}

func TestReconcile_RejectsCollectionPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	collections, err := f.store.Obligations(ctx, "A")
	require.NoError(t, err)

	_, err = f.rec.Reconcile(ctx, collections[0].ID, d("2025-04-05"))
	assert.ErrorIs(t, err, generic.ErrNotSupply)

	_, err = f.rec.Reconcile(ctx, "missing", d("2025-04-05"))
	assert.True(t, generic.IsNotFound(err))
}

func TestPrepare_SupplyPaymentsStartEmpty(t *testing.T) {
	c := generic.Contract{Rate: decimal.NewFromInt(12)}
	o := generic.Obligation{Amount: decimal.NewFromInt(5)}
	management.Direction{}.Prepare(c, &o)
	assert.True(t, o.Amount.IsZero())
	assert.True(t, o.CommissionRate.Equal(decimal.NewFromInt(12)))
	assert.False(t, management.Direction{}.SupportsDelay())
}
