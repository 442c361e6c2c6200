package generic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/generic"
)

func TestSettle(t *testing.T) {
	st := newStore()
	obs := seedWithSchedule(t, st, leaseContract("c1", "unit-1", "2025-01-01", 3, generic.FrequencyMonthly, 1000))
	svc := generic.NewSettlementService(st, nullLogger())
	ctx := context.Background()

	settled, err := svc.Settle(ctx, obs[0].ID, date("2025-01-04"), "TRX-1")
	require.NoError(t, err)
	require.NotNil(t, settled.SettledOn)
	assert.Equal(t, "2025-01-04", settled.SettledOn.String())
	assert.Equal(t, "TRX-1", settled.Reference)

	_, err = svc.Settle(ctx, obs[0].ID, date("2025-01-05"), "")
	assert.ErrorIs(t, err, generic.ErrAlreadySettled)
	assert.True(t, generic.IsConflict(err))

	_, err = svc.Settle(ctx, obs[1].ID, generic.Date{}, "")
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	_, err = svc.Settle(ctx, "missing", date("2025-01-05"), "")
	assert.ErrorIs(t, err, generic.ErrObligationNotFound)
}

func TestPostpone(t *testing.T) {
	st := newStore()
	leaseObs := seedWithSchedule(t, st, leaseContract("c1", "unit-1", "2025-01-01", 3, generic.FrequencyMonthly, 1000))
	mgmtObs := seedWithSchedule(t, st, managementContract("m1", "prop-1", "2025-01-01", 3, 10))
	svc := generic.NewSettlementService(st, nullLogger())
	ctx := context.Background()

	postponed, err := svc.Postpone(ctx, leaseObs[1].ID, 10, "awaiting transfer")
	require.NoError(t, err)
	assert.Equal(t, 10, postponed.DelayDays)
	assert.Equal(t, "awaiting transfer", postponed.DelayReason)
	assert.Equal(t, generic.StatusPostponed, generic.DeriveStatus(postponed, date("2025-06-01"), defaultSettings()),
		"postponement does not expire")

	_, err = svc.Postpone(ctx, mgmtObs[0].ID, 10, "")
	assert.ErrorIs(t, err, generic.ErrNotCollection)

	_, err = svc.Postpone(ctx, leaseObs[0].ID, 0, "")
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	settle(t, st, leaseObs[2], "2025-03-02")
	_, err = svc.Postpone(ctx, leaseObs[2].ID, 5, "")
	assert.ErrorIs(t, err, generic.ErrAlreadySettled)
}
