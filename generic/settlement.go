package generic

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// SETTLEMENT SERVICE - The only mutations of a scheduled obligation
// =============================================================================

// SettlementService records settlements and postponements. Both run inside
// TxStore.WithTx so they serialize against reschedules of the same contract.
type SettlementService struct {
	Store TxStore
	Log   logrus.FieldLogger
}

func NewSettlementService(store TxStore, log logrus.FieldLogger) *SettlementService {
	return &SettlementService{Store: store, Log: log}
}

// Settle marks an obligation as collected (leases) or paid (management).
func (s *SettlementService) Settle(ctx context.Context, id ObligationID, on Date, reference string) (Obligation, error) {
	if on.IsZero() {
		return Obligation{}, fmt.Errorf("%w: settlement date is required", ErrInvalidInput)
	}

	var settled Obligation
	err := s.Store.WithTx(ctx, func(st Store) error {
		o, err := st.GetObligation(ctx, id)
		if err != nil {
			return err
		}
		if o.IsSettled() {
			return fmt.Errorf("%w: %s on %s", ErrAlreadySettled, o.ID, o.SettledOn)
		}
		date := on
		o.SettledOn = &date
		if reference != "" {
			o.Reference = reference
		}
		if err := st.UpdateObligation(ctx, o); err != nil {
			return err
		}
		settled = o
		return nil
	})
	if err != nil {
		return Obligation{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"obligation_id": settled.ID,
		"contract_id":   settled.ContractID,
		"settled_on":    on.String(),
	}).Info("obligation settled")
	return settled, nil
}

// Postpone records a delay on an unsettled obligation of a kind that
// supports it. A postponed obligation stays postponed until collected.
func (s *SettlementService) Postpone(ctx context.Context, id ObligationID, days int, reason string) (Obligation, error) {
	if days <= 0 {
		return Obligation{}, fmt.Errorf("%w: delay must be a positive number of days, got %d", ErrInvalidInput, days)
	}

	var postponed Obligation
	err := s.Store.WithTx(ctx, func(st Store) error {
		o, err := st.GetObligation(ctx, id)
		if err != nil {
			return err
		}
		dir, err := LookupDirection(o.Kind)
		if err != nil {
			return err
		}
		if !dir.SupportsDelay() {
			return fmt.Errorf("%w: %s is a %s obligation", ErrNotCollection, o.ID, o.Kind)
		}
		if o.IsSettled() {
			return fmt.Errorf("%w: %s", ErrAlreadySettled, o.ID)
		}
		o.DelayDays = days
		o.DelayReason = reason
		if err := st.UpdateObligation(ctx, o); err != nil {
			return err
		}
		postponed = o
		return nil
	})
	if err != nil {
		return Obligation{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"obligation_id": postponed.ID,
		"delay_days":    days,
	}).Info("obligation postponed")
	return postponed, nil
}
