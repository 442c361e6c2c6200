/*
contract.go - Contract lifecycle and the post-commit generation hook

PURPOSE:
  Owns contract persistence. Every create/update recomputes the end date,
  validates the timeline, re-checks overlap inside the write transaction and
  then runs the post-commit hook that generates the payment schedule when
  CanGeneratePayments holds.

LIFECYCLE:
  draft ──activate──▶ active ──▶ expired / terminated
    │                   │
    └──terminate──▶ terminated
  Renewal (reschedule.go) is the one way back to active from expired.

GENERATION POLICY:
  Best-effort (default): the schedule is generated after the contract commit.
  A generation failure is logged and reported in SaveResult.GenerationError;
  the contract stays saved without a schedule and the maintenance sweep (or
  a manual generate) fills it in later.

  Strict (StrictGeneration=true): generation runs inside the save
  transaction and a failure rolls the save back.

SEE ALSO:
  - duration.go: Validator
  - schedule.go: Generator
  - api/scheduler.go: Maintenance sweep
*/
package generic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SaveResult reports a contract save and the schedule it triggered.
type SaveResult struct {
	Contract        Contract
	Generated       int
	GenerationError error
}

type ContractManager struct {
	Store            TxStore
	Generator        *Generator
	Log              logrus.FieldLogger
	StrictGeneration bool
}

func NewContractManager(store TxStore, log logrus.FieldLogger) *ContractManager {
	return &ContractManager{
		Store:     store,
		Generator: NewGenerator(log),
		Log:       log,
	}
}

// Create validates and saves a new contract. Status defaults to draft.
func (m *ContractManager) Create(ctx context.Context, c Contract) (*SaveResult, error) {
	if c.ID == "" {
		c.ID = ContractID(uuid.NewString())
	}
	if c.Number == "" {
		c.Number = string(c.ID)
	}
	if c.Status == "" {
		c.Status = ContractDraft
	}
	if c.Status != ContractDraft && c.Status != ContractActive {
		return nil, fmt.Errorf("%w: contracts are created as draft or active, got %q", ErrInvalidStatus, c.Status)
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return m.save(ctx, c)
}

// Update saves changed contract fields. Timeline fields cannot change once a
// schedule exists; use Engine.Reschedule or Engine.Renew instead.
func (m *ContractManager) Update(ctx context.Context, c Contract) (*SaveResult, error) {
	existing, err := m.Store.GetContract(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !c.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, c.Status)
	}
	if c.Status != existing.Status && !canTransition(existing.Status, c.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, existing.Status, c.Status)
	}
	if timelineChanged(existing, c) {
		n, err := m.Store.CountObligations(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: contract %s has %d scheduled obligations, reschedule instead",
				ErrInvalidStatus, c.ID, n)
		}
	}
	c.Kind = existing.Kind
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	return m.save(ctx, c)
}

// Activate moves a draft contract to active, which triggers generation.
func (m *ContractManager) Activate(ctx context.Context, id ContractID) (*SaveResult, error) {
	c, err := m.Store.GetContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != ContractDraft {
		return nil, fmt.Errorf("%w: only draft contracts can be activated, %s is %s", ErrInvalidStatus, id, c.Status)
	}
	c.Status = ContractActive
	c.UpdatedAt = time.Now().UTC()
	return m.save(ctx, c)
}

// Terminate ends a draft or active contract. Its schedule is left as is.
func (m *ContractManager) Terminate(ctx context.Context, id ContractID) (Contract, error) {
	var out Contract
	err := m.Store.WithTx(ctx, func(st Store) error {
		c, err := st.GetContract(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(c.Status, ContractTerminated) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, c.Status, ContractTerminated)
		}
		c.Status = ContractTerminated
		c.UpdatedAt = time.Now().UTC()
		out = c
		return st.SaveContract(ctx, c)
	})
	if err == nil {
		m.Log.WithField("contract_id", id).Info("contract terminated")
	}
	return out, err
}

// GenerateSchedule generates a contract's schedule on demand. It is a
// no-op returning nil when CanGeneratePayments is false.
func (m *ContractManager) GenerateSchedule(ctx context.Context, id ContractID) ([]Obligation, error) {
	var created []Obligation
	err := m.Store.WithTx(ctx, func(st Store) error {
		c, err := st.GetContract(ctx, id)
		if err != nil {
			return err
		}
		ok, err := CanGeneratePayments(ctx, st, c)
		if err != nil || !ok {
			return err
		}
		created, err = m.Generator.Generate(ctx, st, c)
		return err
	})
	return created, err
}

// ExpireEnded marks active contracts whose end date is before today as
// expired and returns how many changed.
func (m *ContractManager) ExpireEnded(ctx context.Context, today Date) (int, error) {
	expired := 0
	err := m.Store.WithTx(ctx, func(st Store) error {
		active, err := st.ContractsByStatus(ctx, ContractActive)
		if err != nil {
			return err
		}
		for _, c := range active {
			if !c.Term().End.Before(today) {
				continue
			}
			c.Status = ContractExpired
			c.UpdatedAt = time.Now().UTC()
			if err := st.SaveContract(ctx, c); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	return expired, err
}

// GenerateMissing generates schedules for active contracts that have none,
// repairing best-effort generations that failed. Failures are logged per
// contract and do not stop the sweep.
func (m *ContractManager) GenerateMissing(ctx context.Context) (int, error) {
	active, err := m.Store.ContractsByStatus(ctx, ContractActive)
	if err != nil {
		return 0, err
	}
	generated := 0
	for _, c := range active {
		created, err := m.GenerateSchedule(ctx, c.ID)
		if err != nil {
			m.Log.WithError(err).WithField("contract_id", c.ID).Warn("schedule repair failed")
			continue
		}
		if len(created) > 0 {
			generated++
		}
	}
	return generated, nil
}

// =============================================================================
// SAVE + POST-COMMIT HOOK
// =============================================================================

func (m *ContractManager) save(ctx context.Context, c Contract) (*SaveResult, error) {
	c.Normalize()
	validator := NewValidator(m.Store)
	if err := validator.ValidateContract(ctx, c); err != nil {
		return nil, err
	}

	result := &SaveResult{}
	err := m.Store.WithTx(ctx, func(st Store) error {
		// Re-check inside the write transaction: a sibling may have been
		// saved since the validation above.
		if c.Status.Blocks() {
			if err := NewValidator(st).ValidateDuration(ctx, c.Kind, c.EntityID, c.StartDate, c.DurationMonths, c.ID); err != nil {
				return err
			}
		}
		if err := st.SaveContract(ctx, c); err != nil {
			return err
		}
		if !m.StrictGeneration {
			return nil
		}
		n, err := m.generateIfEligible(ctx, st, c)
		result.Generated = n
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Contract = c

	m.Log.WithFields(logrus.Fields{
		"contract_id": c.ID,
		"kind":        c.Kind,
		"status":      c.Status,
		"end_date":    c.EndDate.String(),
	}).Info("contract saved")

	if !m.StrictGeneration {
		m.afterCommit(ctx, c, result)
	}
	return result, nil
}

// afterCommit is the post-commit hook. Generation errors are logged and
// reported, never returned.
func (m *ContractManager) afterCommit(ctx context.Context, c Contract, result *SaveResult) {
	err := m.Store.WithTx(ctx, func(st Store) error {
		n, err := m.generateIfEligible(ctx, st, c)
		result.Generated = n
		return err
	})
	if err != nil {
		result.GenerationError = err
		m.Log.WithError(err).WithField("contract_id", c.ID).Error("payment schedule generation failed")
	}
}

func (m *ContractManager) generateIfEligible(ctx context.Context, st Store, c Contract) (int, error) {
	ok, err := CanGeneratePayments(ctx, st, c)
	if err != nil || !ok {
		return 0, err
	}
	created, err := m.Generator.Generate(ctx, st, c)
	return len(created), err
}

func timelineChanged(a, b Contract) bool {
	return !a.StartDate.Equal(b.StartDate) ||
		a.DurationMonths != b.DurationMonths ||
		a.Frequency != b.Frequency ||
		a.EntityID != b.EntityID
}

func canTransition(from, to ContractStatus) bool {
	switch from {
	case ContractDraft:
		return to == ContractActive || to == ContractTerminated
	case ContractActive:
		return to == ContractExpired || to == ContractTerminated || to == ContractRenewed
	case ContractRenewed:
		return to == ContractExpired || to == ContractTerminated
	}
	return false
}
