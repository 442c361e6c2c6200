// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/lease-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	d  *data
}

// data holds the records. Its methods never lock; Memory locks around them
// and transaction views call them under the lock WithTx already holds.
type data struct {
	contracts   map[generic.ContractID]generic.Contract
	obligations map[generic.ObligationID]generic.Obligation
	expenses    map[string]generic.Expense
	settings    map[string]string
}

func newData() *data {
	return &data{
		contracts:   make(map[generic.ContractID]generic.Contract),
		obligations: make(map[generic.ObligationID]generic.Obligation),
		expenses:    make(map[string]generic.Expense),
		settings:    make(map[string]string),
	}
}

func NewMemory() *Memory {
	return &Memory{d: newData()}
}

func (m *Memory) ContractsForEntity(ctx context.Context, kind generic.ContractKind, entityID generic.EntityID, statuses []generic.ContractStatus) ([]generic.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ContractsForEntity(ctx, kind, entityID, statuses)
}

func (m *Memory) GetContract(ctx context.Context, id generic.ContractID) (generic.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.GetContract(ctx, id)
}

func (m *Memory) SaveContract(ctx context.Context, c generic.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveContract(ctx, c)
}

func (m *Memory) ContractsByStatus(ctx context.Context, statuses ...generic.ContractStatus) ([]generic.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ContractsByStatus(ctx, statuses...)
}

func (m *Memory) InsertObligations(ctx context.Context, obs []generic.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.InsertObligations(ctx, obs)
}

func (m *Memory) Obligations(ctx context.Context, contractID generic.ContractID) ([]generic.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.Obligations(ctx, contractID)
}

func (m *Memory) CountObligations(ctx context.Context, contractID generic.ContractID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.CountObligations(ctx, contractID)
}

func (m *Memory) GetObligation(ctx context.Context, id generic.ObligationID) (generic.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.GetObligation(ctx, id)
}

func (m *Memory) UpdateObligation(ctx context.Context, o generic.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.UpdateObligation(ctx, o)
}

func (m *Memory) DeleteUnsettled(ctx context.Context, ids []generic.ObligationID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.DeleteUnsettled(ctx, ids)
}

func (m *Memory) QueryObligations(ctx context.Context, f generic.Filter) ([]generic.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.QueryObligations(ctx, f)
}

func (m *Memory) ObligationsForProperty(ctx context.Context, kind generic.ContractKind, propertyID generic.EntityID, period generic.Period) ([]generic.Obligation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ObligationsForProperty(ctx, kind, propertyID, period)
}

func (m *Memory) SaveExpense(ctx context.Context, e generic.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.SaveExpense(ctx, e)
}

func (m *Memory) ExpensesForProperty(ctx context.Context, propertyID generic.EntityID, period generic.Period) ([]generic.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.d.ExpensesForProperty(ctx, propertyID, period)
}

func (m *Memory) Settings(_ context.Context) (generic.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.SettingsFromMap(m.d.settings)
}

func (m *Memory) SaveSettings(_ context.Context, s generic.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range s.ToMap() {
		m.d.settings[k] = v
	}
	return nil
}

// Reset clears all data (for testing/demo). Settings are kept.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings := m.d.settings
	m.d = newData()
	m.d.settings = settings
	return nil
}

// =============================================================================
// RECORDS (unlocked)
// =============================================================================

func (d *data) ContractsForEntity(_ context.Context, kind generic.ContractKind, entityID generic.EntityID, statuses []generic.ContractStatus) ([]generic.Contract, error) {
	var result []generic.Contract
	for _, c := range d.contracts {
		if c.Kind == kind && c.EntityID == entityID && hasStatus(statuses, c.Status) {
			result = append(result, c)
		}
	}
	sortContracts(result)
	return result, nil
}

func (d *data) GetContract(_ context.Context, id generic.ContractID) (generic.Contract, error) {
	c, ok := d.contracts[id]
	if !ok {
		return generic.Contract{}, generic.ErrContractNotFound
	}
	return c, nil
}

func (d *data) SaveContract(_ context.Context, c generic.Contract) error {
	d.contracts[c.ID] = c
	return nil
}

func (d *data) ContractsByStatus(_ context.Context, statuses ...generic.ContractStatus) ([]generic.Contract, error) {
	var result []generic.Contract
	for _, c := range d.contracts {
		if hasStatus(statuses, c.Status) {
			result = append(result, c)
		}
	}
	sortContracts(result)
	return result, nil
}

func (d *data) InsertObligations(_ context.Context, obs []generic.Obligation) error {
	for _, o := range obs {
		d.obligations[o.ID] = clone(o)
	}
	return nil
}

func (d *data) Obligations(_ context.Context, contractID generic.ContractID) ([]generic.Obligation, error) {
	var result []generic.Obligation
	for _, o := range d.obligations {
		if o.ContractID == contractID {
			result = append(result, clone(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

func (d *data) CountObligations(_ context.Context, contractID generic.ContractID) (int, error) {
	n := 0
	for _, o := range d.obligations {
		if o.ContractID == contractID {
			n++
		}
	}
	return n, nil
}

func (d *data) GetObligation(_ context.Context, id generic.ObligationID) (generic.Obligation, error) {
	o, ok := d.obligations[id]
	if !ok {
		return generic.Obligation{}, generic.ErrObligationNotFound
	}
	return clone(o), nil
}

func (d *data) UpdateObligation(_ context.Context, o generic.Obligation) error {
	if _, ok := d.obligations[o.ID]; !ok {
		return generic.ErrObligationNotFound
	}
	d.obligations[o.ID] = clone(o)
	return nil
}

// DeleteUnsettled re-checks each obligation at delete time.
func (d *data) DeleteUnsettled(_ context.Context, ids []generic.ObligationID) (int, error) {
	deleted := 0
	for _, id := range ids {
		o, ok := d.obligations[id]
		if !ok || o.IsSettled() {
			continue
		}
		delete(d.obligations, id)
		deleted++
	}
	return deleted, nil
}

func (d *data) QueryObligations(_ context.Context, f generic.Filter) ([]generic.Obligation, error) {
	var result []generic.Obligation
	for _, o := range d.obligations {
		if f.Matches(o) {
			result = append(result, clone(o))
		}
	}
	sortByDue(result)
	return result, nil
}

func (d *data) ObligationsForProperty(_ context.Context, kind generic.ContractKind, propertyID generic.EntityID, period generic.Period) ([]generic.Obligation, error) {
	var result []generic.Obligation
	for _, o := range d.obligations {
		if o.Kind != kind {
			continue
		}
		c, ok := d.contracts[o.ContractID]
		if !ok || c.PropertyID != propertyID {
			continue
		}
		touches := period.Contains(o.DueStart) || (o.SettledOn != nil && period.Contains(*o.SettledOn))
		if touches {
			result = append(result, clone(o))
		}
	}
	sortByDue(result)
	return result, nil
}

func (d *data) SaveExpense(_ context.Context, e generic.Expense) error {
	d.expenses[e.ID] = e
	return nil
}

func (d *data) ExpensesForProperty(_ context.Context, propertyID generic.EntityID, period generic.Period) ([]generic.Expense, error) {
	var result []generic.Expense
	for _, e := range d.expenses {
		if e.PropertyID == propertyID && period.Contains(e.Date) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (d *data) snapshot() *data {
	s := newData()
	for k, v := range d.contracts {
		s.contracts[k] = v
	}
	for k, v := range d.obligations {
		s.obligations[k] = clone(v)
	}
	for k, v := range d.expenses {
		s.expenses[k] = v
	}
	for k, v := range d.settings {
		s.settings[k] = v
	}
	return s
}

func hasStatus(statuses []generic.ContractStatus, s generic.ContractStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func sortContracts(cs []generic.Contract) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].StartDate.Equal(cs[j].StartDate) {
			return cs[i].StartDate.Before(cs[j].StartDate)
		}
		return cs[i].ID < cs[j].ID
	})
}

func sortByDue(obs []generic.Obligation) {
	sort.Slice(obs, func(i, j int) bool {
		if !obs[i].DueStart.Equal(obs[j].DueStart) {
			return obs[i].DueStart.Before(obs[j].DueStart)
		}
		if obs[i].ContractID != obs[j].ContractID {
			return obs[i].ContractID < obs[j].ContractID
		}
		return obs[i].Sequence < obs[j].Sequence
	})
}

// clone copies the settlement date so callers never share it with the store.
func clone(o generic.Obligation) generic.Obligation {
	if o.SettledOn != nil {
		d := *o.SettledOn
		o.SettledOn = &d
	}
	return o
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// The store lock is held for the whole of fn, so transactions serialize.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.d.snapshot()
	if err := fn(tm.d); err != nil {
		tm.d = snapshot
		return err
	}
	return nil
}

var (
	_ generic.TxStore       = (*TxMemory)(nil)
	_ generic.SettingsStore = (*Memory)(nil)
)
