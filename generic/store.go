/*
store.go - Persistence interfaces for contracts, obligations and expenses

PURPOSE:
  Defines the boundary between the engine and the database. The engine never
  assumes a storage technology; it talks to these interfaces and relies on
  TxStore.WithTx for atomicity and exclusion.

KEY INTERFACES:
  ContractReader:   Sibling lookups used by the duration validator
  Store:            Contracts, obligations, expenses
  TxStore:          Store + exclusive transactions
  SettingsStore:    The external key-value settings table

DELETION CONTRACT:
  Obligations are append-only with one exception: DeleteUnsettled removes
  obligations that are still unsettled. Implementations MUST re-check the
  settlement column at delete time and report how many rows were actually
  removed, so a settlement racing a reschedule is never deleted.

TRANSACTIONS:
  WithTx runs fn with an exclusive write lock for the whole transaction
  (BEGIN IMMEDIATE on SQLite, the store mutex in memory). A settlement that
  arrives while a reschedule runs either committed before it or waits.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - reschedule.go: Main WithTx user
  - filter.go: Obligation filters accepted by QueryObligations
*/
package generic

import "context"

// ContractReader is the read side needed for timeline validation.
type ContractReader interface {
	// ContractsForEntity returns contracts of a kind on an entity whose
	// status is one of statuses (all statuses when empty).
	ContractsForEntity(ctx context.Context, kind ContractKind, entityID EntityID, statuses []ContractStatus) ([]Contract, error)
}

type Store interface {
	ContractReader

	// GetContract returns ErrContractNotFound when missing.
	GetContract(ctx context.Context, id ContractID) (Contract, error)

	// SaveContract inserts or updates a contract.
	SaveContract(ctx context.Context, c Contract) error

	// ContractsByStatus lists contracts in any of the given statuses.
	ContractsByStatus(ctx context.Context, statuses ...ContractStatus) ([]Contract, error)

	// InsertObligations persists a batch atomically.
	InsertObligations(ctx context.Context, obs []Obligation) error

	// Obligations returns a contract's obligations ordered by sequence.
	Obligations(ctx context.Context, contractID ContractID) ([]Obligation, error)

	// CountObligations returns how many obligations a contract has.
	CountObligations(ctx context.Context, contractID ContractID) (int, error)

	// GetObligation returns ErrObligationNotFound when missing.
	GetObligation(ctx context.Context, id ObligationID) (Obligation, error)

	// UpdateObligation rewrites the mutable fields of an obligation.
	UpdateObligation(ctx context.Context, o Obligation) error

	// DeleteUnsettled deletes the given obligations that are still
	// unsettled and returns how many were removed.
	DeleteUnsettled(ctx context.Context, ids []ObligationID) (int, error)

	// QueryObligations returns obligations matching f, ordered by due date.
	QueryObligations(ctx context.Context, f Filter) ([]Obligation, error)

	// ObligationsForProperty returns obligations of contracts of the given
	// kind on the property that are due inside the period or were settled
	// inside it.
	ObligationsForProperty(ctx context.Context, kind ContractKind, propertyID EntityID, period Period) ([]Obligation, error)

	SaveExpense(ctx context.Context, e Expense) error

	// ExpensesForProperty returns expenses dated inside the period.
	ExpensesForProperty(ctx context.Context, propertyID EntityID, period Period) ([]Expense, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within an exclusive transaction.
	// If fn returns error, every write made through the Store passed to fn
	// is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// SettingsStore reads and writes the engine settings.
type SettingsStore interface {
	Settings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}
