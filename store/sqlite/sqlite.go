/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.TxStore and generic.SettingsStore using SQLite.
  Status filters compile to SQL through generic.Filter.Where, so the
  "overdue" list the API serves is the same set DeriveStatus would pick.

INTERFACES IMPLEMENTED:
  generic.Store:         Contracts, obligations, expenses
  generic.TxStore:       Exclusive write transactions
  generic.SettingsStore: payment_due_days / late_fee_daily_rate

KEY TABLES:
  contracts:    Lease and management contracts
  obligations:  Payment schedule (collection and supply payments)
  expenses:     Property expenses deducted from owner payouts
  settings:     Key-value engine settings

DELETION:
  The only DELETE on obligations is DeleteUnsettled, and it carries
  "AND settled_on IS NULL" so a row settled in the meantime survives and is
  reported through the affected row count.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process, and opens every
  transaction with BEGIN IMMEDIATE (_txlock=immediate) so the write lock is
  taken up front rather than on first write. Transaction views run their
  queries on the *sql.Tx and never take the mutex.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

MIGRATIONS:
  Versioned goose migrations embedded from migrations/*.sql and applied on
  New(). `lease-engine migrate` applies them without starting the server.

USAGE:
  store, err := sqlite.New("./data/leases.db", log)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/filter.go: Filter.Where
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/lease-engine/generic"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log logrus.FieldLogger
}

// New creates a new SQLite store with the given database path and applies
// pending migrations. Use ":memory:" for an in-memory database.
func New(dbPath string, log logrus.FieldLogger) (*Store, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	store := &Store{db: db, log: log}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func open(dbPath string) (*sql.DB, error) {
	inMemory := dbPath == ":memory:"
	dsn := dbPath + "?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
	if !inMemory {
		dsn += "&_journal_mode=WAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies pending migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.configureGoose(); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, migrationsDir)
}

// MigrationVersion returns the current schema version.
func (s *Store) MigrationVersion(ctx context.Context) (int64, error) {
	if err := s.configureGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

// MigrationStatus logs the applied/pending state of every migration.
func (s *Store) MigrationStatus(ctx context.Context) error {
	if err := s.configureGoose(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, s.db, migrationsDir)
}

func (s *Store) configureGoose() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{s.log})
	return goose.SetDialect("sqlite3")
}

// gooseLogger routes goose output through logrus without letting goose
// exit the process.
type gooseLogger struct {
	log logrus.FieldLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimSuffix(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Errorf(strings.TrimSuffix(format, "\n"), v...)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// STORE (generic.Store interface, locked)
// =============================================================================

func (s *Store) base() *records { return &records{q: s.db} }

func (s *Store) ContractsForEntity(ctx context.Context, kind generic.ContractKind, entityID generic.EntityID, statuses []generic.ContractStatus) ([]generic.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().ContractsForEntity(ctx, kind, entityID, statuses)
}

func (s *Store) GetContract(ctx context.Context, id generic.ContractID) (generic.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().GetContract(ctx, id)
}

func (s *Store) SaveContract(ctx context.Context, c generic.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base().SaveContract(ctx, c)
}

func (s *Store) ContractsByStatus(ctx context.Context, statuses ...generic.ContractStatus) ([]generic.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().ContractsByStatus(ctx, statuses...)
}

// InsertObligations adds a batch atomically.
func (s *Store) InsertObligations(ctx context.Context, obs []generic.Obligation) error {
	return s.WithTx(ctx, func(st generic.Store) error {
		return st.InsertObligations(ctx, obs)
	})
}

func (s *Store) Obligations(ctx context.Context, contractID generic.ContractID) ([]generic.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().Obligations(ctx, contractID)
}

func (s *Store) CountObligations(ctx context.Context, contractID generic.ContractID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().CountObligations(ctx, contractID)
}

func (s *Store) GetObligation(ctx context.Context, id generic.ObligationID) (generic.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().GetObligation(ctx, id)
}

func (s *Store) UpdateObligation(ctx context.Context, o generic.Obligation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base().UpdateObligation(ctx, o)
}

func (s *Store) DeleteUnsettled(ctx context.Context, ids []generic.ObligationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base().DeleteUnsettled(ctx, ids)
}

func (s *Store) QueryObligations(ctx context.Context, f generic.Filter) ([]generic.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().QueryObligations(ctx, f)
}

func (s *Store) ObligationsForProperty(ctx context.Context, kind generic.ContractKind, propertyID generic.EntityID, period generic.Period) ([]generic.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().ObligationsForProperty(ctx, kind, propertyID, period)
}

func (s *Store) SaveExpense(ctx context.Context, e generic.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base().SaveExpense(ctx, e)
}

func (s *Store) ExpensesForProperty(ctx context.Context, propertyID generic.EntityID, period generic.Period) ([]generic.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base().ExpensesForProperty(ctx, propertyID, period)
}

// =============================================================================
// TRANSACTIONAL STORE (generic.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	return s.inTx(ctx, func(q querier) error {
		return fn(&records{q: q})
	})
}

func (s *Store) inTx(ctx context.Context, fn func(q querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(sqlTx); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

func (s *Store) Settings(ctx context.Context) (generic.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return generic.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return generic.Settings{}, fmt.Errorf("failed to scan setting: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return generic.Settings{}, err
	}
	return generic.SettingsFromMap(values)
}

func (s *Store) SaveSettings(ctx context.Context, settings generic.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(q querier) error {
		for k, v := range settings.ToMap() {
			_, err := q.ExecContext(ctx,
				`INSERT INTO settings (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
			if err != nil {
				return fmt.Errorf("failed to save setting %s: %w", k, err)
			}
		}
		return nil
	})
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo). Settings are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"obligations", "expenses", "contracts"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RECORDS - Queries shared by the store and its transaction views
// =============================================================================

type records struct {
	q querier
}

const contractColumns = `id, number, kind, party_id, entity_id, property_id, start_date,
	duration_months, frequency, end_date, rate, status, created_at, updated_at`

const obligationColumns = `o.id, o.contract_id, o.kind, o.sequence, o.amount, o.due_start, o.due_end,
	o.settled_on, o.reference, o.notes, o.delay_days, o.delay_reason, o.commission_rate,
	o.commission_amount, o.deductions, o.net_amount, o.created_at`

func (r *records) ContractsForEntity(ctx context.Context, kind generic.ContractKind, entityID generic.EntityID, statuses []generic.ContractStatus) ([]generic.Contract, error) {
	query := "SELECT " + contractColumns + " FROM contracts WHERE kind = ? AND entity_id = ?"
	args := []any{string(kind), string(entityID)}
	if len(statuses) > 0 {
		clause, statusArgs := inClause("status", statuses)
		query += " AND " + clause
		args = append(args, statusArgs...)
	}
	return r.queryContracts(ctx, query+" ORDER BY start_date, id", args...)
}

func (r *records) GetContract(ctx context.Context, id generic.ContractID) (generic.Contract, error) {
	contracts, err := r.queryContracts(ctx, "SELECT "+contractColumns+" FROM contracts WHERE id = ?", string(id))
	if err != nil {
		return generic.Contract{}, err
	}
	if len(contracts) == 0 {
		return generic.Contract{}, generic.ErrContractNotFound
	}
	return contracts[0], nil
}

func (r *records) SaveContract(ctx context.Context, c generic.Contract) error {
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			party_id = excluded.party_id,
			entity_id = excluded.entity_id,
			property_id = excluded.property_id,
			start_date = excluded.start_date,
			duration_months = excluded.duration_months,
			frequency = excluded.frequency,
			end_date = excluded.end_date,
			rate = excluded.rate,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := r.q.ExecContext(ctx, query,
		string(c.ID),
		c.Number,
		string(c.Kind),
		string(c.PartyID),
		string(c.EntityID),
		string(c.PropertyID),
		c.StartDate.String(),
		c.DurationMonths,
		string(c.Frequency),
		c.EndDate.String(),
		c.Rate.String(),
		string(c.Status),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save contract %s: %w", c.ID, err)
	}
	return nil
}

func (r *records) ContractsByStatus(ctx context.Context, statuses ...generic.ContractStatus) ([]generic.Contract, error) {
	query := "SELECT " + contractColumns + " FROM contracts"
	var args []any
	if len(statuses) > 0 {
		var clause string
		clause, args = inClause("status", statuses)
		query += " WHERE " + clause
	}
	return r.queryContracts(ctx, query+" ORDER BY start_date, id", args...)
}

func (r *records) InsertObligations(ctx context.Context, obs []generic.Obligation) error {
	query := `
		INSERT INTO obligations
		(id, contract_id, kind, sequence, amount, due_start, due_end, settled_on, reference, notes,
		 delay_days, delay_reason, commission_rate, commission_amount, deductions, net_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, o := range obs {
		_, err := r.q.ExecContext(ctx, query,
			string(o.ID),
			string(o.ContractID),
			string(o.Kind),
			o.Sequence,
			o.Amount.String(),
			o.DueStart.String(),
			o.DueEnd.String(),
			nullDate(o.SettledOn),
			o.Reference,
			o.Notes,
			o.DelayDays,
			o.DelayReason,
			o.CommissionRate.String(),
			o.CommissionAmount.String(),
			o.Deductions.String(),
			o.NetAmount.String(),
			formatTime(o.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert obligation %s: %w", o.ID, err)
		}
	}
	return nil
}

func (r *records) Obligations(ctx context.Context, contractID generic.ContractID) ([]generic.Obligation, error) {
	return r.queryObligations(ctx,
		"SELECT "+obligationColumns+" FROM obligations o WHERE o.contract_id = ? ORDER BY o.sequence",
		string(contractID))
}

func (r *records) CountObligations(ctx context.Context, contractID generic.ContractID) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM obligations WHERE contract_id = ?", string(contractID)).Scan(&n)
	return n, err
}

func (r *records) GetObligation(ctx context.Context, id generic.ObligationID) (generic.Obligation, error) {
	obs, err := r.queryObligations(ctx,
		"SELECT "+obligationColumns+" FROM obligations o WHERE o.id = ?", string(id))
	if err != nil {
		return generic.Obligation{}, err
	}
	if len(obs) == 0 {
		return generic.Obligation{}, generic.ErrObligationNotFound
	}
	return obs[0], nil
}

func (r *records) UpdateObligation(ctx context.Context, o generic.Obligation) error {
	query := `
		UPDATE obligations SET
			amount = ?, settled_on = ?, reference = ?, notes = ?, delay_days = ?, delay_reason = ?,
			commission_rate = ?, commission_amount = ?, deductions = ?, net_amount = ?
		WHERE id = ?
	`
	res, err := r.q.ExecContext(ctx, query,
		o.Amount.String(),
		nullDate(o.SettledOn),
		o.Reference,
		o.Notes,
		o.DelayDays,
		o.DelayReason,
		o.CommissionRate.String(),
		o.CommissionAmount.String(),
		o.Deductions.String(),
		o.NetAmount.String(),
		string(o.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update obligation %s: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrObligationNotFound
	}
	return nil
}

func (r *records) DeleteUnsettled(ctx context.Context, ids []generic.ObligationID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	clause, args := inClause("id", ids)
	res, err := r.q.ExecContext(ctx, "DELETE FROM obligations WHERE "+clause+" AND settled_on IS NULL", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete obligations: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *records) QueryObligations(ctx context.Context, f generic.Filter) ([]generic.Obligation, error) {
	where, args := f.Where()
	return r.queryObligations(ctx,
		"SELECT "+obligationColumns+" FROM obligations o WHERE "+where+
			" ORDER BY o.due_start, o.contract_id, o.sequence",
		args...)
}

func (r *records) ObligationsForProperty(ctx context.Context, kind generic.ContractKind, propertyID generic.EntityID, period generic.Period) ([]generic.Obligation, error) {
	start, end := period.Start.String(), period.End.String()
	return r.queryObligations(ctx, `
		SELECT `+obligationColumns+`
		FROM obligations o
		JOIN contracts c ON c.id = o.contract_id
		WHERE o.kind = ? AND c.property_id = ?
		  AND ((o.due_start >= ? AND o.due_start <= ?)
		    OR (o.settled_on >= ? AND o.settled_on <= ?))
		ORDER BY o.due_start, o.contract_id, o.sequence
	`, string(kind), string(propertyID), start, end, start, end)
}

func (r *records) SaveExpense(ctx context.Context, e generic.Expense) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO expenses (id, property_id, date, amount, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_id = excluded.property_id,
			date = excluded.date,
			amount = excluded.amount,
			description = excluded.description
	`, e.ID, string(e.PropertyID), e.Date.String(), e.Amount.String(), e.Description, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", e.ID, err)
	}
	return nil
}

func (r *records) ExpensesForProperty(ctx context.Context, propertyID generic.EntityID, period generic.Period) ([]generic.Expense, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, property_id, date, amount, description, created_at
		FROM expenses
		WHERE property_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id
	`, string(propertyID), period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []generic.Expense
	for rows.Next() {
		var (
			e                        generic.Expense
			propertyID, date, amount string
			createdAt                string
		)
		if err := rows.Scan(&e.ID, &propertyID, &date, &amount, &e.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.PropertyID = generic.EntityID(propertyID)
		if e.Date, err = generic.ParseDate(date); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("expense %s amount: %w", e.ID, err)
		}
		e.CreatedAt = parseTime(createdAt)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// =============================================================================
// SCANNING
// =============================================================================

func (r *records) queryContracts(ctx context.Context, query string, args ...any) ([]generic.Contract, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []generic.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func scanContract(rows *sql.Rows) (generic.Contract, error) {
	var (
		c                                     generic.Contract
		id, kind, partyID, entityID, property string
		startDate, frequency, endDate, rate   string
		status, createdAt, updatedAt          string
	)
	err := rows.Scan(
		&id, &c.Number, &kind, &partyID, &entityID, &property, &startDate,
		&c.DurationMonths, &frequency, &endDate, &rate, &status, &createdAt, &updatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan contract: %w", err)
	}

	c.ID = generic.ContractID(id)
	c.Kind = generic.ContractKind(kind)
	c.PartyID = generic.PartyID(partyID)
	c.EntityID = generic.EntityID(entityID)
	c.PropertyID = generic.EntityID(property)
	c.Frequency = generic.Frequency(frequency)
	c.Status = generic.ContractStatus(status)
	if c.StartDate, err = generic.ParseDate(startDate); err != nil {
		return c, err
	}
	if c.EndDate, err = generic.ParseDate(endDate); err != nil {
		return c, err
	}
	if c.Rate, err = decimal.NewFromString(rate); err != nil {
		return c, fmt.Errorf("contract %s rate: %w", id, err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

func (r *records) queryObligations(ctx context.Context, query string, args ...any) ([]generic.Obligation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	var obligations []generic.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, o)
	}
	return obligations, rows.Err()
}

func scanObligation(rows *sql.Rows) (generic.Obligation, error) {
	var (
		o                                    generic.Obligation
		id, contractID, kind                 string
		amount, dueStart, dueEnd             string
		settledOn                            sql.NullString
		commissionRate, commission, deducted string
		net, createdAt                       string
	)
	err := rows.Scan(
		&id, &contractID, &kind, &o.Sequence, &amount, &dueStart, &dueEnd,
		&settledOn, &o.Reference, &o.Notes, &o.DelayDays, &o.DelayReason, &commissionRate,
		&commission, &deducted, &net, &createdAt,
	)
	if err != nil {
		return o, fmt.Errorf("failed to scan obligation: %w", err)
	}

	o.ID = generic.ObligationID(id)
	o.ContractID = generic.ContractID(contractID)
	o.Kind = generic.ContractKind(kind)
	if o.DueStart, err = generic.ParseDate(dueStart); err != nil {
		return o, err
	}
	if o.DueEnd, err = generic.ParseDate(dueEnd); err != nil {
		return o, err
	}
	if settledOn.Valid {
		d, err := generic.ParseDate(settledOn.String)
		if err != nil {
			return o, err
		}
		o.SettledOn = &d
	}
	amounts := []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&o.Amount, amount},
		{&o.CommissionRate, commissionRate},
		{&o.CommissionAmount, commission},
		{&o.Deductions, deducted},
		{&o.NetAmount, net},
	}
	for _, a := range amounts {
		if *a.dst, err = decimal.NewFromString(a.raw); err != nil {
			return o, fmt.Errorf("obligation %s: %w", id, err)
		}
	}
	o.CreatedAt = parseTime(createdAt)
	return o, nil
}

// Helper functions

func inClause[T ~string](column string, values []T) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = string(v)
	}
	return column + " IN (" + strings.Join(placeholders, ", ") + ")", args
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	_ generic.TxStore       = (*Store)(nil)
	_ generic.SettingsStore = (*Store)(nil)
)
