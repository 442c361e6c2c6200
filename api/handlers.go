/*
handlers.go - HTTP API handlers for the lease payment engine

PURPOSE:
  Exposes the scheduling engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine services.

ENDPOINTS:
  Contracts:
    GET    /api/contracts                   List contracts (?status=active,draft)
    POST   /api/contracts                   Create contract
    GET    /api/contracts/{id}              Get contract
    PUT    /api/contracts/{id}              Update contract
    POST   /api/contracts/{id}/activate     Activate draft (generates schedule)
    POST   /api/contracts/{id}/terminate    Terminate
    POST   /api/contracts/{id}/generate     Generate a missing schedule
    GET    /api/contracts/{id}/obligations  Contract schedule
    POST   /api/contracts/{id}/reschedule   Replace the unsettled tail
    POST   /api/contracts/{id}/renew        Extend past the end date

  Obligations:
    GET    /api/obligations                 Query (?status=overdue&contract_id=&kind=&as_of=)
    GET    /api/obligations/{id}            Get obligation
    POST   /api/obligations/{id}/settle     Record collection / payout
    POST   /api/obligations/{id}/postpone   Postpone a collection

  Supply payments:
    GET    /api/supply-payments/{id}/reconciliation  Categorized payout
    POST   /api/supply-payments/{id}/reconciliation  Write payout amounts

  Expenses / settings:
    GET    /api/expenses                    ?property_id=&from=&to=
    POST   /api/expenses
    GET    /api/settings
    PUT    /api/settings

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (TxStore + SettingsStore)
  - Contracts, Engine, Settlements, Reconciler: engine services
  - Clock: today's date, overridable per request with ?as_of=YYYY-MM-DD

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Division, date order, invalid input, bad status transition
  - 404: Contract / obligation not found
  - 409: Overlap, reschedule conflict, stale state, already settled
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/management"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API needs from persistence.
type Store interface {
	generic.TxStore
	generic.SettingsStore

	// Reset clears contracts, obligations and expenses.
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       Store
	Contracts   *generic.ContractManager
	Engine      *generic.Engine
	Settlements *generic.SettlementService
	Reconciler  *management.Reconciler
	Log         logrus.FieldLogger

	// Clock returns today. Defaults to generic.Today.
	Clock func() generic.Date

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, log logrus.FieldLogger, strictGeneration bool) *Handler {
	contracts := generic.NewContractManager(store, log)
	contracts.StrictGeneration = strictGeneration
	return &Handler{
		Store:       store,
		Contracts:   contracts,
		Engine:      generic.NewEngine(store, log),
		Settlements: generic.NewSettlementService(store, log),
		Reconciler:  management.NewReconciler(store, store, log),
		Log:         log,
		Clock:       generic.Today,
	}
}

// today returns ?as_of= when present, the clock otherwise.
func (h *Handler) today(r *http.Request) (generic.Date, error) {
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		d, err := generic.ParseDate(raw)
		if err != nil {
			return generic.Date{}, fmt.Errorf("%w: as_of: %v", generic.ErrInvalidInput, err)
		}
		return d, nil
	}
	return h.Clock(), nil
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns contracts, optionally filtered by status.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	var statuses []generic.ContractStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := generic.ContractStatus(strings.TrimSpace(s))
			if !st.IsValid() {
				writeError(w, http.StatusBadRequest, "Invalid contract status", fmt.Errorf("%q", s))
				return
			}
			statuses = append(statuses, st)
		}
	}

	contracts, err := h.Store.ContractsByStatus(r.Context(), statuses...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateContract validates and saves a new contract. A contract created
// active gets its schedule generated.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, err := req.toContract("")
	if err != nil {
		writeEngineError(w, "Invalid contract", err)
		return
	}

	result, err := h.Contracts.Create(r.Context(), c)
	if err != nil {
		writeEngineError(w, "Failed to create contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaveResponse(result))
}

// GetContract returns one contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetContract(r.Context(), generic.ContractID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// UpdateContract saves changed fields of a contract.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, err := req.toContract(generic.ContractID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Invalid contract", err)
		return
	}

	result, err := h.Contracts.Update(r.Context(), c)
	if err != nil {
		writeEngineError(w, "Failed to update contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaveResponse(result))
}

// ActivateContract moves a draft contract to active.
func (h *Handler) ActivateContract(w http.ResponseWriter, r *http.Request) {
	result, err := h.Contracts.Activate(r.Context(), generic.ContractID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to activate contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaveResponse(result))
}

// TerminateContract ends a contract.
func (h *Handler) TerminateContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Contracts.Terminate(r.Context(), generic.ContractID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to terminate contract", err)
		return
	}
	writeJSON(w, http.StatusOK, toContractDTO(c))
}

// GenerateSchedule generates the schedule of an active contract that has
// none, e.g. after a failed best-effort generation.
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	created, err := h.Contracts.GenerateSchedule(ctx, generic.ContractID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to generate schedule", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTOs(created, today, settings))
}

// GetContractObligations returns a contract's schedule with statuses.
func (h *Handler) GetContractObligations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := generic.ContractID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetContract(ctx, id); err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	obligations, err := h.Store.Obligations(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load obligations", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTOs(obligations, today, settings))
}

// RescheduleContract replaces the unsettled tail of a contract.
func (h *Handler) RescheduleContract(w http.ResponseWriter, r *http.Request) {
	h.changeTerms(w, r, "reschedule", h.Engine.Reschedule)
}

// RenewContract appends obligations after the contract end.
func (h *Handler) RenewContract(w http.ResponseWriter, r *http.Request) {
	h.changeTerms(w, r, "renew", h.Engine.Renew)
}

func (h *Handler) changeTerms(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(context.Context, generic.TermsChange) (*generic.ScheduleChange, error),
) {
	var req TermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	change := generic.TermsChange{
		ContractID: generic.ContractID(chi.URLParam(r, "id")),
		Months:     req.Months,
	}
	if req.Rate != nil {
		change.Rate = decimal.NewNullDecimal(*req.Rate)
	}
	if req.Frequency != "" {
		f, err := generic.ParseFrequency(req.Frequency)
		if err != nil {
			writeEngineError(w, "Invalid frequency", err)
			return
		}
		change.Frequency = f
	}

	result, err := fn(r.Context(), change)
	if err != nil {
		writeEngineError(w, "Failed to "+action+" contract", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toScheduleChangeDTO(result, today, settings))
}

// =============================================================================
// OBLIGATION HANDLERS
// =============================================================================

// ListObligations queries obligations. ?status= selects one derived status
// through its query predicate; contract_id and kind narrow further.
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var filters []generic.Filter
	if raw := q.Get("status"); raw != "" {
		status, err := generic.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status", err)
			return
		}
		filters = append(filters, generic.StatusFilter(status, today, settings))
	}
	if id := q.Get("contract_id"); id != "" {
		filters = append(filters, generic.ForContract(generic.ContractID(id)))
	}
	if kind := q.Get("kind"); kind != "" {
		filters = append(filters, generic.OfKind(generic.ContractKind(kind)))
	}

	obligations, err := h.Store.QueryObligations(r.Context(), generic.All(filters...))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query obligations", err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTOs(obligations, today, settings))
}

// GetObligation returns one obligation with its status.
func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	o, err := h.Store.GetObligation(r.Context(), generic.ObligationID(chi.URLParam(r, "id")))
	if err != nil {
		writeEngineError(w, "Failed to get obligation", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o, today, settings))
}

// SettleObligation records a collection or payout date.
func (h *Handler) SettleObligation(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	if req.SettledOn.IsZero() {
		req.SettledOn = today
	}

	o, err := h.Settlements.Settle(r.Context(), generic.ObligationID(chi.URLParam(r, "id")), req.SettledOn, req.Reference)
	if err != nil {
		writeEngineError(w, "Failed to settle obligation", err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o, today, settings))
}

// PostponeObligation records a delay on a collection payment.
func (h *Handler) PostponeObligation(w http.ResponseWriter, r *http.Request) {
	var req PostponeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	o, err := h.Settlements.Postpone(r.Context(), generic.ObligationID(chi.URLParam(r, "id")), req.Days, req.Reason)
	if err != nil {
		writeEngineError(w, "Failed to postpone obligation", err)
		return
	}
	today, settings, ok := h.statusContext(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(o, today, settings))
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// GetReconciliation returns the categorized payout of a supply payment.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeEngineError(w, "Invalid date", err)
		return
	}
	rec, err := h.Reconciler.Reconcile(r.Context(), generic.ObligationID(chi.URLParam(r, "id")), today)
	if err != nil {
		writeEngineError(w, "Failed to reconcile supply payment", err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(rec))
}

// ApplyReconciliation writes the payout amounts onto the supply payment.
func (h *Handler) ApplyReconciliation(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeEngineError(w, "Invalid date", err)
		return
	}
	rec, err := h.Reconciler.Apply(r.Context(), generic.ObligationID(chi.URLParam(r, "id")), today)
	if err != nil {
		writeEngineError(w, "Failed to apply reconciliation", err)
		return
	}
	writeJSON(w, http.StatusOK, toReconciliationDTO(rec))
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// ListExpenses returns a property's expenses between from and to.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	propertyID := q.Get("property_id")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id is required", nil)
		return
	}
	from, err := parseDateParam(q.Get("from"), generic.NewDate(1900, time.January, 1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := parseDateParam(q.Get("to"), generic.NewDate(9999, time.December, 31))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}

	expenses, err := h.Store.ExpensesForProperty(r.Context(), generic.EntityID(propertyID), generic.Period{Start: from, End: to})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}
	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense records a property expense.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PropertyID == "" || req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "property_id and date are required", nil)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	e := generic.Expense{
		ID:          uuid.NewString(),
		PropertyID:  generic.EntityID(req.PropertyID),
		Date:        req.Date,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveExpense(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(e))
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the engine settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, SettingsDTO{PaymentDueDays: s.PaymentDueDays, LateFeeDailyRate: s.LateFeeDailyRate})
}

// UpdateSettings replaces the engine settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s := generic.Settings{PaymentDueDays: req.PaymentDueDays, LateFeeDailyRate: req.LateFeeDailyRate}
	if err := s.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), s); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}
	h.Log.WithFields(logrus.Fields{
		"payment_due_days":    s.PaymentDueDays,
		"late_fee_daily_rate": s.LateFeeDailyRate.String(),
	}).Info("settings updated")
	writeJSON(w, http.StatusOK, req)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// statusContext loads what status derivation needs. It writes the error
// response and returns false on failure.
func (h *Handler) statusContext(w http.ResponseWriter, r *http.Request) (generic.Date, generic.Settings, bool) {
	today, err := h.today(r)
	if err != nil {
		writeEngineError(w, "Invalid date", err)
		return generic.Date{}, generic.Settings{}, false
	}
	settings, err := h.Store.Settings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load settings", err)
		return generic.Date{}, generic.Settings{}, false
	}
	return today, settings, true
}

func toSaveResponse(result *generic.SaveResult) SaveContractResponse {
	resp := SaveContractResponse{
		Contract:  toContractDTO(result.Contract),
		Generated: result.Generated,
	}
	if result.GenerationError != nil {
		resp.GenerationError = result.GenerationError.Error()
	}
	return resp
}

func parseDateParam(raw string, fallback generic.Date) (generic.Date, error) {
	if raw == "" {
		return fallback, nil
	}
	return generic.ParseDate(raw)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	status := http.StatusInternalServerError
	switch {
	case generic.IsNotFound(err):
		status = http.StatusNotFound
		resp.Code = "not_found"
	case generic.IsConflict(err):
		status = http.StatusConflict
		resp.Code = conflictCode(err)
		resp.Conflict = conflictOf(err)
	case generic.IsClientError(err):
		status = http.StatusBadRequest
		resp.Code = clientErrorCode(err)
	}
	writeJSON(w, status, resp)
}

func conflictCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrOverlap):
		return "overlap"
	case errors.Is(err, generic.ErrRescheduleConflict):
		return "reschedule_conflict"
	case errors.Is(err, generic.ErrStaleState):
		return "stale_state"
	}
	return "already_settled"
}

func clientErrorCode(err error) string {
	switch {
	case errors.Is(err, generic.ErrDivision):
		return "division"
	case errors.Is(err, generic.ErrDateOrder):
		return "date_order"
	case errors.Is(err, generic.ErrInvalidStatus):
		return "invalid_status"
	}
	return "invalid_input"
}

func conflictOf(err error) *ConflictDTO {
	var ref generic.ConflictRef
	var oe *generic.OverlapError
	var re *generic.RescheduleConflictError
	switch {
	case errors.As(err, &oe):
		ref = oe.Conflict
	case errors.As(err, &re):
		ref = re.Conflict
	default:
		return nil
	}
	return &ConflictDTO{
		ContractID: string(ref.ContractID),
		Number:     ref.Number,
		StartDate:  ref.Term.Start,
		EndDate:    ref.Term.End,
	}
}
