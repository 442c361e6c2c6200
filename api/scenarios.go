/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates contracts, settles
	part of their schedules and records expenses, relative to today so the
	derived statuses (collected, overdue, upcoming...) stay meaningful.

AVAILABLE SCENARIOS:

	property-portfolio: Managed property, two leased units, owner payouts
	reschedule-demo:    Half-paid lease ready for a frequency change
	late-payments:      Late collections, a postponement and late fees

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create contracts through the ContractManager (schedules generate)
 3. Settle or postpone obligations through the SettlementService
 4. Record property expenses

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "property-portfolio"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx, base)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/generic"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/management"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "property-portfolio",
		Name:        "Property Portfolio",
		Description: "Managed property with two leased units, collections and an owner payout",
	},
	{
		ID:          "reschedule-demo",
		Name:        "Reschedule",
		Description: "Monthly lease with three months paid, ready to move to quarterly",
	},
	{
		ID:          "late-payments",
		Name:        "Late Payments",
		Description: "Late collections, a postponed payment and accumulating late fees",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	today, err := h.today(r)
	if err != nil {
		writeEngineError(w, "Invalid date", err)
		return
	}

	var load func(context.Context, generic.Date) error
	switch req.ScenarioID {
	case "property-portfolio":
		load = h.loadPropertyPortfolioScenario
	case "reschedule-demo":
		load = h.loadRescheduleScenario
	case "late-payments":
		load = h.loadLatePaymentsScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	// Scenario months start at the first of the month so schedules line up.
	base := generic.StartOfMonth(today.Year(), today.Month())
	if err := load(ctx, base); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadPropertyPortfolioScenario(ctx context.Context, base generic.Date) error {
	start := base.AddMonths(-6)

	// Owner hands Maple Court to the agency at 10% commission.
	mgmt, err := h.createActive(ctx, generic.Contract{
		Number:         "MGT-2001",
		Kind:           management.Kind,
		PartyID:        "owner-ruiz",
		EntityID:       "prop-maple-court",
		StartDate:      start,
		DurationMonths: 12,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(10),
	})
	if err != nil {
		return err
	}

	unit101, err := h.createActive(ctx, generic.Contract{
		Number:         "LSE-1001",
		Kind:           lease.Kind,
		PartyID:        "tenant-okafor",
		EntityID:       "unit-101",
		PropertyID:     "prop-maple-court",
		StartDate:      start,
		DurationMonths: 12,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(1200),
	})
	if err != nil {
		return err
	}
	// Five months collected on time, the sixth collected a week late.
	if err := h.settleFirst(ctx, unit101.ID, 5, 2); err != nil {
		return err
	}
	if err := h.settleNth(ctx, unit101.ID, 5, 9); err != nil {
		return err
	}

	unit102, err := h.createActive(ctx, generic.Contract{
		Number:         "LSE-1002",
		Kind:           lease.Kind,
		PartyID:        "tenant-lindqvist",
		EntityID:       "unit-102",
		PropertyID:     "prop-maple-court",
		StartDate:      base.AddMonths(-3),
		DurationMonths: 12,
		Frequency:      generic.FrequencyQuarterly,
		Rate:           decimal.NewFromInt(950),
	})
	if err != nil {
		return err
	}
	if err := h.settleFirst(ctx, unit102.ID, 1, 1); err != nil {
		return err
	}
	// Next quarter paid ahead of time.
	if err := h.settleNth(ctx, unit102.ID, 1, -5); err != nil {
		return err
	}

	// Owner payouts for the months already reconciled.
	if err := h.settleFirst(ctx, mgmt.ID, 4, 5); err != nil {
		return err
	}

	for _, e := range []struct {
		monthsAgo   int
		day         int
		amount      string
		description string
	}{
		{2, 12, "180.00", "Boiler service"},
		{1, 3, "64.50", "Common area cleaning"},
	} {
		if err := h.addExpense(ctx, "prop-maple-court", base.AddMonths(-e.monthsAgo).AddDays(e.day-1), e.amount, e.description); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadRescheduleScenario(ctx context.Context, base generic.Date) error {
	c, err := h.createActive(ctx, generic.Contract{
		Number:         "LSE-3001",
		Kind:           lease.Kind,
		PartyID:        "tenant-haddad",
		EntityID:       "unit-301",
		PropertyID:     "prop-harbor-view",
		StartDate:      base.AddMonths(-3),
		DurationMonths: 12,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(1500),
	})
	if err != nil {
		return err
	}
	if err := h.settleFirst(ctx, c.ID, 3, 3); err != nil {
		return err
	}

	// A neighbouring lease waiting to start, blocking unit-302 next year.
	_, err = h.Contracts.Create(ctx, generic.Contract{
		Number:         "LSE-3002",
		Kind:           lease.Kind,
		PartyID:        "tenant-moreau",
		EntityID:       "unit-302",
		PropertyID:     "prop-harbor-view",
		StartDate:      base.AddMonths(1),
		DurationMonths: 6,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(1100),
	})
	return err
}

func (h *Handler) loadLatePaymentsScenario(ctx context.Context, base generic.Date) error {
	c, err := h.createActive(ctx, generic.Contract{
		Number:         "LSE-4001",
		Kind:           lease.Kind,
		PartyID:        "tenant-novak",
		EntityID:       "unit-401",
		PropertyID:     "prop-cedar-row",
		StartDate:      base.AddMonths(-5),
		DurationMonths: 12,
		Frequency:      generic.FrequencyMonthly,
		Rate:           decimal.NewFromInt(800),
	})
	if err != nil {
		return err
	}

	// On time, then 20 days late.
	if err := h.settleFirst(ctx, c.ID, 1, 1); err != nil {
		return err
	}
	if err := h.settleNth(ctx, c.ID, 1, 20); err != nil {
		return err
	}

	obligations, err := h.Store.Obligations(ctx, c.ID)
	if err != nil {
		return err
	}
	// Third month postponed; fourth and fifth left overdue.
	if len(obligations) > 2 {
		if _, err := h.Settlements.Postpone(ctx, obligations[2].ID, 10, "Tenant awaiting insurance payout"); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createActive(ctx context.Context, c generic.Contract) (generic.Contract, error) {
	c.Status = generic.ContractActive
	result, err := h.Contracts.Create(ctx, c)
	if err != nil {
		return generic.Contract{}, fmt.Errorf("create %s: %w", c.Number, err)
	}
	if result.GenerationError != nil {
		return generic.Contract{}, fmt.Errorf("generate %s: %w", c.Number, result.GenerationError)
	}
	return result.Contract, nil
}

// settleFirst settles the first n obligations, each daysAfter its due start.
func (h *Handler) settleFirst(ctx context.Context, id generic.ContractID, n, daysAfter int) error {
	for i := 0; i < n; i++ {
		if err := h.settleNth(ctx, id, i, daysAfter); err != nil {
			return err
		}
	}
	return nil
}

// settleNth settles the obligation at index i (by sequence) daysAfter its
// due start. Negative daysAfter settles early.
func (h *Handler) settleNth(ctx context.Context, id generic.ContractID, i, daysAfter int) error {
	obligations, err := h.Store.Obligations(ctx, id)
	if err != nil {
		return err
	}
	if i >= len(obligations) {
		return fmt.Errorf("contract %s has %d obligations, want index %d", id, len(obligations), i)
	}
	o := obligations[i]
	ref := fmt.Sprintf("DEMO-%s-%02d", o.ContractID, o.Sequence)
	_, err = h.Settlements.Settle(ctx, o.ID, o.DueStart.AddDays(daysAfter), ref)
	return err
}

func (h *Handler) addExpense(ctx context.Context, propertyID generic.EntityID, on generic.Date, amount, description string) error {
	return h.Store.SaveExpense(ctx, generic.Expense{
		ID:          fmt.Sprintf("exp-%s-%s", propertyID, on),
		PropertyID:  propertyID,
		Date:        on,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
}
