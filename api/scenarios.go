/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that put the tracker and the trade log into
  a known state for demos and manual testing of the widget.

AVAILABLE SCENARIOS:
  fresh:             Every phase at zero, no trades
  halfway:           First half of every phase's days hit their target
  phase-one-passed:  First phase complete, later phases untouched
  overachiever:      Every day at 120% of target
  daily-loss-breach: A losing day beyond the daily loss limit
  max-loss-breach:   Steady losses that exceed the total loss limit

HOW SCENARIOS WORK:
 1. Refuse (409) while any phase is still loading
 2. Reset every phase (one edit per phase, targets kept)
 3. Delete every trade
 4. Record achieved amounts through Book.SetAchieved
 5. Record trades through the Journal

Phase edits go through the save queue like any other edit, so the sync
status reflects them.

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "halfway"}

SEE ALSO:
  - handlers.go: Handler
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/tracker"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	load func(ctx context.Context, h *Handler) error
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "fresh",
			Name:        "Fresh Start",
			Description: "Every phase at zero and an empty trade log",
			Category:    "progress",
		},
		load: func(ctx context.Context, h *Handler) error { return nil },
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "halfway",
			Name:        "Halfway There",
			Description: "The first half of every phase's days met their target",
			Category:    "progress",
		},
		load: loadHalfwayScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "phase-one-passed",
			Name:        "Phase One Passed",
			Description: "The first phase is complete, later phases have not started",
			Category:    "progress",
		},
		load: loadPhaseOnePassedScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "overachiever",
			Name:        "Overachiever",
			Description: "Every day closed at 120% of its target",
			Category:    "progress",
		},
		load: loadOverachieverScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "daily-loss-breach",
			Name:        "Daily Loss Breach",
			Description: "One trading day lost more than the daily loss limit",
			Category:    "trades",
		},
		load: loadDailyLossBreachScenario,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "max-loss-breach",
			Name:        "Max Loss Breach",
			Description: "Losses within the daily limit that add up past the total limit",
			Category:    "trades",
		},
		load: loadMaxLossBreachScenario,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.resetAll(r.Context()); err != nil {
		writeDomainError(w, "Failed to reset tracker", err)
		return
	}
	h.currentScenario = ""

	if err := s.load(r.Context(), h); err != nil {
		writeDomainError(w, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = s.ID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID})
}

// resetAll zeroes every phase and clears the trade log. Nothing is touched
// while any phase is still loading; scenarios need the whole book.
func (h *Handler) resetAll(ctx context.Context) error {
	if pending := h.Book.Pending(); len(pending) > 0 {
		return fmt.Errorf("%w: %v still loading", tracker.ErrPhaseNotReady, pending)
	}
	for _, key := range h.Book.Templates().Keys() {
		if _, err := h.Book.ResetPhase(key); err != nil {
			return err
		}
	}
	return h.Trades.ResetTrades(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// fillDays sets the achieved amount of days [1, upTo] to value(target).
func (h *Handler) fillDays(p *tracker.Phase, upTo int, value func(target decimal.Decimal) decimal.Decimal) error {
	for _, r := range p.Records() {
		if r.Day > upTo {
			break
		}
		if _, err := h.Book.SetAchieved(p.Key, r.Day, value(r.Target)); err != nil {
			return err
		}
	}
	return nil
}

func atTarget(target decimal.Decimal) decimal.Decimal { return target }

func loadHalfwayScenario(ctx context.Context, h *Handler) error {
	for _, p := range h.Book.Phases() {
		if err := h.fillDays(p, p.Len()/2, atTarget); err != nil {
			return err
		}
	}
	return nil
}

func loadPhaseOnePassedScenario(ctx context.Context, h *Handler) error {
	phases := h.Book.Phases()
	if len(phases) == 0 {
		return nil
	}
	first := phases[0]
	return h.fillDays(first, first.Len(), atTarget)
}

func loadOverachieverScenario(ctx context.Context, h *Handler) error {
	factor := decimal.RequireFromString("1.2")
	for _, p := range h.Book.Phases() {
		err := h.fillDays(p, p.Len(), func(target decimal.Decimal) decimal.Decimal {
			return target.Mul(factor)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

type scenarioTrade struct {
	date   string
	profit string
	note   string
}

func (h *Handler) recordTrades(ctx context.Context, trades []scenarioTrade) error {
	for _, t := range trades {
		if _, err := h.Journal.Record(ctx, t.date, decimal.RequireFromString(t.profit), t.note); err != nil {
			return err
		}
	}
	return nil
}

func loadDailyLossBreachScenario(ctx context.Context, h *Handler) error {
	if err := loadHalfwayScenario(ctx, h); err != nil {
		return err
	}
	return h.recordTrades(ctx, []scenarioTrade{
		{"2026-03-02", "800", "EURUSD long"},
		{"2026-03-03", "-700", "GBPUSD short"},
		{"2026-03-03", "-500", "GBPUSD short, second entry"},
		{"2026-03-04", "300", "XAUUSD long"},
	})
}

func loadMaxLossBreachScenario(ctx context.Context, h *Handler) error {
	var trades []scenarioTrade
	for day := 2; day <= 7; day++ {
		trades = append(trades, scenarioTrade{
			date:   fmt.Sprintf("2026-03-%02d", day),
			profit: "-900",
			note:   "NAS100 stop out",
		})
	}
	return h.recordTrades(ctx, trades)
}
