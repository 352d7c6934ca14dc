/*
handlers.go - HTTP API handlers for the phase tracker

PURPOSE:
  Exposes the tracker and the trade log via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Phases:
    GET    /api/phases                    All phases + global progress
    GET    /api/phases/{phase}            One phase with its days
    PUT    /api/phases/{phase}/days/{day} Record the achieved amount
    GET    /api/phases/{phase}/sync       Save status of the phase
    GET    /api/progress                  Global and per-phase progress
    GET    /api/templates                 Phase templates

  Trades:
    GET    /api/trades                    Trade list
    POST   /api/trades                    Record a trade
    GET    /api/trades/stats              PnL, drawdown, pass/fail

  Scenarios:
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, day out of range
  - 404: Unknown phase
  - 409: Phase not loaded yet
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The tracker is a single-user tool.

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
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// TradeStore is the trade persistence the handlers need, including the
// reset used by scenarios.
type TradeStore interface {
	tradelog.Store
	ResetTrades(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Book     *tracker.Book
	Journal  *tradelog.Journal
	Trades   TradeStore
	Currency string

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(book *tracker.Book, trades TradeStore, policy tradelog.LossPolicy, currency string) (*Handler, error) {
	journal, err := tradelog.NewJournal(trades, policy)
	if err != nil {
		return nil, err
	}
	return &Handler{
		Book:     book,
		Journal:  journal,
		Trades:   trades,
		Currency: currency,
	}, nil
}

// =============================================================================
// PHASE HANDLERS
// =============================================================================

// ListPhases returns every phase (ready or not) and the global progress.
func (h *Handler) ListPhases(w http.ResponseWriter, r *http.Request) {
	resp := PhasesResponse{
		Phases: []PhaseDTO{},
		Global: h.toSummaryDTO(h.Book.Global()),
	}

	for _, tmpl := range h.Book.Templates().All() {
		p, err := h.Book.Phase(tmpl.ID)
		if err != nil {
			state, _ := h.Book.State(tmpl.ID)
			resp.Phases = append(resp.Phases, PhaseDTO{
				Key:   string(tmpl.ID),
				Name:  tmpl.Name,
				State: state.String(),
			})
			continue
		}
		resp.Phases = append(resp.Phases, h.toPhaseDTO(p, false))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPhase returns a phase with its days and save status.
func (h *Handler) GetPhase(w http.ResponseWriter, r *http.Request) {
	key := tracker.PhaseKey(chi.URLParam(r, "phase"))

	p, err := h.Book.Phase(key)
	if err != nil {
		writeDomainError(w, "Failed to get phase", err)
		return
	}

	dto := h.toPhaseDTO(p, true)
	dto.Sync = h.syncStatus(key)
	writeJSON(w, http.StatusOK, dto)
}

// SetAchieved records the achieved amount of one day.
func (h *Handler) SetAchieved(w http.ResponseWriter, r *http.Request) {
	key := tracker.PhaseKey(chi.URLParam(r, "phase"))

	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid day number", err)
		return
	}

	var req SetAchievedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Achieved == nil {
		writeError(w, http.StatusBadRequest, "achieved is required", nil)
		return
	}

	p, err := h.Book.SetAchieved(key, day, *req.Achieved)
	if err != nil {
		writeDomainError(w, "Failed to record achieved amount", err)
		return
	}

	dto := h.toPhaseDTO(p, true)
	dto.Sync = h.syncStatus(key)
	writeJSON(w, http.StatusOK, SetAchievedResponse{
		Phase:  dto,
		Global: h.toSummaryDTO(h.Book.Global()),
	})
}

// GetSyncStatus returns whether a phase's latest edit has been stored.
func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	key := tracker.PhaseKey(chi.URLParam(r, "phase"))

	if _, err := h.Book.State(key); err != nil {
		writeDomainError(w, "Failed to get sync status", err)
		return
	}
	st := h.syncStatus(key)
	if st == nil {
		st = &SyncStatusDTO{Phase: string(key)}
	}
	writeJSON(w, http.StatusOK, st)
}

// GetProgress returns global and per-phase progress without day rows.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	resp := PhasesResponse{
		Phases: []PhaseDTO{},
		Global: h.toSummaryDTO(h.Book.Global()),
	}
	for _, p := range h.Book.Phases() {
		resp.Phases = append(resp.Phases, h.toPhaseDTO(p, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTemplates returns the phase templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.Book.Templates().All()
	dtos := make([]TemplateDTO, len(templates))
	for i, t := range templates {
		dtos[i] = toTemplateDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRADE HANDLERS
// =============================================================================

// ListTrades returns all trades in date order.
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.Journal.Trades(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list trades", err)
		return
	}

	dtos := make([]TradeDTO, len(trades))
	for i, t := range trades {
		dtos[i] = h.toTradeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTrade records a trade.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var req CreateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Profit == nil {
		writeError(w, http.StatusBadRequest, "profit is required", nil)
		return
	}

	t, err := h.Journal.Record(r.Context(), req.Date, *req.Profit, req.Note)
	if err != nil {
		if errors.Is(err, tradelog.ErrInvalidDate) {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record trade", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toTradeDTO(t))
}

// GetTradeStats evaluates the trade log against the loss policy.
func (h *Handler) GetTradeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Journal.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute trade stats", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toTradeStatsDTO(stats, h.Journal.Policy()))
}

// Health reports whether every phase is ready.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	phases := make(map[string]string)
	for _, key := range h.Book.Templates().Keys() {
		state, _ := h.Book.State(key)
		phases[string(key)] = state.String()
		if state != tracker.StateReady {
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, map[string]any{"phases": phases})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) syncStatus(key tracker.PhaseKey) *SyncStatusDTO {
	q := h.Book.Queue()
	if q == nil {
		return nil
	}
	status, ok := q.Status(key)
	if !ok {
		return nil
	}
	st := toSyncStatusDTO(status)
	return &st
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

// writeDomainError maps tracker errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case tracker.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, tracker.ErrPhaseNotReady):
		status = http.StatusConflict
	case tracker.IsClientError(err):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}
