/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts are exposed
  as JSON numbers plus a currency-formatted display string; percentages are
  rounded to one decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

// =============================================================================
// PHASES
// =============================================================================

// DayDTO is one day row. Percent is null when the target is zero.
type DayDTO struct {
	Day             int      `json:"day"`
	Label           string   `json:"label"`
	Target          float64  `json:"target"`
	Achieved        float64  `json:"achieved"`
	Percent         *float64 `json:"percent"`
	TargetDisplay   string   `json:"target_display"`
	AchievedDisplay string   `json:"achieved_display"`
}

// SummaryDTO is the aggregate progress of one phase or of all phases.
type SummaryDTO struct {
	Days            int     `json:"days"`
	Target          float64 `json:"target"`
	Achieved        float64 `json:"achieved"`
	Remaining       float64 `json:"remaining"`
	Percent         float64 `json:"percent"`
	PercentDisplay  string  `json:"percent_display"`
	Complete        bool    `json:"complete"`
	TargetDisplay   string  `json:"target_display"`
	AchievedDisplay string  `json:"achieved_display"`
}

// PhaseDTO represents a phase. Summary and Days are absent until the phase
// is ready.
type PhaseDTO struct {
	Key      string         `json:"key"`
	Name     string         `json:"name"`
	State    string         `json:"state"`
	Template string         `json:"template,omitempty"`
	Version  int            `json:"version,omitempty"`
	Seq      uint64         `json:"seq"`
	Summary  *SummaryDTO    `json:"summary,omitempty"`
	Days     []DayDTO       `json:"days,omitempty"`
	Sync     *SyncStatusDTO `json:"sync,omitempty"`
}

// PhasesResponse lists every phase plus the global progress.
type PhasesResponse struct {
	Phases []PhaseDTO `json:"phases"`
	Global SummaryDTO `json:"global"`
}

// SetAchievedRequest is the body of a day edit.
type SetAchievedRequest struct {
	Achieved *decimal.Decimal `json:"achieved"`
}

// SetAchievedResponse returns the updated phase and global progress.
type SetAchievedResponse struct {
	Phase  PhaseDTO   `json:"phase"`
	Global SummaryDTO `json:"global"`
}

// SyncStatusDTO tells the client whether its edits have been stored.
type SyncStatusDTO struct {
	Phase       string  `json:"phase"`
	Dirty       bool    `json:"dirty"`
	SavedSeq    uint64  `json:"saved_seq"`
	PendingSeq  uint64  `json:"pending_seq"`
	InFlight    bool    `json:"in_flight"`
	Stale       bool    `json:"stale"`
	Attempts    int     `json:"attempts"`
	LastError   string  `json:"last_error,omitempty"`
	LastSavedAt *string `json:"last_saved_at,omitempty"`
}

// TemplateDTO describes a phase template.
type TemplateDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Version      int              `json:"version"`
	StartWeekday string           `json:"start_weekday"`
	TotalTarget  float64          `json:"total_target"`
	Days         []TemplateDayDTO `json:"days"`
}

type TemplateDayDTO struct {
	Day    int     `json:"day"`
	Label  string  `json:"label"`
	Target float64 `json:"target"`
}

// =============================================================================
// TRADES
// =============================================================================

// TradeDTO represents a recorded trade.
type TradeDTO struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Profit        float64 `json:"profit"`
	ProfitDisplay string  `json:"profit_display"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// CreateTradeRequest records a trade.
type CreateTradeRequest struct {
	Date   string           `json:"date"`
	Profit *decimal.Decimal `json:"profit"`
	Note   string           `json:"note,omitempty"`
}

// TradeStatsDTO is the evaluated trade log.
type TradeStatsDTO struct {
	Trades      int               `json:"trades"`
	TotalPnL    float64           `json:"total_pnl"`
	WorstTrade  float64           `json:"worst_trade"`
	WorstDay    float64           `json:"worst_day"`
	MaxDrawdown float64           `json:"max_drawdown"`
	Display     map[string]string `json:"display"`
	Status      string            `json:"status"`
	Breaches    []BreachDTO       `json:"breaches"`
	Days        []DayResultDTO    `json:"days"`
	Policy      LossPolicyDTO     `json:"policy"`
}

type BreachDTO struct {
	Kind    string  `json:"kind"`
	Date    string  `json:"date,omitempty"`
	TradeID string  `json:"trade_id,omitempty"`
	Amount  float64 `json:"amount"`
	Limit   float64 `json:"limit"`
}

type DayResultDTO struct {
	Date   string  `json:"date"`
	Profit float64 `json:"profit"`
	Trades int     `json:"trades"`
}

type LossPolicyDTO struct {
	DailyLossLimit float64 `json:"daily_loss_limit"`
	MaxTotalLoss   float64 `json:"max_total_loss"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func (h *Handler) toSummaryDTO(s tracker.Summary) SummaryDTO {
	return SummaryDTO{
		Days:            s.Days,
		Target:          s.Target.InexactFloat64(),
		Achieved:        s.Achieved.InexactFloat64(),
		Remaining:       s.Remaining.InexactFloat64(),
		Percent:         format.Round1(s.Percent),
		PercentDisplay:  format.Percent(s.Percent),
		Complete:        s.Complete(),
		TargetDisplay:   format.Money(s.Target, h.Currency),
		AchievedDisplay: format.Money(s.Achieved, h.Currency),
	}
}

func (h *Handler) toDayDTO(r tracker.DayRecord) DayDTO {
	dto := DayDTO{
		Day:             r.Day,
		Label:           r.Label,
		Target:          r.Target.InexactFloat64(),
		Achieved:        r.Achieved.InexactFloat64(),
		TargetDisplay:   format.Money(r.Target, h.Currency),
		AchievedDisplay: format.Money(r.Achieved, h.Currency),
	}
	if pct, ok := r.Percent(); ok {
		v := format.Round1(pct)
		dto.Percent = &v
	}
	return dto
}

func (h *Handler) toPhaseDTO(p *tracker.Phase, withDays bool) PhaseDTO {
	summary := h.toSummaryDTO(p.Summary())
	dto := PhaseDTO{
		Key:      string(p.Key),
		Name:     p.Name,
		State:    tracker.StateReady.String(),
		Template: p.Template,
		Version:  p.Version,
		Seq:      p.Seq,
		Summary:  &summary,
	}
	if withDays {
		for _, r := range p.Records() {
			dto.Days = append(dto.Days, h.toDayDTO(r))
		}
	}
	return dto
}

func toSyncStatusDTO(s tracker.SyncStatus) SyncStatusDTO {
	dto := SyncStatusDTO{
		Phase:      string(s.Phase),
		Dirty:      s.Dirty(),
		SavedSeq:   s.SavedSeq,
		PendingSeq: s.PendingSeq,
		InFlight:   s.InFlight,
		Stale:      s.Stale,
		Attempts:   s.Attempts,
		LastError:  s.LastError,
	}
	if !s.LastSavedAt.IsZero() {
		ts := s.LastSavedAt.UTC().Format(time.RFC3339)
		dto.LastSavedAt = &ts
	}
	return dto
}

func toTemplateDTO(t *tracker.PhaseTemplate) TemplateDTO {
	dto := TemplateDTO{
		ID:           string(t.ID),
		Name:         t.Name,
		Version:      t.Version,
		StartWeekday: t.StartWeekday.String(),
		TotalTarget:  t.TotalTarget().InexactFloat64(),
	}
	for _, r := range t.Generate() {
		dto.Days = append(dto.Days, TemplateDayDTO{
			Day:    r.Day,
			Label:  r.Label,
			Target: r.Target.InexactFloat64(),
		})
	}
	return dto
}

func (h *Handler) toTradeDTO(t tradelog.Trade) TradeDTO {
	return TradeDTO{
		ID:            t.ID,
		Date:          t.Date.Format(tradelog.DateLayout),
		Profit:        t.Profit.InexactFloat64(),
		ProfitDisplay: format.Signed(format.Money(t.Profit, h.Currency), t.Profit),
		Note:          t.Note,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) toTradeStatsDTO(s tradelog.Stats, policy tradelog.LossPolicy) TradeStatsDTO {
	dto := TradeStatsDTO{
		Trades:      s.Trades,
		TotalPnL:    s.TotalPnL.InexactFloat64(),
		WorstTrade:  s.WorstTrade.InexactFloat64(),
		WorstDay:    s.WorstDay.InexactFloat64(),
		MaxDrawdown: s.MaxDrawdown.InexactFloat64(),
		Display: map[string]string{
			"total_pnl":    format.Signed(format.Money(s.TotalPnL, h.Currency), s.TotalPnL),
			"worst_trade":  format.Money(s.WorstTrade, h.Currency),
			"worst_day":    format.Money(s.WorstDay, h.Currency),
			"max_drawdown": format.Money(s.MaxDrawdown, h.Currency),
		},
		Status:   string(s.Status),
		Breaches: []BreachDTO{},
		Days:     []DayResultDTO{},
		Policy: LossPolicyDTO{
			DailyLossLimit: policy.DailyLossLimit.InexactFloat64(),
			MaxTotalLoss:   policy.MaxTotalLoss.InexactFloat64(),
		},
	}
	for _, b := range s.Breaches {
		bd := BreachDTO{
			Kind:    string(b.Kind),
			TradeID: b.TradeID,
			Amount:  b.Amount.InexactFloat64(),
			Limit:   b.Limit.InexactFloat64(),
		}
		if !b.Date.IsZero() {
			bd.Date = b.Date.Format(tradelog.DateLayout)
		}
		dto.Breaches = append(dto.Breaches, bd)
	}
	for _, d := range s.Days {
		dto.Days = append(dto.Days, DayResultDTO{
			Date:   d.Date.Format(tradelog.DateLayout),
			Profit: d.Profit.InexactFloat64(),
			Trades: d.Trades,
		})
	}
	return dto
}
