package formatter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/phase-tracker/tracker"
	"github.com/warp/phase-tracker/tradelog"
)

func testPhase(t *testing.T) *tracker.Phase {
	t.Helper()
	tmpl := &tracker.PhaseTemplate{
		ID: "phase1", Name: "Phase 1", Version: 1, StartWeekday: time.Monday,
		Days: []tracker.TemplateDay{
			{Target: decimal.NewFromInt(1000)},
			{Target: decimal.NewFromInt(150)},
		},
	}
	require.NoError(t, tmpl.Validate())
	records := tmpl.Generate()
	records[0].Achieved = decimal.NewFromInt(1000)
	records[1].Achieved = decimal.NewFromInt(-50)
	return tracker.NewPhase(tmpl.ID, tmpl.Name, 4, records)
}

func TestFormatStatus(t *testing.T) {
	p := testPhase(t)

	out := FormatStatus([]*tracker.Phase{p}, []tracker.PhaseKey{"phase2"}, tracker.Summarize(p.Records()), "USD")

	assert.Contains(t, out, "CHALLENGE PROGRESS")
	assert.Contains(t, out, "Phase 1")
	assert.Contains(t, out, "82.6%")
	assert.Contains(t, out, "phase2")
	assert.Contains(t, out, "loading")
}

func TestFormatPhase(t *testing.T) {
	out := FormatPhase(testPhase(t), "USD")

	assert.Contains(t, out, "Monday")
	assert.Contains(t, out, "Tuesday")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "-33.3%")
	assert.Contains(t, out, "edit #4")
}

func TestFormatTemplates(t *testing.T) {
	assert.Contains(t, FormatTemplates(nil, "USD"), "No templates")

	tmpl := &tracker.PhaseTemplate{
		ID: "sprint", Name: "Sprint", Version: 2, StartWeekday: time.Wednesday,
		Days: []tracker.TemplateDay{{Target: decimal.NewFromInt(500)}},
	}
	out := FormatTemplates([]*tracker.PhaseTemplate{tmpl}, "USD")
	assert.Contains(t, out, "sprint")
	assert.Contains(t, out, "v2")
	assert.Contains(t, out, "Wednesday")
	assert.Contains(t, out, "500.00")
}

func TestFormatStats(t *testing.T) {
	d, _ := tradelog.ParseDate("2026-03-03")
	stats := tradelog.Stats{
		Trades:   2,
		TotalPnL: decimal.NewFromInt(-1100),
		WorstDay: decimal.NewFromInt(-1200),
		Status:   tradelog.StatusFailed,
		Breaches: []tradelog.Breach{{
			Kind:   tradelog.BreachDailyLoss,
			Date:   d,
			Amount: decimal.NewFromInt(-1200),
			Limit:  decimal.NewFromInt(-1000),
		}},
	}

	out := FormatStats(stats, tradelog.DefaultLossPolicy(), "USD")

	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "BREACHES")
	assert.Contains(t, out, "2026-03-03")
	assert.Contains(t, out, "1,200.00")
}

func TestFormatStats_TradeBreach(t *testing.T) {
	d, _ := tradelog.ParseDate("2026-03-02")
	stats := tradelog.Stats{
		Trades:     2,
		TotalPnL:   decimal.NewFromInt(300),
		WorstTrade: decimal.NewFromInt(-1200),
		WorstDay:   decimal.NewFromInt(300),
		Status:     tradelog.StatusFailed,
		Breaches: []tradelog.Breach{{
			Kind:    tradelog.BreachTradeLoss,
			Date:    d,
			TradeID: "7d1c9e02-cccc-dddd",
			Amount:  decimal.NewFromInt(-1200),
			Limit:   decimal.NewFromInt(-1000),
		}},
	}

	out := FormatStats(stats, tradelog.DefaultLossPolicy(), "USD")

	assert.Contains(t, out, "Worst trade")
	assert.Contains(t, out, "7d1c9e02")
	assert.NotContains(t, out, "cccc")
}

func TestFormatTrades(t *testing.T) {
	assert.Contains(t, FormatTrades(nil, "USD"), "No trades")

	d, _ := tradelog.ParseDate("2026-03-02")
	out := FormatTrades([]tradelog.Trade{{
		ID: "0f8e2c1a-aaaa-bbbb", Date: d, Profit: decimal.NewFromInt(250), Note: "EURUSD",
	}}, "USD")
	assert.Contains(t, out, "2026-03-02")
	assert.Contains(t, out, "EURUSD")
	assert.Contains(t, out, "0f8e2c1a")
	assert.NotContains(t, out, "aaaa")
}
