package formatter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/tradelog"
)

// FormatTrades lists trades in date order.
func FormatTrades(trades []tradelog.Trade, currency string) string {
	if len(trades) == 0 {
		return "No trades recorded.\n"
	}

	headers := []string{"DATE", "PROFIT", "NOTE", "ID"}
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Date.Format(tradelog.DateLayout),
			pnl(t.Profit, currency),
			t.Note,
			Dim(shortID(t.ID)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatStats renders the evaluated trade log against its loss policy.
func FormatStats(s tradelog.Stats, policy tradelog.LossPolicy, currency string) string {
	var b strings.Builder

	status := StyleGreen.Render("● IN PROGRESS")
	if s.Status == tradelog.StatusFailed {
		status = StyleRed.Render("● FAILED")
	}
	b.WriteString(status + "\n\n")

	b.WriteString(fmt.Sprintf("%-14s %d\n", "Trades", s.Trades))
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Total PnL", pnl(s.TotalPnL, currency)))
	b.WriteString(fmt.Sprintf("%-14s %s\n", "Worst trade", pnl(s.WorstTrade, currency)))
	b.WriteString(fmt.Sprintf("%-14s %s %s\n", "Worst day", pnl(s.WorstDay, currency),
		Dim("(limit "+format.Money(policy.DailyLossLimit, currency)+")")))
	b.WriteString(fmt.Sprintf("%-14s %s %s\n", "Max drawdown", pnl(s.MaxDrawdown, currency),
		Dim("(total limit "+format.Money(policy.MaxTotalLoss, currency)+")")))

	if len(s.Breaches) > 0 {
		b.WriteString("\n" + Header("Breaches") + "\n")
		for _, br := range s.Breaches {
			switch br.Kind {
			case tradelog.BreachTradeLoss:
				b.WriteString(StyleRed.Render(fmt.Sprintf("  %s trade %s lost %s (limit %s)",
					br.Date.Format(tradelog.DateLayout),
					shortID(br.TradeID),
					format.Money(br.Amount, currency),
					format.Money(br.Limit, currency))) + "\n")
			case tradelog.BreachDailyLoss:
				b.WriteString(StyleRed.Render(fmt.Sprintf("  %s lost %s (limit %s)",
					br.Date.Format(tradelog.DateLayout),
					format.Money(br.Amount, currency),
					format.Money(br.Limit, currency))) + "\n")
			case tradelog.BreachTotalLoss:
				b.WriteString(StyleRed.Render(fmt.Sprintf("  total loss %s (limit %s)",
					format.Money(br.Amount, currency),
					format.Money(br.Limit, currency))) + "\n")
			}
		}
	}

	return RenderBox("Trade Stats", b.String())
}

func pnl(v decimal.Decimal, currency string) string {
	s := format.Signed(format.Money(v, currency), v)
	switch {
	case v.IsNegative():
		return StyleRed.Render(s)
	case v.IsPositive():
		return StyleGreen.Render(s)
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
