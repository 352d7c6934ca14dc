package tradelog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Journal records trades in a Store and evaluates them.
type Journal struct {
	store  Store
	policy LossPolicy
	now    func() time.Time
}

// NewJournal creates a journal. The policy must pass Validate.
func NewJournal(store Store, policy LossPolicy) (*Journal, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Journal{store: store, policy: policy, now: time.Now}, nil
}

// Policy returns the loss policy the journal evaluates against.
func (j *Journal) Policy() LossPolicy { return j.policy }

// Record stores a trade for the given date (YYYY-MM-DD).
func (j *Journal) Record(ctx context.Context, date string, profit decimal.Decimal, note string) (Trade, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Trade{}, err
	}
	t := Trade{
		ID:        uuid.NewString(),
		Date:      d,
		Profit:    profit,
		Note:      strings.TrimSpace(note),
		CreatedAt: j.now().UTC(),
	}
	if err := j.store.AppendTrade(ctx, t); err != nil {
		return Trade{}, fmt.Errorf("recording trade: %w", err)
	}
	return t, nil
}

// Trades returns every trade ordered by date then creation time.
func (j *Journal) Trades(ctx context.Context) ([]Trade, error) {
	trades, err := j.store.ListTrades(ctx)
	if err != nil {
		return nil, err
	}
	sortTrades(trades)
	return trades, nil
}

// Stats evaluates every stored trade.
func (j *Journal) Stats(ctx context.Context) (Stats, error) {
	trades, err := j.Trades(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Evaluate(trades, j.policy), nil
}

// ParseDate parses a calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return d.UTC(), nil
}

// Evaluate computes stats for trades under policy. Trades need not be sorted.
func Evaluate(trades []Trade, policy LossPolicy) Stats {
	sorted := append([]Trade(nil), trades...)
	sortTrades(sorted)

	stats := Stats{
		Trades: len(sorted),
		Status: StatusInProgress,
	}

	dayIndex := make(map[string]int)
	var peak, cumulative decimal.Decimal
	for i, t := range sorted {
		stats.TotalPnL = stats.TotalPnL.Add(t.Profit)
		if i == 0 || t.Profit.LessThan(stats.WorstTrade) {
			stats.WorstTrade = t.Profit
		}
		// One trade below the daily limit fails the challenge even when the
		// rest of its day makes up for it.
		if t.Profit.LessThan(policy.DailyLossLimit) {
			stats.Breaches = append(stats.Breaches, Breach{
				Kind:    BreachTradeLoss,
				Date:    t.Date,
				TradeID: t.ID,
				Amount:  t.Profit,
				Limit:   policy.DailyLossLimit,
			})
		}

		key := t.Date.Format(DateLayout)
		d, ok := dayIndex[key]
		if !ok {
			d = len(stats.Days)
			stats.Days = append(stats.Days, DayResult{Date: t.Date})
			dayIndex[key] = d
		}
		stats.Days[d].Profit = stats.Days[d].Profit.Add(t.Profit)
		stats.Days[d].Trades++

		cumulative = cumulative.Add(t.Profit)
		if cumulative.GreaterThan(peak) {
			peak = cumulative
		}
		if dd := cumulative.Sub(peak); dd.LessThan(stats.MaxDrawdown) {
			stats.MaxDrawdown = dd
		}
	}

	for i, day := range stats.Days {
		if i == 0 || day.Profit.LessThan(stats.WorstDay) {
			stats.WorstDay = day.Profit
		}
		if day.Profit.LessThan(policy.DailyLossLimit) {
			stats.Breaches = append(stats.Breaches, Breach{
				Kind:   BreachDailyLoss,
				Date:   day.Date,
				Amount: day.Profit,
				Limit:  policy.DailyLossLimit,
			})
		}
	}
	if stats.TotalPnL.LessThan(policy.MaxTotalLoss) {
		stats.Breaches = append(stats.Breaches, Breach{
			Kind:   BreachTotalLoss,
			Amount: stats.TotalPnL,
			Limit:  policy.MaxTotalLoss,
		})
	}
	if len(stats.Breaches) > 0 {
		stats.Status = StatusFailed
	}
	return stats
}

func sortTrades(trades []Trade) {
	sort.SliceStable(trades, func(i, k int) bool {
		if !trades[i].Date.Equal(trades[k].Date) {
			return trades[i].Date.Before(trades[k].Date)
		}
		return trades[i].CreatedAt.Before(trades[k].CreatedAt)
	})
}
