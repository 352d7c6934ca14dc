/*
Package tradelog records individual trades and checks them against the
challenge's loss limits.

PURPOSE:
  Independent of the phase targets, a challenge fails when a single day
  loses more than the daily limit or when the running total falls below the
  maximum total loss. This package keeps the trade list and evaluates it.

KEY CONCEPTS:
  - Trade:      One realized result on a calendar date (negative = loss)
  - LossPolicy: The two limits; configuration, not derived values
  - Stats:      Totals, worst day, drawdown and pass/fail status

DAILY RESULTS:
  Trades on the same calendar date are summed before the daily limit is
  checked. A day is in breach when its result is strictly below the limit.

SEE ALSO:
  - journal.go: Recording and evaluation
  - store/sqlite/sqlite.go: trades table
*/
package tradelog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate   = errors.New("invalid trade date")
	ErrInvalidPolicy = errors.New("invalid loss policy")
)

// Trade is one realized trading result.
type Trade struct {
	ID        string
	Date      time.Time // calendar date, UTC midnight
	Profit    decimal.Decimal
	Note      string
	CreatedAt time.Time
}

// LossPolicy holds the challenge's loss limits. Both are negative amounts.
type LossPolicy struct {
	DailyLossLimit decimal.Decimal
	MaxTotalLoss   decimal.Decimal
}

// DefaultLossPolicy is -1000 per day and -5000 in total.
func DefaultLossPolicy() LossPolicy {
	return LossPolicy{
		DailyLossLimit: decimal.NewFromInt(-1000),
		MaxTotalLoss:   decimal.NewFromInt(-5000),
	}
}

// Validate requires both limits to be negative.
func (p LossPolicy) Validate() error {
	if !p.DailyLossLimit.IsNegative() || !p.MaxTotalLoss.IsNegative() {
		return ErrInvalidPolicy
	}
	return nil
}

// ChallengeStatus is the outcome of evaluating trades against a policy.
type ChallengeStatus string

const (
	StatusInProgress ChallengeStatus = "in_progress"
	StatusFailed     ChallengeStatus = "failed"
)

type BreachKind string

const (
	BreachTradeLoss BreachKind = "trade_loss_limit"
	BreachDailyLoss BreachKind = "daily_loss_limit"
	BreachTotalLoss BreachKind = "max_total_loss"
)

// Breach is one limit violation.
type Breach struct {
	Kind   BreachKind
	Date    time.Time // zero for BreachTotalLoss
	TradeID string    // set for BreachTradeLoss only
	Amount  decimal.Decimal
	Limit   decimal.Decimal
}

// DayResult is the summed profit of one calendar date.
type DayResult struct {
	Date   time.Time
	Profit decimal.Decimal
	Trades int
}

// Stats summarizes a trade list.
type Stats struct {
	Trades   int
	TotalPnL decimal.Decimal
	// WorstTrade is the lowest single trade profit (zero with no trades).
	WorstTrade decimal.Decimal
	// WorstDay is the lowest daily result (zero with no trades).
	WorstDay decimal.Decimal
	// MaxDrawdown is the largest peak-to-trough fall of cumulative PnL,
	// reported as a non-positive amount.
	MaxDrawdown decimal.Decimal
	Days        []DayResult
	Status      ChallengeStatus
	Breaches    []Breach
}

// Store persists trades.
type Store interface {
	AppendTrade(ctx context.Context, t Trade) error
	ListTrades(ctx context.Context) ([]Trade, error)
}
