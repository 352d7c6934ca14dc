package tracker

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PercentComplete returns sum(achieved)/sum(target)*100, or zero when the
// targets sum to zero (including an empty slice).
func PercentComplete(records []DayRecord) decimal.Decimal {
	var target, achieved decimal.Decimal
	for _, r := range records {
		target = target.Add(r.Target)
		achieved = achieved.Add(r.Achieved)
	}
	if target.IsZero() {
		return decimal.Zero
	}
	return achieved.Mul(hundred).Div(target)
}

// Summary is the aggregate view of a record sequence.
type Summary struct {
	Days      int
	Target    decimal.Decimal
	Achieved  decimal.Decimal
	Remaining decimal.Decimal // target minus achieved, floored at zero
	Percent   decimal.Decimal
}

// Summarize aggregates records. It accepts a single phase's records or the
// concatenation of several phases.
func Summarize(records []DayRecord) Summary {
	s := Summary{Days: len(records)}
	for _, r := range records {
		s.Target = s.Target.Add(r.Target)
		s.Achieved = s.Achieved.Add(r.Achieved)
	}
	s.Remaining = decimal.Max(s.Target.Sub(s.Achieved), decimal.Zero)
	if !s.Target.IsZero() {
		s.Percent = s.Achieved.Mul(hundred).Div(s.Target)
	}
	return s
}

// Complete reports whether achieved has reached the target.
func (s Summary) Complete() bool {
	return s.Target.IsPositive() && s.Achieved.GreaterThanOrEqual(s.Target)
}
