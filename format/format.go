// Package format renders amounts and percentages for display.
package format

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "EUR"

// Money formats a major-unit amount in the currency's own style.
func Money(value decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	// money.New never returns a nil currency, unlike GetCurrency.
	cur := *money.New(0, currency).Currency()
	minor := value.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Percent formats a percentage with one decimal, e.g. "66.7%".
func Percent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// OptionalPercent formats a percentage that may be undefined.
func OptionalPercent(pct decimal.Decimal, ok bool) string {
	if !ok {
		return "n/a"
	}
	return Percent(pct)
}

// Round1 rounds a percentage to one decimal for JSON responses.
func Round1(pct decimal.Decimal) float64 {
	return pct.Round(1).InexactFloat64()
}

// Signed prefixes positive amounts with "+".
func Signed(s string, value decimal.Decimal) string {
	if value.IsPositive() {
		return fmt.Sprintf("+%s", s)
	}
	return s
}
