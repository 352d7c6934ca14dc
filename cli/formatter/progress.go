package formatter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

var hundred = decimal.NewFromInt(100)

// RenderProgress renders a bar like [████░░░░]  45.0% for a percentage in
// 0..100. The bar clamps at both ends; the number does not, so an
// overachieved phase reads 120.0% over a full bar.
// Green from 66%, yellow from 33%, red below.
func RenderProgress(pct decimal.Decimal, width int) string {
	if width < 2 {
		width = 2
	}

	ratio := decimal.Min(decimal.Max(pct.Div(hundred), decimal.Zero), decimal.NewFromInt(1))
	filled := int(ratio.Mul(decimal.NewFromInt(int64(width))).IntPart())
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if ratio.LessThan(decimal.RequireFromString("0.33")) {
		style = StyleRed
	} else if ratio.LessThan(decimal.RequireFromString("0.66")) {
		style = StyleYellow
	}

	return fmt.Sprintf("[%s] %6s%%", style.Render(bar), pct.StringFixed(1))
}
