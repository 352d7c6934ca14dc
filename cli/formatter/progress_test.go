package formatter

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderProgress(t *testing.T) {
	tests := []struct {
		name   string
		pct    string
		width  int
		filled int
		label  string
	}{
		{"empty", "0", 10, 0, "0.0%"},
		{"half", "50", 10, 5, "50.0%"},
		{"full", "100", 10, 10, "100.0%"},
		{"over target clamps the bar only", "120", 10, 10, "120.0%"},
		{"negative clamps to empty", "-25", 10, 0, "-25.0%"},
		{"tiny width clamps to 2", "50", 1, 1, "50.0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderProgress(decimal.RequireFromString(tt.pct), tt.width)

			assert.Equal(t, tt.filled, strings.Count(got, filledBlock))
			assert.Contains(t, got, tt.label)
		})
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"A", "LONG HEADER"}, [][]string{{"value", "x"}})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[2], "value")
	assert.Empty(t, RenderTable(nil, nil))
}
