package formatter

import (
	"fmt"
	"strings"

	"github.com/warp/phase-tracker/format"
	"github.com/warp/phase-tracker/tracker"
)

const phaseProgressBarWidth = 20

// FormatStatus renders the global progress followed by one line per phase.
// Phases listed in pending are shown as still loading.
func FormatStatus(phases []*tracker.Phase, pending []tracker.PhaseKey, global tracker.Summary, currency string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n",
		Bold("Overall"),
		RenderProgress(global.Percent, phaseProgressBarWidth)))
	b.WriteString(Dim(fmt.Sprintf("%s of %s, %s to go",
		format.Money(global.Achieved, currency),
		format.Money(global.Target, currency),
		format.Money(global.Remaining, currency))) + "\n\n")

	headers := []string{"PHASE", "PROGRESS", "ACHIEVED", "TARGET", "DAYS"}
	rows := make([][]string, 0, len(phases)+len(pending))
	for _, p := range phases {
		s := p.Summary()
		name := Bold(p.Name)
		if s.Complete() {
			name += " " + StyleGreen.Render("✓")
		}
		rows = append(rows, []string{
			name,
			RenderProgress(s.Percent, phaseProgressBarWidth),
			format.Money(s.Achieved, currency),
			format.Money(s.Target, currency),
			fmt.Sprintf("%d", s.Days),
		})
	}
	for _, key := range pending {
		rows = append(rows, []string{
			Bold(string(key)),
			StyleYellow.Render("loading"),
			Dim("--"),
			Dim("--"),
			Dim("--"),
		})
	}
	b.WriteString(RenderTable(headers, rows))

	return RenderBox("Challenge Progress", b.String())
}

// FormatPhase renders every day of a phase.
func FormatPhase(p *tracker.Phase, currency string) string {
	var b strings.Builder

	headers := []string{"DAY", "LABEL", "TARGET", "ACHIEVED", "PROGRESS"}
	rows := make([][]string, 0, p.Len())
	for _, r := range p.Records() {
		pct, ok := r.Percent()
		progress := Dim("n/a")
		if ok {
			progress = RenderProgress(pct, 10)
		}
		achieved := format.Money(r.Achieved, currency)
		if r.Achieved.IsNegative() {
			achieved = StyleRed.Render(achieved)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Day),
			r.Label,
			format.Money(r.Target, currency),
			achieved,
			progress,
		})
	}
	b.WriteString(RenderTable(headers, rows))

	s := p.Summary()
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", Bold("Total"), RenderProgress(s.Percent, phaseProgressBarWidth)))
	b.WriteString(Dim(fmt.Sprintf("%s remaining, edit #%d", format.Money(s.Remaining, currency), p.Seq)) + "\n")

	return RenderBox(p.Name, b.String())
}

// FormatTemplates lists phase templates.
func FormatTemplates(templates []*tracker.PhaseTemplate, currency string) string {
	if len(templates) == 0 {
		return "No templates configured.\n"
	}

	headers := []string{"ID", "NAME", "VERSION", "DAYS", "STARTS", "TOTAL TARGET"}
	rows := make([][]string, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []string{
			string(t.ID),
			t.Name,
			fmt.Sprintf("v%d", t.Version),
			fmt.Sprintf("%d", len(t.Days)),
			t.StartWeekday.String(),
			format.Money(t.TotalTarget(), currency),
		})
	}
	return RenderTable(headers, rows)
}
