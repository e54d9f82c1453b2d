package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ppiankov/linkguard/internal/model"
)

var (
	dangerColor  = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	safeColor    = color.New(color.FgGreen, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func levelColor(level model.ThreatLevel) *color.Color {
	switch level {
	case model.ThreatDanger:
		return dangerColor
	case model.ThreatWarning:
		return warningColor
	default:
		return safeColor
	}
}

// printResult writes a one-line verdict and, when findings is set, one line per finding
func printResult(w io.Writer, r model.AnalysisResult, findings bool) {
	label := fmt.Sprintf("%-7s", strings.ToUpper(string(r.ThreatLevel)))
	_, _ = levelColor(r.ThreatLevel).Fprint(w, label)
	fmt.Fprintf(w, " %3d  %s\n", r.Score, r.URL)
	_, _ = dimColor.Fprintf(w, "             %s\n", r.Message)

	if !findings {
		return
	}
	for _, f := range r.Findings {
		fmt.Fprintf(w, "             - [%s] %s (%s)\n", f.Severity, f.Message, f.Tag)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// tally counts verdicts for batch summaries
type tally struct {
	safe, warning, danger int
}

func (t *tally) add(level model.ThreatLevel) {
	switch level {
	case model.ThreatDanger:
		t.danger++
	case model.ThreatWarning:
		t.warning++
	default:
		t.safe++
	}
}

func (t tally) print(w io.Writer) {
	fmt.Fprintf(w, "\n  Total:    %d\n", t.safe+t.warning+t.danger)
	_, _ = safeColor.Fprintf(w, "  Safe:     %d\n", t.safe)
	_, _ = warningColor.Fprintf(w, "  Warning:  %d\n", t.warning)
	_, _ = dangerColor.Fprintf(w, "  Danger:   %d\n", t.danger)
}

// exceeds reports whether any verdict reaches failOn ("", "warning" or "danger")
func (t tally) exceeds(failOn string) bool {
	switch failOn {
	case string(model.ThreatDanger):
		return t.danger > 0
	case string(model.ThreatWarning):
		return t.danger > 0 || t.warning > 0
	default:
		return false
	}
}

func validateFailOn(failOn string) error {
	switch failOn {
	case "", "none", string(model.ThreatWarning), string(model.ThreatDanger):
		return nil
	default:
		return fmt.Errorf("invalid --fail-on %q (want none, warning or danger)", failOn)
	}
}
