package model

import (
	"strings"
	"time"
)

// AnalysisResult is the complete LinkGuard verdict for one URL
type AnalysisResult struct {
	URL         string      `json:"url"`          // URL exactly as submitted
	ThreatLevel ThreatLevel `json:"threat_level"` // safe, warning, danger
	Score       int         `json:"score"`        // Sum of finding weights
	Message     string      `json:"message"`      // One-line summary for the tooltip
	Findings    []Finding   `json:"findings"`     // Every signal raised, in detector order
	Details     Details     `json:"details"`      // Per-detector evidence
	CheckedAt   time.Time   `json:"checked_at"`   // When the analysis ran
}

// Clone returns a deep copy so callers never share slices with the cache
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	if r.Findings != nil {
		out.Findings = make([]Finding, len(r.Findings))
		copy(out.Findings, r.Findings)
	}
	out.Details = r.Details.Clone()
	return out
}

// Finding is one detector's evidence of a risk signal
type Finding struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Tag      string   `json:"tag"` // Name of the detector that raised it
}

// Severity indicates how strongly a finding points at a threat
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for sorting; higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ThreatLevel is the three-valued verdict derived from the score
type ThreatLevel string

const (
	ThreatSafe    ThreatLevel = "safe"
	ThreatWarning ThreatLevel = "warning"
	ThreatDanger  ThreatLevel = "danger"
)

// ParsedURL is an immutable, case-normalized view of a URL
type ParsedURL struct {
	Scheme    string // Lowercase scheme without "://"
	Hostname  string // Lowercased host without port
	PathQuery string // Raw path plus "?query" when present
	Original  string // Input string, untouched
}

// Labels splits the hostname into its dot-separated labels
func (u ParsedURL) Labels() []string {
	if u.Hostname == "" {
		return nil
	}
	return strings.Split(u.Hostname, ".")
}

// RegisteredName returns the second-level label (labels[-2]).
// Hosts with fewer than two labels have none.
func (u ParsedURL) RegisteredName() (string, bool) {
	labels := u.Labels()
	if len(labels) < 2 {
		return "", false
	}
	return labels[len(labels)-2], true
}
