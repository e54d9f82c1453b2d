package score

import (
	"fmt"
	"sort"

	"github.com/ppiankov/linkguard/internal/model"
)

// NoIssuesMessage is reported when no detector raised a finding
const NoIssuesMessage = "No obvious issues detected"

// Scorer turns findings into a numeric score and a threat level
type Scorer struct {
	weights    model.WeightsConfig
	thresholds model.ThresholdsConfig
}

// NewScorer creates a scorer from the scoring policy
func NewScorer(cfg model.ScoringConfig) *Scorer {
	return &Scorer{
		weights:    cfg.Weights,
		thresholds: cfg.Thresholds,
	}
}

// Weight returns the score contribution of one severity
func (s *Scorer) Weight(sev model.Severity) int {
	switch sev {
	case model.SeverityHigh:
		return s.weights.High
	case model.SeverityMedium:
		return s.weights.Medium
	case model.SeverityLow:
		return s.weights.Low
	default:
		return 0
	}
}

// Score sums the weights of all findings; order does not matter
func (s *Scorer) Score(findings []model.Finding) int {
	total := 0
	for _, f := range findings {
		total += s.Weight(f.Severity)
	}
	return total
}

// Classify maps a score onto the threshold ladder
func (s *Scorer) Classify(score int) model.ThreatLevel {
	switch {
	case score >= s.thresholds.Danger:
		return model.ThreatDanger
	case score >= s.thresholds.Warning:
		return model.ThreatWarning
	default:
		return model.ThreatSafe
	}
}

// Calculate scores and classifies in one step
func (s *Scorer) Calculate(findings []model.Finding) (int, model.ThreatLevel) {
	total := s.Score(findings)
	return total, s.Classify(total)
}

// Compose summarizes findings as the most severe message plus a count of the rest.
// Ties keep detector order.
func Compose(findings []model.Finding) string {
	if len(findings) == 0 {
		return NoIssuesMessage
	}

	ranked := make([]model.Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})

	msg := ranked[0].Message
	switch more := len(ranked) - 1; {
	case more == 1:
		msg += " (+1 more issue)"
	case more > 1:
		msg += fmt.Sprintf(" (+%d more issues)", more)
	}

	return msg
}
