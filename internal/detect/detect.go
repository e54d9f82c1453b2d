// Package detect holds the independent heuristics that inspect a normalized URL.
//
// Each Detector looks at one signal and either returns a Finding or nothing.
// Detectors never see each other's output; the only shared input is the
// TrustContext computed from the known-domain allow-list.
package detect

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/ppiankov/linkguard/internal/model"
)

// Detector inspects one threat signal.
// A nil Finding means the signal is absent; a non-nil Detail is recorded either way.
type Detector interface {
	Name() string
	Detect(u model.ParsedURL, trust TrustContext) (*model.Finding, model.Detail)
}

// FaultError wraps a detector that failed mid-evaluation
type FaultError struct {
	Detector string
	Cause    error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("detector %s: %v", e.Detector, e.Cause)
}

func (e *FaultError) Unwrap() error { return e.Cause }

// Outcome is everything a Set produced for one URL
type Outcome struct {
	Findings []model.Finding
	Details  model.Details
	Faults   []error
}

// Set runs detectors in a fixed order against one URL
type Set struct {
	trust     *TrustList
	detectors []Detector
	logger    logr.Logger
}

// New builds the standard detector battery from configuration
func New(cfg *model.Config, logger logr.Logger) *Set {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	return NewSet(NewTrustList(cfg.Lists.KnownDomains), logger,
		InsecureProtocol{},
		IPHost{},
		NewAbusedTLD(cfg.Lists.AbusedTLDs),
		Subdomains{Max: cfg.Detect.MaxSubdomainLabels},
		NewTyposquat(cfg.Lists.Brands, cfg.Detect.TyposquatDistance),
		NewKeywords(cfg.Lists.Keywords),
		Homograph{},
		Entropy{Bits: cfg.Detect.EntropyBits, MinLength: cfg.Detect.EntropyMinLength},
		LongURL{Max: cfg.Detect.MaxURLLength},
		NewShortener(cfg.Lists.Shorteners),
		EmbeddedRedirect{},
	)
}

// NewSet builds a Set from explicit detectors, evaluated in the given order
func NewSet(trust *TrustList, logger logr.Logger, detectors ...Detector) *Set {
	if trust == nil {
		trust = NewTrustList(nil)
	}
	return &Set{
		trust:     trust,
		detectors: detectors,
		logger:    logger.WithName("detect"),
	}
}

// Trust returns the allow-list the set evaluates hosts against
func (s *Set) Trust() *TrustList {
	return s.trust
}

// Names lists detector names in evaluation order
func (s *Set) Names() []string {
	names := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		names[i] = d.Name()
	}
	return names
}

// Run evaluates every detector. A detector that panics contributes nothing
// and is reported in Outcome.Faults; the rest still run.
func (s *Set) Run(u model.ParsedURL) Outcome {
	trust := s.trust.Context(u.Hostname)

	out := Outcome{
		Details: model.Details{
			model.HostDetail{Hostname: u.Hostname, Protocol: u.Scheme + ":"},
			model.TrustDetail{Trusted: trust.Trusted},
		},
	}

	for _, d := range s.detectors {
		f, detail, err := s.runOne(d, u, trust)
		if err != nil {
			s.logger.Error(err, "detector fault", "detector", d.Name(), "url", u.Original)
			out.Faults = append(out.Faults, err)
			continue
		}
		if detail != nil {
			out.Details = append(out.Details, detail)
		}
		if f != nil {
			out.Findings = append(out.Findings, *f)
		}
	}

	return out
}

func (s *Set) runOne(d Detector, u model.ParsedURL, trust TrustContext) (f *model.Finding, detail model.Detail, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, detail = nil, nil
			err = &FaultError{Detector: d.Name(), Cause: fmt.Errorf("panic: %v", r)}
		}
	}()
	f, detail = d.Detect(u, trust)
	return f, detail, nil
}
