package pipeline

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/ppiankov/linkguard/internal/cache"
	"github.com/ppiankov/linkguard/internal/detect"
	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/normalize"
	"github.com/ppiankov/linkguard/internal/score"
	"github.com/ppiankov/linkguard/internal/stats"
)

// MalformedMessage is the verdict message for URLs that fail to parse
const MalformedMessage = "Could not fully analyze this URL"

// malformedScore is fixed and does not come from finding weights
const malformedScore = 10

// Pipeline orchestrates one analysis: cache, normalize, detect, score, compose
type Pipeline struct {
	config    *model.Config
	cache     cache.Cache
	detectors *detect.Set
	scorer    *score.Scorer
	clock     cache.Clock
	logger    logr.Logger
	recorder  stats.Recorder
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithClock sets the time source for checkedAt and cache ageing
func WithClock(clock cache.Clock) Option {
	return func(p *Pipeline) { p.clock = clock }
}

func WithLogger(logger logr.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithDetectorSet replaces the standard detector battery
func WithDetectorSet(set *detect.Set) Option {
	return func(p *Pipeline) { p.detectors = set }
}

// WithCache replaces the default in-memory result cache
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	p := &Pipeline{
		config: cfg,
		clock:  cache.SystemClock{},
		logger: logr.Discard(),
		scorer: score.NewScorer(cfg.Scoring),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.WithName("pipeline")
	if p.cache == nil {
		p.cache = cache.NewResultCache(cfg.Cache, p.clock)
	}
	if p.detectors == nil {
		p.detectors = detect.New(cfg, p.logger)
	}

	return p
}

// Analyze returns the verdict for rawURL. It never fails: input that cannot be
// parsed yields a warning result, and detector faults only drop that detector.
func (p *Pipeline) Analyze(rawURL string) model.AnalysisResult {
	start := time.Now()

	if cached, ok := p.cache.Get(rawURL); ok {
		p.recorder.RecordCacheHit()
		p.recorder.RecordVerdict(cached.ThreatLevel)
		p.logger.V(1).Info("cache hit", "url", rawURL, "level", cached.ThreatLevel)
		return cached
	}

	u, err := normalize.Parse(rawURL)
	if err != nil {
		p.logger.V(1).Info("could not parse URL", "url", rawURL, "error", err.Error())
		result := p.malformed(rawURL, err)
		p.recorder.RecordVerdict(result.ThreatLevel)
		return result
	}

	outcome := p.detectors.Run(u)
	p.recorder.RecordFaults(len(outcome.Faults))

	findings := outcome.Findings
	if findings == nil {
		findings = []model.Finding{}
	}

	total, level := p.scorer.Calculate(findings)
	result := model.AnalysisResult{
		URL:         rawURL,
		ThreatLevel: level,
		Score:       total,
		Message:     score.Compose(findings),
		Findings:    findings,
		Details:     outcome.Details,
		CheckedAt:   p.clock.Now(),
	}

	p.cache.Put(rawURL, result)
	p.recorder.RecordVerdict(level)

	if elapsed := time.Since(start); p.config.Diagnostics.SlowAnalysis > 0 && elapsed > p.config.Diagnostics.SlowAnalysis {
		p.logger.Info("slow analysis", "url", rawURL, "elapsed", elapsed.String(),
			"threshold", p.config.Diagnostics.SlowAnalysis.String())
	}

	return result
}

// malformed builds the fixed result for unparseable input; it is not cached
func (p *Pipeline) malformed(rawURL string, err error) model.AnalysisResult {
	return model.AnalysisResult{
		URL:         rawURL,
		ThreatLevel: model.ThreatWarning,
		Score:       malformedScore,
		Message:     MalformedMessage,
		Findings:    []model.Finding{},
		Details:     model.Details{model.ErrorDetail{Error: err.Error()}},
		CheckedAt:   p.clock.Now(),
	}
}

// SweepCache removes expired cache entries and returns how many were evicted
func (p *Pipeline) SweepCache(now time.Time) int {
	evicted := p.cache.Sweep(now)
	p.logger.Info("cache sweep", "evicted", evicted, "remaining", p.cache.Len())
	return evicted
}

// Now reads the pipeline's clock
func (p *Pipeline) Now() time.Time {
	return p.clock.Now()
}

// Stats returns the counters accumulated since the pipeline was created
func (p *Pipeline) Stats() stats.Counters {
	return p.recorder.Snapshot()
}

// CacheLen reports the number of cached results
func (p *Pipeline) CacheLen() int {
	return p.cache.Len()
}
