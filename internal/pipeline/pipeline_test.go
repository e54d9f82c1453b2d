package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr/testr"

	"github.com/ppiankov/linkguard/internal/detect"
	"github.com/ppiankov/linkguard/internal/model"
	"github.com/ppiankov/linkguard/internal/score"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// countingDetector records how often it runs and flags every URL
type countingDetector struct {
	calls atomic.Int32
}

func (d *countingDetector) Name() string { return "counting" }

func (d *countingDetector) Detect(model.ParsedURL, detect.TrustContext) (*model.Finding, model.Detail) {
	d.calls.Add(1)
	return &model.Finding{Severity: model.SeverityMedium, Message: "counted", Tag: "counting"}, nil
}

func newCountingPipeline(t *testing.T, clock *fakeClock) (*Pipeline, *countingDetector) {
	t.Helper()
	counter := &countingDetector{}
	set := detect.NewSet(detect.NewTrustList(nil), testr.New(t), counter)
	p := NewPipeline(model.DefaultConfig(),
		WithClock(clock),
		WithLogger(testr.New(t)),
		WithDetectorSet(set),
	)
	return p, counter
}

func TestAnalyze_ScoreIsSumOfWeights(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))
	scorer := score.NewScorer(model.DefaultConfig().Scoring)

	urls := []string{
		"https://example.com",
		"http://example.com",
		"http://192.168.1.1/path",
		"https://paypa1.com/login/verify",
		"http://secure-login.free-prize.tk/account?next=https://bank.example",
		"https://bit.ly/abc",
	}

	for _, u := range urls {
		result := p.Analyze(u)
		if result.Score != scorer.Score(result.Findings) {
			t.Errorf("%s: score %d does not equal weight sum %d", u, result.Score, scorer.Score(result.Findings))
		}
		if result.ThreatLevel != scorer.Classify(result.Score) {
			t.Errorf("%s: level %s does not match score %d", u, result.ThreatLevel, result.Score)
		}
		if result.URL != u {
			t.Errorf("Expected URL %q echoed, got %q", u, result.URL)
		}
	}
}

func TestAnalyze_CacheHitIsIdempotent(t *testing.T) {
	clock := newClock()
	p, counter := newCountingPipeline(t, clock)

	first := p.Analyze("https://example.com/a")
	clock.Advance(time.Hour)
	second := p.Analyze("https://example.com/a")

	if counter.calls.Load() != 1 {
		t.Errorf("Expected detectors to run once, ran %d times", counter.calls.Load())
	}
	if first.Score != second.Score || first.Message != second.Message || !first.CheckedAt.Equal(second.CheckedAt) {
		t.Errorf("Cached result differs: %+v vs %+v", first, second)
	}
	if got := p.Stats().CacheHits; got != 1 {
		t.Errorf("Expected 1 cache hit, got %d", got)
	}
}

func TestAnalyze_ReanalyzesAfterTTL(t *testing.T) {
	clock := newClock()
	p, counter := newCountingPipeline(t, clock)

	p.Analyze("https://example.com")
	clock.Advance(24*time.Hour + time.Millisecond)
	p.Analyze("https://example.com")

	if counter.calls.Load() != 2 {
		t.Errorf("Expected re-analysis after TTL, detectors ran %d times", counter.calls.Load())
	}
}

func TestAnalyze_ReturnedResultIsIsolated(t *testing.T) {
	p, _ := newCountingPipeline(t, newClock())

	first := p.Analyze("https://example.com")
	first.Findings[0].Message = "tampered"

	second := p.Analyze("https://example.com")
	if second.Findings[0].Message != "counted" {
		t.Errorf("Caller mutation leaked into cache: %q", second.Findings[0].Message)
	}
}

func TestAnalyze_TrustedDomainBypass(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))

	result := p.Analyze("https://github.com/login")
	if result.ThreatLevel != model.ThreatSafe || result.Score != 0 {
		t.Errorf("Expected safe/0, got %s/%d", result.ThreatLevel, result.Score)
	}
	if result.Message != score.NoIssuesMessage {
		t.Errorf("Expected %q, got %q", score.NoIssuesMessage, result.Message)
	}
	if result.Findings == nil {
		t.Error("Expected empty, non-nil findings")
	}
}

func TestAnalyze_IPLiteral(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))

	result := p.Analyze("http://192.168.1.1/path")

	if result.Score != 45 {
		t.Errorf("Expected score 45, got %d", result.Score)
	}
	if result.ThreatLevel != model.ThreatDanger {
		t.Errorf("Expected danger, got %s", result.ThreatLevel)
	}
	d, ok := result.Details.Get(model.DetailIPHost)
	if !ok || !d.(model.IPHostDetail).UsesIP {
		t.Errorf("Expected usesIP detail, got %#v", d)
	}
	if result.Message != "Using IP address instead of domain name (+1 more issue)" {
		t.Errorf("Unexpected message: %q", result.Message)
	}
}

func TestAnalyze_Typosquat(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))

	tests := []struct {
		url  string
		want bool
	}{
		{"https://paypa1.com", true},
		{"https://payapl.com", true},
		{"https://paxxxl.com", false},
	}
	for _, tt := range tests {
		result := p.Analyze(tt.url)
		_, got := result.Details.Get(model.DetailTyposquat)
		if got != tt.want {
			t.Errorf("%s: typosquat = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestAnalyze_CyrillicHomograph(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))

	result := p.Analyze("https://p\u0430ypal.com")
	if result.ThreatLevel != model.ThreatDanger {
		t.Errorf("Expected danger, got %s (score %d)", result.ThreatLevel, result.Score)
	}
	d, ok := result.Details.Get(model.DetailHomograph)
	if !ok || !d.(model.HomographDetail).MixedScript {
		t.Errorf("Expected mixed-script homograph detail, got %#v", d)
	}
}

func TestAnalyze_Malformed(t *testing.T) {
	p, counter := newCountingPipeline(t, newClock())

	for _, raw := range []string{"not a url", "", "http://"} {
		result := p.Analyze(raw)

		if result.ThreatLevel != model.ThreatWarning || result.Score != 10 {
			t.Errorf("%q: expected warning/10, got %s/%d", raw, result.ThreatLevel, result.Score)
		}
		if result.Message != MalformedMessage {
			t.Errorf("%q: unexpected message %q", raw, result.Message)
		}
		d, ok := result.Details.Get(model.DetailError)
		if !ok || d.(model.ErrorDetail).Error == "" {
			t.Errorf("%q: expected error detail, got %#v", raw, result.Details)
		}
	}

	if counter.calls.Load() != 0 {
		t.Error("Detectors must not run on malformed input")
	}
	if p.CacheLen() != 0 {
		t.Errorf("Malformed results must not be cached, cache has %d", p.CacheLen())
	}
}

// faultyDetector panics so the pipeline has to carry on without it
type faultyDetector struct{}

func (faultyDetector) Name() string { return "faulty" }

func (faultyDetector) Detect(model.ParsedURL, detect.TrustContext) (*model.Finding, model.Detail) {
	panic(errors.New("unexpected rune"))
}

func TestAnalyze_DetectorFaultIsContained(t *testing.T) {
	set := detect.NewSet(detect.NewTrustList(nil), testr.New(t), faultyDetector{}, detect.InsecureProtocol{})
	p := NewPipeline(model.DefaultConfig(), WithDetectorSet(set), WithLogger(testr.New(t)))

	result := p.Analyze("http://example.com")
	if result.Score != 5 || len(result.Findings) != 1 {
		t.Errorf("Expected only the protocol finding, got %+v", result.Findings)
	}
	if got := p.Stats().Faults; got != 1 {
		t.Errorf("Expected 1 recorded fault, got %d", got)
	}
}

func TestSweepCache(t *testing.T) {
	clock := newClock()
	p, _ := newCountingPipeline(t, clock)

	p.Analyze("https://a.example.com")
	clock.Advance(12 * time.Hour)
	p.Analyze("https://b.example.com")

	evicted := p.SweepCache(clock.Now().Add(12*time.Hour + time.Millisecond))
	if evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}
	if p.CacheLen() != 1 {
		t.Errorf("Expected 1 entry left, got %d", p.CacheLen())
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	p, _ := newCountingPipeline(t, newClock())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := fmt.Sprintf("https://site%d.example.com", i%5)
			if r := p.Analyze(url); r.URL != url {
				t.Errorf("Expected %s, got %s", url, r.URL)
			}
		}(i)
	}
	wg.Wait()

	if got := p.Stats().Analyses; got != 20 {
		t.Errorf("Expected 20 analyses counted, got %d", got)
	}
	if p.CacheLen() != 5 {
		t.Errorf("Expected 5 cached URLs, got %d", p.CacheLen())
	}
}

func TestStats_CountsVerdicts(t *testing.T) {
	p := NewPipeline(model.DefaultConfig(), WithLogger(testr.New(t)))

	p.Analyze("https://github.com")      // safe
	p.Analyze("http://192.168.1.1/path") // danger
	p.Analyze("not a url")               // warning

	got := p.Stats()
	if got.Analyses != 3 || got.Dangers != 1 || got.Warnings != 1 {
		t.Errorf("Unexpected counters: %+v", got)
	}
}
