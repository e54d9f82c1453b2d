// Package stats keeps running totals of analyses and persists them.
package stats

import (
	"sync/atomic"

	"github.com/ppiankov/linkguard/internal/model"
)

// Counters is a snapshot of analysis totals
type Counters struct {
	Analyses  int64 `json:"analyses"`
	CacheHits int64 `json:"cache_hits"`
	Warnings  int64 `json:"warnings"`
	Dangers   int64 `json:"dangers"`
	Faults    int64 `json:"faults"`
}

// Add returns the field-wise sum of c and o
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Analyses:  c.Analyses + o.Analyses,
		CacheHits: c.CacheHits + o.CacheHits,
		Warnings:  c.Warnings + o.Warnings,
		Dangers:   c.Dangers + o.Dangers,
		Faults:    c.Faults + o.Faults,
	}
}

// Sub returns the field-wise difference c - o
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		Analyses:  c.Analyses - o.Analyses,
		CacheHits: c.CacheHits - o.CacheHits,
		Warnings:  c.Warnings - o.Warnings,
		Dangers:   c.Dangers - o.Dangers,
		Faults:    c.Faults - o.Faults,
	}
}

func (c Counters) IsZero() bool {
	return c == Counters{}
}

// ThreatsBlocked counts verdicts a user would be stopped at
func (c Counters) ThreatsBlocked() int64 {
	return c.Dangers
}

// Recorder accumulates counters from concurrent analyses
type Recorder struct {
	analyses  atomic.Int64
	cacheHits atomic.Int64
	warnings  atomic.Int64
	dangers   atomic.Int64
	faults    atomic.Int64
}

// RecordVerdict counts one analysis and its threat level
func (r *Recorder) RecordVerdict(level model.ThreatLevel) {
	r.analyses.Add(1)
	switch level {
	case model.ThreatWarning:
		r.warnings.Add(1)
	case model.ThreatDanger:
		r.dangers.Add(1)
	}
}

func (r *Recorder) RecordCacheHit() {
	r.cacheHits.Add(1)
}

func (r *Recorder) RecordFaults(n int) {
	if n > 0 {
		r.faults.Add(int64(n))
	}
}

// Snapshot reads all counters. Fields are read independently, so a snapshot
// taken during concurrent analyses may straddle one of them.
func (r *Recorder) Snapshot() Counters {
	return Counters{
		Analyses:  r.analyses.Load(),
		CacheHits: r.cacheHits.Load(),
		Warnings:  r.warnings.Load(),
		Dangers:   r.dangers.Load(),
		Faults:    r.faults.Load(),
	}
}
