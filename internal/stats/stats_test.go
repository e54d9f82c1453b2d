package stats

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-logr/logr/testr"

	"github.com/ppiankov/linkguard/internal/model"
)

func TestRecorder_Snapshot(t *testing.T) {
	var r Recorder

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RecordVerdict(model.ThreatDanger)
			r.RecordVerdict(model.ThreatSafe)
			r.RecordCacheHit()
		}()
	}
	wg.Wait()
	r.RecordVerdict(model.ThreatWarning)
	r.RecordFaults(2)
	r.RecordFaults(0)

	got := r.Snapshot()
	want := Counters{Analyses: 101, CacheHits: 50, Warnings: 1, Dangers: 50, Faults: 2}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
	if got.ThreatsBlocked() != 50 {
		t.Errorf("Expected 50 threats blocked, got %d", got.ThreatsBlocked())
	}
}

func TestCounters_AddSub(t *testing.T) {
	a := Counters{Analyses: 5, Dangers: 2}
	b := Counters{Analyses: 3, Dangers: 1, Faults: 1}

	if sum := a.Add(b); sum.Analyses != 8 || sum.Dangers != 3 || sum.Faults != 1 {
		t.Errorf("Unexpected sum: %+v", sum)
	}
	if diff := a.Add(b).Sub(b); diff != a {
		t.Errorf("Expected %+v, got %+v", a, diff)
	}
	if !(Counters{}).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Add(ctx, Counters{Analyses: 2}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ctx, Counters{Analyses: 1, Dangers: 1}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Analyses != 3 || got.Dangers != 1 {
		t.Errorf("Unexpected totals: %+v", got)
	}

	_ = s.Close()
	if err := s.Add(ctx, Counters{Analyses: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "stats.db")

	s, err := NewSQLiteStore(path, testr.New(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := s.Add(ctx, Counters{Analyses: 4, CacheHits: 1, Warnings: 2}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(ctx, Counters{Analyses: 1, Dangers: 1}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = NewSQLiteStore(path, testr.New(t))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Counters{Analyses: 5, CacheHits: 1, Warnings: 2, Dangers: 1}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore("", testr.New(t)); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestSQLiteStore_Closed(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "stats.db"), testr.New(t))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	_ = s.Close()

	if _, err := s.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

type failingStore struct {
	MemoryStore
	fail bool
}

func (s *failingStore) Add(ctx context.Context, delta Counters) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.MemoryStore.Add(ctx, delta)
}

func TestFlusher_WritesDeltas(t *testing.T) {
	ctx := context.Background()
	var r Recorder
	store := &failingStore{}
	f := NewFlusher(r.Snapshot, store)

	r.RecordVerdict(model.ThreatSafe)
	r.RecordVerdict(model.ThreatDanger)
	if delta, err := f.Flush(ctx); err != nil || delta.Analyses != 2 {
		t.Fatalf("First flush = %+v, %v", delta, err)
	}

	// nothing new
	if delta, err := f.Flush(ctx); err != nil || !delta.IsZero() {
		t.Errorf("Expected empty flush, got %+v, %v", delta, err)
	}

	// a failed flush is retried in full next time
	r.RecordVerdict(model.ThreatWarning)
	store.fail = true
	if _, err := f.Flush(ctx); err == nil {
		t.Error("Expected flush error")
	}
	store.fail = false
	if delta, err := f.Flush(ctx); err != nil || delta.Warnings != 1 {
		t.Errorf("Retry flush = %+v, %v", delta, err)
	}

	totals, _ := store.Load(ctx)
	want := Counters{Analyses: 3, Warnings: 1, Dangers: 1}
	if totals != want {
		t.Errorf("Stored totals = %+v, want %+v", totals, want)
	}
}
