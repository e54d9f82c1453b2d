package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned by a store used after Close
var ErrClosed = errors.New("stats store closed")

// Store persists counter totals across runs
type Store interface {
	// Add merges delta into the persisted totals
	Add(ctx context.Context, delta Counters) error
	// Load returns the persisted totals
	Load(ctx context.Context) (Counters, error)
	Close() error
}

// MemoryStore keeps totals for the life of the process
type MemoryStore struct {
	mu     sync.Mutex
	totals Counters
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(_ context.Context, delta Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.totals = s.totals.Add(delta)
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (Counters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Counters{}, ErrClosed
	}
	return s.totals, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Flusher writes the growth of a live counter source into a Store
type Flusher struct {
	mu     sync.Mutex
	source func() Counters
	store  Store
	last   Counters
}

// NewFlusher creates a flusher; source is usually a Recorder's Snapshot
func NewFlusher(source func() Counters, store Store) *Flusher {
	return &Flusher{source: source, store: store}
}

// Flush persists whatever accumulated since the previous successful flush.
// It returns the delta written.
func (f *Flusher) Flush(ctx context.Context) (Counters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.source()
	delta := current.Sub(f.last)
	if delta.IsZero() {
		return Counters{}, nil
	}

	if err := f.store.Add(ctx, delta); err != nil {
		return Counters{}, fmt.Errorf("flush stats: %w", err)
	}
	f.last = current
	return delta, nil
}
