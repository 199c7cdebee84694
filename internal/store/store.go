// Package store keeps analysis results for later retrieval. Results are not a
// durable product record: every backend expires entries after a TTL.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"call-insights-go/internal/types"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxEntries = 1000
)

// Store is safe for concurrent use.
type Store interface {
	Put(ctx context.Context, id string, r types.AnalysisResult) error
	Get(ctx context.Context, id string) (types.AnalysisResult, bool, error)
	List(ctx context.Context) ([]types.AnalysisResult, error)
	Close() error
}

type Options struct {
	Driver     string // memory | sqlite
	Path       string
	TTL        time.Duration
	MaxEntries int
}

// Open picks the backend named by opts.Driver.
func Open(opts Options) (Store, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	switch opts.Driver {
	case "", "memory":
		return NewMemory(opts.TTL, opts.MaxEntries), nil
	case "sqlite":
		return OpenSQLite(opts.Path, opts.TTL, opts.MaxEntries)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

type entry struct {
	result  types.AnalysisResult
	addedAt time.Time
}

// Memory is a bounded map. Expired entries are dropped on access and the
// oldest entry is evicted when a Put would exceed max.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]entry
	now     func() time.Time
}

func NewMemory(ttl time.Duration, max int) *Memory {
	return &Memory{ttl: ttl, max: max, entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Put(_ context.Context, id string, r types.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purge(now)
	if _, exists := m.entries[id]; !exists {
		for len(m.entries) > 0 && len(m.entries) >= m.max {
			m.evictOldest()
		}
	}
	m.entries[id] = entry{result: r, addedAt: now}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (types.AnalysisResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return types.AnalysisResult{}, false, nil
	}
	if m.now().Sub(e.addedAt) > m.ttl {
		delete(m.entries, id)
		return types.AnalysisResult{}, false, nil
	}
	return e.result, true, nil
}

// List returns live results, oldest first.
func (m *Memory) List(_ context.Context) ([]types.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(m.now())
	es := make([]entry, 0, len(m.entries))
	for _, e := range m.entries {
		es = append(es, e)
	}
	sort.Slice(es, func(i, j int) bool {
		if es[i].addedAt.Equal(es[j].addedAt) {
			return es[i].result.ID < es[j].result.ID
		}
		return es[i].addedAt.Before(es[j].addedAt)
	})
	out := make([]types.AnalysisResult, len(es))
	for i, e := range es {
		out[i] = e.result
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) purge(now time.Time) {
	for id, e := range m.entries {
		if now.Sub(e.addedAt) > m.ttl {
			delete(m.entries, id)
		}
	}
}

func (m *Memory) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, e := range m.entries {
		if oldestID == "" || e.addedAt.Before(oldestAt) {
			oldestID, oldestAt = id, e.addedAt
		}
	}
	delete(m.entries, oldestID)
}
