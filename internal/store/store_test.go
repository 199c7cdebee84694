package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"call-insights-go/internal/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func result(id string) types.AnalysisResult {
	return types.AnalysisResult{
		ID:          id,
		Summary:     "summary " + id,
		ActionItems: []string{types.NoActionItems},
		BusinessIntelligence: types.BusinessIntelligence{
			QualityScore: types.QualityScore{Overall: 77},
		},
	}
}

// exercise runs the shared contract against any backend wired to clk.
func exercise(t *testing.T, s Store, clk *clock) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) ok=%v err=%v", ok, err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, id, result(id)); err != nil {
			t.Fatalf("Put(%s): %v", id, err)
		}
		clk.advance(time.Minute)
	}
	// max is 2, so "a" was evicted.
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("oldest entry not evicted")
	}
	got, ok, err := s.Get(ctx, "c")
	if !ok || err != nil || got.Summary != "summary c" || got.BusinessIntelligence.QualityScore.Overall != 77 {
		t.Fatalf("Get(c)=%+v ok=%v err=%v", got, ok, err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != "b" || list[1].ID != "c" {
		t.Fatalf("List=%+v err=%v", list, err)
	}

	clk.advance(2 * time.Hour)
	if _, ok, _ := s.Get(ctx, "c"); ok {
		t.Fatalf("expired entry still returned")
	}
	if list, _ := s.List(ctx); len(list) != 0 {
		t.Fatalf("List after expiry=%d entries", len(list))
	}
}

func TestMemory(t *testing.T) {
	t.Parallel()
	clk := &clock{t: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)}
	m := NewMemory(time.Hour, 2)
	m.now = clk.now
	exercise(t, m, clk)
}

func TestSQLite(t *testing.T) {
	t.Parallel()
	clk := &clock{t: time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)}
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "results.db"), time.Hour, 2)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	s.now = clk.now
	exercise(t, s, clk)
}

func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(time.Hour, 1)
	m.Put(ctx, "a", result("a"))
	r := result("a")
	r.Summary = "updated"
	m.Put(ctx, "a", r)
	if got, ok, _ := m.Get(ctx, "a"); !ok || got.Summary != "updated" {
		t.Fatalf("Get(a)=%+v ok=%v", got, ok)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	s, err := Open(Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("default driver=%T want *Memory", s)
	}
	if _, err := Open(Options{Driver: "redis"}); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}
