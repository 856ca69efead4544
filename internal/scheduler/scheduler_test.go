package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/verte-zerg/kioku/internal/model"
)

type fakeCatalog struct {
	scores  map[string]float64
	deleted map[string]bool
}

func (c *fakeCatalog) Score(id string) (float64, bool) {
	score, ok := c.scores[id]
	if !ok || c.deleted[id] {
		return 0, false
	}
	return score, true
}

func newCatalog(n int) (*fakeCatalog, []string) {
	c := &fakeCatalog{scores: map[string]float64{}, deleted: map[string]bool{}}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("p%d", i)
		c.scores[ids[i]] = 0
	}
	return c, ids
}

func newTestScheduler(t *testing.T, n int, seed int64) (*Scheduler, *fakeCatalog, []string) {
	t.Helper()
	catalog, ids := newCatalog(n)
	s := NewWithRand(catalog, &model.SchedulerState{}, rand.New(rand.NewSource(seed)))
	s.Start(NewPool(ids))
	return s, catalog, ids
}

func TestNextWithoutSession(t *testing.T) {
	catalog, _ := newCatalog(3)
	s := New(catalog, nil, 1)
	if _, err := s.Next(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	s.Start(Pool{})
	if _, err := s.Next(); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestStartClearsQueues(t *testing.T) {
	catalog, ids := newCatalog(3)
	state := &model.SchedulerState{
		RecentQueue: []string{"p0"},
		ForcedQueue: []model.ForcedEntry{{ID: "p1", Delay: 2}},
	}
	s := New(catalog, state, 1)
	s.Start(NewPool(ids))
	if len(state.RecentQueue) != 0 || len(state.ForcedQueue) != 0 {
		t.Fatalf("expected empty queues, got %+v", state)
	}
	s.End()
	if s.Active() {
		t.Fatalf("expected session to end")
	}
}

func TestNextAvoidsRecent(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8, 7)
	var out []string
	for i := 0; i < 300; i++ {
		id, err := s.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, id)
	}
	for i := range out {
		for j := i + 1; j < len(out) && j < i+RecentWindow; j++ {
			if out[i] == out[j] {
				t.Fatalf("id %s repeated at %d and %d", out[i], i, j)
			}
		}
	}
}

func TestRecentQueueBounded(t *testing.T) {
	s, _, _ := newTestScheduler(t, 10, 3)
	for i := 0; i < 20; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
		if len(s.State().RecentQueue) > RecentWindow {
			t.Fatalf("recent queue too long: %d", len(s.State().RecentQueue))
		}
	}
}

func TestTinyPoolFallsBackToWholePool(t *testing.T) {
	s, _, _ := newTestScheduler(t, 1, 1)
	for i := 0; i < 10; i++ {
		id, err := s.Next()
		if err != nil || id != "p0" {
			t.Fatalf("expected p0, got %q %v", id, err)
		}
	}
}

func TestForcedRetryResurfacesOnFifthCall(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s, _, _ := newTestScheduler(t, 8, seed)
		failed, err := s.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		s.EnqueueRetry(failed)
		hits := 0
		for call := 1; call <= ForcedDelay; call++ {
			id, err := s.Next()
			if err != nil {
				t.Fatalf("next: %v", err)
			}
			if id == failed {
				hits++
				if call != ForcedDelay {
					t.Fatalf("seed %d: retry surfaced at call %d", seed, call)
				}
			}
		}
		if hits != 1 {
			t.Fatalf("seed %d: expected exactly one retry, got %d", seed, hits)
		}
		if len(s.State().ForcedQueue) != 0 {
			t.Fatalf("expected forced queue to drain")
		}
	}
}

func TestForcedRetryPreemptsRecency(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8, 11)
	first, _ := s.Next()
	s.State().ForcedQueue = []model.ForcedEntry{{ID: first, Delay: 1}}
	id, err := s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != first {
		t.Fatalf("expected forced %s, got %s", first, id)
	}
}

func TestStaleForcedEntryIsDroppedWithoutRescan(t *testing.T) {
	s, _, _ := newTestScheduler(t, 8, 5)
	s.State().ForcedQueue = []model.ForcedEntry{
		{ID: "gone", Delay: 1},
		{ID: "p3", Delay: 1},
	}
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	q := s.State().ForcedQueue
	if len(q) != 1 || q[0].ID != "p3" || q[0].Delay != 0 {
		t.Fatalf("expected p3 to wait for the next call, got %+v", q)
	}
	id, err := s.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "p3" {
		t.Fatalf("expected p3 on the following call, got %s", id)
	}
}

func TestDeletedProblemsAreNotPresented(t *testing.T) {
	s, catalog, ids := newTestScheduler(t, 8, 9)
	catalog.deleted["p2"] = true
	s.EnqueueRetry("p2")
	for i := 0; i < 100; i++ {
		id, err := s.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if id == "p2" {
			t.Fatalf("deleted problem presented")
		}
	}
	for _, id := range ids {
		catalog.deleted[id] = true
	}
	if _, err := s.Next(); !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool once everything is deleted, got %v", err)
	}
}

func TestWeight(t *testing.T) {
	if Weight(0) != 1 || Weight(-5) != 1 {
		t.Fatalf("non-positive scores must weigh 1")
	}
	if got := Weight(10); got != 1.0/11.0 {
		t.Fatalf("unexpected weight %v", got)
	}
}

func TestDrawFavoursLowerScores(t *testing.T) {
	s := NewWithRand(&fakeCatalog{}, nil, rand.New(rand.NewSource(42)))
	candidates := []candidate{
		{id: "low", weight: Weight(-2)},
		{id: "mid", weight: Weight(3)},
		{id: "high", weight: Weight(10)},
	}
	counts := map[string]int{}
	for i := 0; i < 20000; i++ {
		counts[s.draw(candidates)]++
	}
	if !(counts["low"] >= counts["mid"] && counts["mid"] >= counts["high"]) {
		t.Fatalf("expected monotone frequencies, got %v", counts)
	}
	if counts["high"] == 0 {
		t.Fatalf("high score items must remain drawable")
	}
}
