package problem

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	return NewStore([]model.Problem{
		{ID: "p1", Type: model.TypeQA, Question: "q1", Answer: "a1", Categories: []string{"tax"}, Score: 2},
		{ID: "p2", Type: model.TypeOX, Question: "q2", Correct: model.SideX, Categories: []string{"law"}, Score: 6},
		{ID: "p3", Type: model.TypeQA, Question: "q3", Answer: "a3", Categories: []string{"tax", "law"}, Deleted: true},
	})
}

func TestStoreAddRejectsDuplicate(t *testing.T) {
	s := seedStore(t)
	err := s.Add(model.Problem{ID: "p1", Type: model.TypeQA})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 problems, got %d", s.Len())
	}
}

func TestStoreScoreHidesDeleted(t *testing.T) {
	s := seedStore(t)
	if score, ok := s.Score("p2"); !ok || score != 6 {
		t.Fatalf("unexpected score %v %v", score, ok)
	}
	if _, ok := s.Score("p3"); ok {
		t.Fatalf("expected deleted problem to be hidden")
	}
	if _, ok := s.Score("missing"); ok {
		t.Fatalf("expected unknown problem to be hidden")
	}
}

func TestStoreListAndCategories(t *testing.T) {
	s := seedStore(t)
	items, total := s.List([]string{"tax"}, "")
	if total != 1 || items[0].ID != "p1" {
		t.Fatalf("unexpected list result: %d %v", total, items)
	}
	items, total = s.List(nil, model.TypeOX)
	if total != 1 || items[0].ID != "p2" {
		t.Fatalf("unexpected type filter result: %d", total)
	}
	cats := s.Categories()
	if len(cats) != 2 || cats[0] != "law" || cats[1] != "tax" {
		t.Fatalf("unexpected categories %v", cats)
	}
}

func TestStoreEditKeepsCounters(t *testing.T) {
	s := seedStore(t)
	p, _ := s.Get("p1")
	p.AnswerCount = 4
	now := time.Unix(100, 0)
	if err := s.Edit("p1", model.Content{Question: "new", Answer: "ans"}, []string{"vat"}, now); err != nil {
		t.Fatalf("edit: %v", err)
	}
	p, _ = s.Get("p1")
	if p.Question != "new" || p.AnswerCount != 4 || p.Categories[0] != "vat" {
		t.Fatalf("unexpected edited problem %+v", p)
	}
	if p.UpdatedAt != now.UnixMilli() {
		t.Fatalf("expected updatedAt refresh")
	}
	if err := s.Edit("p1", model.Content{Question: ""}, nil, now); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	p, _ = s.Get("p1")
	if p.Question != "new" {
		t.Fatalf("failed edit must not change the problem")
	}
}

func TestStoreSetDeleted(t *testing.T) {
	s := seedStore(t)
	if err := s.SetDeleted("p1", true, time.Unix(5, 0)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Active()) != 1 {
		t.Fatalf("expected one active problem")
	}
	if err := s.SetDeleted("nope", true, time.Unix(5, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreMergeKeepsLocalHistory(t *testing.T) {
	s := seedStore(t)
	p, _ := s.Get("p1")
	p.AnswerCount = 3
	p.CorrectCount = 2
	now := time.Unix(1000, 0)
	added, updated := s.Merge([]model.Problem{
		{ID: "p1", Type: model.TypeQA, Question: "q1 edited", Answer: "a1", Categories: []string{"law", "tax"}, Score: -5, AnswerCount: 99},
		{ID: "p9", Type: model.TypeOX, Question: "new", Correct: model.SideO},
		{ID: "p2", Type: model.TypeQA, Question: "type change", Answer: "x", Categories: []string{"vat"}},
	}, now)
	if added != 1 || updated != 2 {
		t.Fatalf("unexpected merge counts %d %d", added, updated)
	}
	p, _ = s.Get("p1")
	if p.Question != "q1 edited" {
		t.Fatalf("expected incoming content, got %q", p.Question)
	}
	if p.Score != 2 || p.AnswerCount != 3 || p.CorrectCount != 2 {
		t.Fatalf("expected local history to win: %+v", p)
	}
	if len(p.Categories) != 2 || p.Categories[0] != "tax" || p.Categories[1] != "law" {
		t.Fatalf("unexpected union %v", p.Categories)
	}
	if p.UpdatedAt != now.UnixMilli() {
		t.Fatalf("expected updatedAt refresh")
	}
	p2, _ := s.Get("p2")
	if p2.Type != model.TypeOX || p2.Question != "q2" {
		t.Fatalf("type change must keep local content: %+v", p2)
	}
	if len(p2.Categories) != 2 {
		t.Fatalf("expected labels to be unioned on type mismatch: %v", p2.Categories)
	}
}
