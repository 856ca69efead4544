package grading

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/stats"
)

type recordingQueue struct {
	ids []string
}

func (q *recordingQueue) EnqueueRetry(id string) {
	q.ids = append(q.ids, id)
}

var gradeTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

func newTestEngine() (*Engine, *stats.Ledger, *recordingQueue) {
	ledger := stats.NewLedger(nil, nil)
	queue := &recordingQueue{}
	e := NewWithClock(ledger, queue, func() time.Time { return gradeTime })
	return e, ledger, queue
}

func TestApplyScoreDeltas(t *testing.T) {
	tests := []struct {
		mark  model.Mark
		start float64
		want  float64
	}{
		{model.MarkGood, 0, 1},
		{model.MarkPartial, 0, -0.5},
		{model.MarkBad, 0, -1},
		{model.MarkGood, 10, 10},
		{model.MarkBad, -5, -5},
		{model.MarkPartial, -4.8, -5},
	}
	for _, tt := range tests {
		e, _, _ := newTestEngine()
		p := &model.Problem{ID: "p1", Type: model.TypeQA, Score: tt.start}
		if err := e.Apply(p, tt.mark); err != nil {
			t.Fatalf("apply %s: %v", tt.mark, err)
		}
		if p.Score != tt.want {
			t.Fatalf("%s from %v: expected %v, got %v", tt.mark, tt.start, tt.want, p.Score)
		}
	}
}

func TestApplyCountersAndRetry(t *testing.T) {
	e, _, queue := newTestEngine()
	p := &model.Problem{ID: "p1", Type: model.TypeMask}
	for _, mark := range []model.Mark{model.MarkGood, model.MarkPartial, model.MarkBad} {
		if err := e.Apply(p, mark); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if p.AnswerCount != 3 || p.CorrectCount != 1 {
		t.Fatalf("unexpected counters %d/%d", p.CorrectCount, p.AnswerCount)
	}
	if len(queue.ids) != 1 || queue.ids[0] != "p1" {
		t.Fatalf("expected one retry for the bad mark, got %v", queue.ids)
	}
	if p.UpdatedAt != gradeTime.UnixMilli() {
		t.Fatalf("expected updatedAt refresh")
	}
}

func TestApplyRejectsInvalidMark(t *testing.T) {
	e, ledger, queue := newTestEngine()
	p := &model.Problem{ID: "p1", Type: model.TypeQA, Score: 3, Categories: []string{"tax"}}
	if err := e.Apply(p, "meh"); !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("expected ErrInvalidMark, got %v", err)
	}
	if p.Score != 3 || p.AnswerCount != 0 || len(queue.ids) != 0 || len(ledger.Daily) != 0 || len(ledger.Categories) != 0 {
		t.Fatalf("invalid mark must be a no-op")
	}
}

func TestApplyRejectsManualOX(t *testing.T) {
	e, _, _ := newTestEngine()
	p := &model.Problem{ID: "p1", Type: model.TypeOX}
	if err := e.Apply(p, model.MarkPartial); !errors.Is(err, ErrManualOX) {
		t.Fatalf("expected ErrManualOX, got %v", err)
	}
	if p.AnswerCount != 0 {
		t.Fatalf("expected no change")
	}
}

func TestApplyOX(t *testing.T) {
	e, ledger, queue := newTestEngine()
	p := &model.Problem{ID: "ox1", Type: model.TypeOX, Correct: model.SideX, Explanation: "because", Categories: []string{"law"}}

	res, err := e.ApplyOX(p, model.SideX)
	if err != nil {
		t.Fatalf("apply ox: %v", err)
	}
	if !res.Correct || res.Mark != model.MarkGood || res.Explanation != "because" {
		t.Fatalf("unexpected result %+v", res)
	}
	res, err = e.ApplyOX(p, model.SideO)
	if err != nil {
		t.Fatalf("apply ox: %v", err)
	}
	if res.Correct || res.Mark != model.MarkBad || res.CorrectSide != model.SideX {
		t.Fatalf("unexpected result %+v", res)
	}
	if p.Score != 0 || p.AnswerCount != 2 || p.CorrectCount != 1 {
		t.Fatalf("unexpected problem state %+v", p)
	}
	if len(queue.ids) != 1 {
		t.Fatalf("expected retry after wrong side")
	}
	if got := ledger.Category("law"); got.Correct != 1 || got.Total != 2 {
		t.Fatalf("unexpected category counter %+v", got)
	}

	if _, err := e.ApplyOX(p, "maybe"); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
	qa := &model.Problem{ID: "qa", Type: model.TypeQA}
	if _, err := e.ApplyOX(qa, model.SideO); !errors.Is(err, ErrNotOX) {
		t.Fatalf("expected ErrNotOX, got %v", err)
	}
}

func TestApplyRecordsStats(t *testing.T) {
	e, ledger, _ := newTestEngine()
	p := &model.Problem{ID: "p1", Type: model.TypeQA, Categories: []string{"tax", "law"}}
	if err := e.Apply(p, model.MarkGood); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := model.Counter{Correct: 1, Total: 1}
	if got := ledger.Day("2024-01-01"); got != want {
		t.Fatalf("unexpected daily stat %+v", got)
	}
	if ledger.Category("tax") != want || ledger.Category("law") != want {
		t.Fatalf("unexpected category stats %+v", ledger.Categories)
	}
}

func TestScoreBoundsAndMonotoneCounters(t *testing.T) {
	e, _, _ := newTestEngine()
	rnd := rand.New(rand.NewSource(99))
	marks := []model.Mark{model.MarkGood, model.MarkPartial, model.MarkBad}
	p := &model.Problem{ID: "p1", Type: model.TypeQA}
	prevAnswers, prevCorrect := 0, 0
	for i := 0; i < 2000; i++ {
		if err := e.Apply(p, marks[rnd.Intn(len(marks))]); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if p.Score < -5 || p.Score > 10 {
			t.Fatalf("score out of bounds: %v", p.Score)
		}
		if p.AnswerCount < prevAnswers || p.CorrectCount < prevCorrect || p.CorrectCount > p.AnswerCount {
			t.Fatalf("counter invariant broken: %d/%d", p.CorrectCount, p.AnswerCount)
		}
		prevAnswers, prevCorrect = p.AnswerCount, p.CorrectCount
	}
}
