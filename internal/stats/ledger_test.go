package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

func TestLedgerRecord(t *testing.T) {
	l := NewLedger(nil, nil)
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local)
	l.Record(at, []string{"tax", "law"}, true)
	l.Record(at.Add(time.Hour), []string{"tax"}, false)

	if got := l.Day("2024-01-01"); got != (model.Counter{Correct: 1, Total: 2}) {
		t.Fatalf("unexpected day counter %+v", got)
	}
	if got := l.Category("tax"); got != (model.Counter{Correct: 1, Total: 2}) {
		t.Fatalf("unexpected tax counter %+v", got)
	}
	if got := l.Category("law"); got != (model.Counter{Correct: 1, Total: 1}) {
		t.Fatalf("unexpected law counter %+v", got)
	}
	if got := l.Totals(); got != (model.Counter{Correct: 1, Total: 2}) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestLedgerRecordWithoutCategories(t *testing.T) {
	l := NewLedger(nil, nil)
	l.Record(time.Date(2024, 3, 5, 23, 59, 0, 0, time.Local), nil, false)
	if got := l.Day("2024-03-05"); got.Total != 1 || got.Correct != 0 {
		t.Fatalf("unexpected day counter %+v", got)
	}
	if len(l.Categories) != 0 {
		t.Fatalf("expected no category entries, got %v", l.Categories)
	}
}

func TestLedgerMergeOverwrites(t *testing.T) {
	l := NewLedger(map[string]model.Counter{"2024-01-01": {Correct: 1, Total: 1}}, nil)
	l.Merge(
		map[string]model.Counter{
			"2024-01-01": {Correct: 4, Total: 5},
			"2024-01-02": {Correct: 9, Total: 2},
		},
		map[string]model.Counter{"tax": {Correct: -1, Total: 3}},
	)
	if got := l.Day("2024-01-01"); got != (model.Counter{Correct: 4, Total: 5}) {
		t.Fatalf("expected incoming value to win, got %+v", got)
	}
	if got := l.Day("2024-01-02"); got != (model.Counter{Correct: 2, Total: 2}) {
		t.Fatalf("expected correct capped at total, got %+v", got)
	}
	if got := l.Category("tax"); got != (model.Counter{Correct: 0, Total: 3}) {
		t.Fatalf("expected negative counter cleared, got %+v", got)
	}
}
