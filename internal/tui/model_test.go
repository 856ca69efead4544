package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/kioku/internal/grading"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/scheduler"
)

type scriptedQuiz struct {
	queue  []model.Problem
	marks  []model.Mark
	sides  []model.Side
	result grading.OXResult
}

func (q *scriptedQuiz) Next(context.Context) (model.Problem, error) {
	if len(q.queue) == 0 {
		return model.Problem{}, scheduler.ErrEmptyPool
	}
	p := q.queue[0]
	q.queue = q.queue[1:]
	return p, nil
}

func (q *scriptedQuiz) Grade(_ context.Context, _ string, mark model.Mark) (model.Problem, error) {
	q.marks = append(q.marks, mark)
	return model.Problem{}, nil
}

func (q *scriptedQuiz) AnswerOX(_ context.Context, _ string, side model.Side) (grading.OXResult, error) {
	q.sides = append(q.sides, side)
	return q.result, nil
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestQuizRevealThenGrade(t *testing.T) {
	quiz := &scriptedQuiz{queue: []model.Problem{
		{ID: "m1", Type: model.TypeMask, HTML: `Rate is <span class="mask">10%</span>`},
		{ID: "q1", Type: model.TypeQA, Question: "Q?", Answer: "A!"},
	}}
	m := NewModel(quiz, 2)

	if view := m.View(); !strings.Contains(view, "[___]") || strings.Contains(view, "10%") {
		t.Fatalf("expected hidden mask, got %q", view)
	}
	m.Update(keyRunes("g"))
	if len(quiz.marks) != 0 {
		t.Fatalf("grading before reveal must be ignored")
	}
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if view := m.View(); !strings.Contains(view, "[10%]") {
		t.Fatalf("expected revealed mask, got %q", view)
	}
	m.Update(keyRunes("b"))
	if len(quiz.marks) != 1 || quiz.marks[0] != model.MarkBad {
		t.Fatalf("expected bad mark, got %v", quiz.marks)
	}
	if m.current.ID != "q1" || m.phase != phaseAsk {
		t.Fatalf("expected next problem, got %+v", m.current)
	}
	if view := m.View(); strings.Contains(view, "A!") {
		t.Fatalf("answer must stay hidden before reveal")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRunes("g"))
	if m.phase != phaseDone || m.answered != 2 || m.correct != 1 {
		t.Fatalf("unexpected final state phase=%d answered=%d correct=%d", m.phase, m.answered, m.correct)
	}
	if view := m.View(); !strings.Contains(view, "No problems left") {
		t.Fatalf("expected done notice, got %q", view)
	}
}

func TestQuizOXShowsExplanation(t *testing.T) {
	quiz := &scriptedQuiz{
		queue:  []model.Problem{{ID: "o1", Type: model.TypeOX, Question: "Sky is green"}},
		result: grading.OXResult{Mark: model.MarkBad, CorrectSide: model.SideX, Explanation: "It is blue."},
	}
	m := NewModel(quiz, 1)
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.phase != phaseAsk {
		t.Fatalf("space must not reveal ox problems")
	}
	m.Update(keyRunes("o"))
	if len(quiz.sides) != 1 || quiz.sides[0] != model.SideO {
		t.Fatalf("expected o answer, got %v", quiz.sides)
	}
	view := m.View()
	if !strings.Contains(view, "the answer is X") || !strings.Contains(view, "It is blue.") {
		t.Fatalf("expected result with explanation, got %q", view)
	}
	m.Update(keyRunes("n"))
	if m.phase != phaseDone {
		t.Fatalf("expected session to finish")
	}
}

func TestQuizQuitKeys(t *testing.T) {
	m := NewModel(&scriptedQuiz{}, 0)
	for _, msg := range []tea.KeyMsg{keyRunes("q"), {Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("expected quit command for %q", msg.String())
		}
	}
}
