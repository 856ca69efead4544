// Package grading applies answer marks to problems and their statistics.
package grading

import (
	"errors"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
)

var (
	// ErrInvalidMark is returned for marks outside good/partial/bad.
	ErrInvalidMark = errors.New("invalid grading mark")
	// ErrInvalidSide is returned for ox answers other than o or x.
	ErrInvalidSide = errors.New("invalid ox side")
	// ErrNotOX is returned when an ox answer is given for another problem type.
	ErrNotOX = errors.New("problem is not an ox problem")
	// ErrManualOX is returned when an ox problem is graded with a manual mark.
	ErrManualOX = errors.New("ox problems are graded from the chosen side")
)

// Recorder receives one event per graded answer.
type Recorder interface {
	Record(at time.Time, categories []string, correct bool)
}

// RetryQueue receives problems that must come back soon.
type RetryQueue interface {
	EnqueueRetry(id string)
}

// Engine grades answers.
type Engine struct {
	ledger  Recorder
	retries RetryQueue
	now     func() time.Time
}

// New returns an Engine using the wall clock.
func New(ledger Recorder, retries RetryQueue) *Engine {
	return NewWithClock(ledger, retries, time.Now)
}

// NewWithClock returns an Engine using now for timestamps and day keys.
func NewWithClock(ledger Recorder, retries RetryQueue, now func() time.Time) *Engine {
	return &Engine{ledger: ledger, retries: retries, now: now}
}

// Delta returns the score change for a mark.
func Delta(mark model.Mark) (float64, bool) {
	switch mark {
	case model.MarkGood:
		return 1, true
	case model.MarkPartial:
		return -0.5, true
	case model.MarkBad:
		return -1, true
	}
	return 0, false
}

// Apply grades a mask or qa problem. Invalid marks leave everything untouched.
func (e *Engine) Apply(p *model.Problem, mark model.Mark) error {
	if p.Type == model.TypeOX {
		return ErrManualOX
	}
	return e.apply(p, mark)
}

// OXResult describes an auto-graded ox answer.
type OXResult struct {
	Mark        model.Mark
	Correct     bool
	CorrectSide model.Side
	Explanation string
}

// ApplyOX grades an ox problem by comparing side with the stored correct side.
func (e *Engine) ApplyOX(p *model.Problem, side model.Side) (OXResult, error) {
	if p.Type != model.TypeOX {
		return OXResult{}, ErrNotOX
	}
	if side != model.SideO && side != model.SideX {
		return OXResult{}, ErrInvalidSide
	}
	correctSide := model.SideO
	if p.Correct == model.SideX {
		correctSide = model.SideX
	}
	res := OXResult{
		Mark:        model.MarkBad,
		Correct:     side == correctSide,
		CorrectSide: correctSide,
		Explanation: p.Explanation,
	}
	if res.Correct {
		res.Mark = model.MarkGood
	}
	if err := e.apply(p, res.Mark); err != nil {
		return OXResult{}, err
	}
	return res, nil
}

func (e *Engine) apply(p *model.Problem, mark model.Mark) error {
	delta, ok := Delta(mark)
	if !ok {
		return ErrInvalidMark
	}
	now := e.now()
	good := mark == model.MarkGood

	p.Score = problem.ClampScore(p.Score + delta)
	p.AnswerCount++
	if good {
		p.CorrectCount++
	}
	p.UpdatedAt = now.UnixMilli()

	if mark == model.MarkBad && e.retries != nil {
		e.retries.EnqueueRetry(p.ID)
	}
	if e.ledger != nil {
		e.ledger.Record(now, p.Categories, good)
	}
	return nil
}
