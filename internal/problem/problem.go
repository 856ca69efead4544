// Package problem holds the in-memory problem collection and authoring helpers.
package problem

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/lithammer/shortuuid/v4"

	"github.com/verte-zerg/kioku/internal/model"
)

const summaryLen = 20

// Score bounds.
const (
	MinScore = -5.0
	MaxScore = 10.0
)

var (
	// ErrEmptyContent is returned when a problem is created or edited without its required text.
	ErrEmptyContent = errors.New("problem content is empty")
	// ErrNotFound is returned for unknown problem ids.
	ErrNotFound = errors.New("problem not found")
	// ErrDuplicateID is returned when adding a problem whose id already exists.
	ErrDuplicateID = errors.New("problem id already exists")
)

// NewID returns a fresh problem id.
func NewID() string {
	return "p-" + shortuuid.New()
}

// NewMask creates a mask problem from sanitized HTML.
func NewMask(htmlBody string, categories []string, now time.Time) (model.Problem, error) {
	body := SanitizeHTML(strings.TrimSpace(htmlBody))
	if strings.TrimSpace(body) == "" {
		return model.Problem{}, ErrEmptyContent
	}
	p := newProblem(model.TypeMask, categories, now)
	p.HTML = body
	p.Answers = ExtractorFor(model.TypeMask).ExtractAnswers(p)
	p.Summary = Summary(p)
	return p, nil
}

// NewQA creates a question/answer problem.
func NewQA(question, answer string, categories []string, now time.Time) (model.Problem, error) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return model.Problem{}, ErrEmptyContent
	}
	p := newProblem(model.TypeQA, categories, now)
	p.Question = question
	p.Answer = answer
	p.Summary = Summary(p)
	return p, nil
}

// NewOX creates a true/false problem. Any side other than x is stored as o.
func NewOX(question string, correct model.Side, explanation string, categories []string, now time.Time) (model.Problem, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.Problem{}, ErrEmptyContent
	}
	p := newProblem(model.TypeOX, categories, now)
	p.Question = question
	p.Correct = normalizeSide(correct)
	p.Explanation = strings.TrimSpace(explanation)
	p.Summary = Summary(p)
	return p, nil
}

func newProblem(t model.ProblemType, categories []string, now time.Time) model.Problem {
	ts := now.UnixMilli()
	return model.Problem{
		ID:         NewID(),
		Type:       t,
		Categories: NormalizeCategories(categories),
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func normalizeSide(s model.Side) model.Side {
	if s == model.SideX {
		return model.SideX
	}
	return model.SideO
}

// ApplyContent replaces the editable fields of p. Type is never changed.
func ApplyContent(p *model.Problem, c model.Content, categories []string, now time.Time) error {
	switch p.Type {
	case model.TypeQA:
		q := strings.TrimSpace(c.Question)
		a := strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			return ErrEmptyContent
		}
		p.Question = q
		p.Answer = a
	case model.TypeOX:
		q := strings.TrimSpace(c.Question)
		if q == "" {
			return ErrEmptyContent
		}
		p.Question = q
		p.Correct = normalizeSide(c.Correct)
		p.Explanation = strings.TrimSpace(c.Explanation)
	default:
		body := SanitizeHTML(strings.TrimSpace(c.HTML))
		if strings.TrimSpace(body) == "" {
			return ErrEmptyContent
		}
		p.HTML = body
		p.Answers = ExtractorFor(model.TypeMask).ExtractAnswers(*p)
	}
	p.Categories = NormalizeCategories(categories)
	p.Summary = Summary(*p)
	p.UpdatedAt = now.UnixMilli()
	return nil
}

// Normalize fills defaults on a problem read from storage or an import.
func Normalize(p *model.Problem) {
	if !p.Type.Valid() {
		p.Type = model.TypeMask
	}
	if p.AnswerCount < 0 {
		p.AnswerCount = 0
	}
	if p.CorrectCount < 0 {
		p.CorrectCount = 0
	}
	if p.CorrectCount > p.AnswerCount {
		p.CorrectCount = p.AnswerCount
	}
	p.Score = ClampScore(p.Score)
	p.Categories = NormalizeCategories(p.Categories)
	if p.Type == model.TypeOX {
		p.Correct = normalizeSide(p.Correct)
	}
	if p.Summary == "" {
		p.Summary = Summary(*p)
	}
}

// ParseCategories splits comma-separated input into labels.
func ParseCategories(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return NormalizeCategories(strings.Split(s, ","))
}

// NormalizeCategories trims labels and drops empties and duplicates, keeping first occurrence.
func NormalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// UnionCategories returns a followed by labels of b not already in a.
func UnionCategories(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormalizeCategories(merged)
}

// Summary returns the first characters of the problem text with whitespace removed.
func Summary(p model.Problem) string {
	switch p.Type {
	case model.TypeQA:
		return summaryFromText(p.Question, "")
	case model.TypeOX:
		return summaryFromText(p.Question, " (OX)")
	default:
		return summaryFromText(TextContent(p.HTML), "")
	}
}

func summaryFromText(text, suffix string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if compact == "" {
		return "(empty)"
	}
	runes := []rune(compact)
	if len(runes) > summaryLen {
		runes = runes[:summaryLen]
	}
	return string(runes) + suffix
}

// ClampScore bounds a score to [MinScore, MaxScore]. NaN becomes 0.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(MaxScore, math.Max(MinScore, v))
}
