// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kioku/internal/grading"
	"github.com/verte-zerg/kioku/internal/model"
	"github.com/verte-zerg/kioku/internal/problem"
	"github.com/verte-zerg/kioku/internal/scheduler"
)

// Quiz is the session the screen drives.
type Quiz interface {
	Next(ctx context.Context) (model.Problem, error)
	Grade(ctx context.Context, id string, mark model.Mark) (model.Problem, error)
	AnswerOX(ctx context.Context, id string, side model.Side) (grading.OXResult, error)
}

type phase int

const (
	phaseAsk phase = iota
	phaseRevealed
	phaseResult
	phaseDone
)

// Model implements the Bubble Tea quiz UI.
type Model struct {
	quiz     Quiz
	poolSize int

	width  int
	height int

	current model.Problem
	phase   phase
	ox      grading.OXResult
	notice  string

	answered int
	correct  int
}

var (
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	blankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	revealStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	explainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#BFBFBF")).Italic(true)
)

// NewModel constructs a quiz model and loads the first problem.
func NewModel(quiz Quiz, poolSize int) *Model {
	m := &Model{quiz: quiz, poolSize: poolSize}
	m.advance()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		m.handleKey(key)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(key string) {
	switch m.phase {
	case phaseAsk:
		if m.current.Type == model.TypeOX {
			switch key {
			case "o", "1":
				m.answerOX(model.SideO)
			case "x", "2":
				m.answerOX(model.SideX)
			}
			return
		}
		if key == " " || key == "enter" {
			m.phase = phaseRevealed
		}
	case phaseRevealed:
		switch key {
		case "g", "1":
			m.grade(model.MarkGood)
		case "p", "2":
			m.grade(model.MarkPartial)
		case "b", "3":
			m.grade(model.MarkBad)
		}
	case phaseResult:
		if key == " " || key == "enter" || key == "n" {
			m.advance()
		}
	}
}

func (m *Model) grade(mark model.Mark) {
	if _, err := m.quiz.Grade(context.Background(), m.current.ID, mark); err != nil {
		logErrf("failed to grade %s: %v\n", m.current.ID, err)
		m.notice = fmt.Sprintf("grading failed: %v", err)
		return
	}
	m.answered++
	if mark == model.MarkGood {
		m.correct++
	}
	m.advance()
}

func (m *Model) answerOX(side model.Side) {
	res, err := m.quiz.AnswerOX(context.Background(), m.current.ID, side)
	if err != nil {
		logErrf("failed to grade %s: %v\n", m.current.ID, err)
		m.notice = fmt.Sprintf("grading failed: %v", err)
		return
	}
	m.answered++
	if res.Correct {
		m.correct++
	}
	m.ox = res
	m.phase = phaseResult
}

func (m *Model) advance() {
	m.notice = ""
	m.ox = grading.OXResult{}
	p, err := m.quiz.Next(context.Background())
	if err != nil {
		m.phase = phaseDone
		m.current = model.Problem{}
		switch {
		case errors.Is(err, scheduler.ErrEmptyPool):
			m.notice = "No problems left in this session."
		default:
			m.notice = err.Error()
		}
		return
	}
	m.current = p
	m.phase = phaseAsk
}

// View implements tea.Model.
func (m *Model) View() string {
	body := m.renderBody()
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + footer
	}
	content := lipgloss.NewStyle().Width(m.contentWidth()).Render(body)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return placed + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(int(float64(m.width)*0.70), 1)
}

func (m *Model) renderBody() string {
	if m.phase == phaseDone {
		return headerStyle.Render(m.notice)
	}
	p := m.current
	header := fmt.Sprintf("[%s] %s · score %.1f", strings.ToUpper(string(p.Type)), categoryLabel(p.Categories), p.Score)
	var spans []span
	switch p.Type {
	case model.TypeMask:
		for _, seg := range problem.Segments(p.HTML, m.phase != phaseAsk) {
			style := textStyle
			if seg.Mask {
				style = blankStyle
				if m.phase != phaseAsk {
					style = revealStyle
				}
			}
			spans = append(spans, span{text: seg.Text, style: style})
		}
	case model.TypeQA:
		spans = append(spans, span{text: p.Question, style: textStyle})
		if m.phase != phaseAsk {
			spans = append(spans, span{text: "\n\n" + p.Answer, style: revealStyle})
		}
	case model.TypeOX:
		spans = append(spans, span{text: p.Question, style: textStyle})
		if m.phase == phaseResult {
			spans = append(spans, m.oxSpans()...)
		}
	}
	text := wrapStyledRunes(buildStyledRunes(trimSpans(spans)), m.contentWidth())
	out := headerStyle.Render(header) + "\n\n" + text
	if m.notice != "" {
		out += "\n\n" + wrongStyle.Render(m.notice)
	}
	return out
}

func (m *Model) oxSpans() []span {
	spans := []span{}
	if m.ox.Correct {
		spans = append(spans, span{text: "\n\n○ Correct", style: revealStyle})
	} else {
		spans = append(spans, span{text: fmt.Sprintf("\n\n× Wrong, the answer is %s", strings.ToUpper(string(m.ox.CorrectSide))), style: wrongStyle})
	}
	if m.ox.Explanation != "" {
		spans = append(spans, span{text: "\n" + m.ox.Explanation, style: explainStyle})
	}
	return spans
}

// trimSpans drops leading and trailing whitespace of the flattened text.
func trimSpans(spans []span) []span {
	for len(spans) > 0 {
		spans[0].text = strings.TrimLeft(spans[0].text, " \t\r\n")
		if spans[0].text != "" {
			break
		}
		spans = spans[1:]
	}
	for len(spans) > 0 {
		last := len(spans) - 1
		spans[last].text = strings.TrimRight(spans[last].text, " \t\r\n")
		if spans[last].text != "" {
			break
		}
		spans = spans[:last]
	}
	return spans
}

func categoryLabel(categories []string) string {
	if len(categories) == 0 {
		return "uncategorized"
	}
	return strings.Join(categories, ", ")
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Pool %d", m.poolSize)}
	acc := 0.0
	if m.answered > 0 {
		acc = float64(m.correct) / float64(m.answered) * 100
	}
	segments = append(segments, fmt.Sprintf("Answered %d · %.1f%%", m.answered, acc))
	switch m.phase {
	case phaseAsk:
		if m.current.Type == model.TypeOX {
			segments = append(segments, "o/x answer")
		} else {
			segments = append(segments, "space reveal")
		}
	case phaseRevealed:
		segments = append(segments, "g good · p partial · b bad")
	case phaseResult:
		segments = append(segments, "space next")
	}
	segments = append(segments, "q quit")
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
