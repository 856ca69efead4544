// Package model defines shared data structures.
package model

import "time"

// ProblemType identifies the kind of study item.
type ProblemType string

const (
	TypeMask ProblemType = "mask"
	TypeQA   ProblemType = "qa"
	TypeOX   ProblemType = "ox"
)

// AllTypes lists every problem type in display order.
var AllTypes = []ProblemType{TypeMask, TypeQA, TypeOX}

// Valid reports whether t is a known problem type.
func (t ProblemType) Valid() bool {
	switch t {
	case TypeMask, TypeQA, TypeOX:
		return true
	}
	return false
}

// Mark is a grading symbol for a presented problem.
type Mark string

const (
	MarkGood    Mark = "good"
	MarkPartial Mark = "partial"
	MarkBad     Mark = "bad"
)

// Side is the chosen or correct side of an ox problem.
type Side string

const (
	SideO Side = "o"
	SideX Side = "x"
)

// Problem is one study item.
type Problem struct {
	ID         string      `json:"id"`
	Type       ProblemType `json:"type"`
	Categories []string    `json:"categories"`

	// mask
	HTML    string   `json:"html,omitempty"`
	Answers []string `json:"answers,omitempty"`

	// qa and ox
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`

	// ox
	Correct     Side   `json:"correct,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	Summary      string  `json:"summary"`
	Score        float64 `json:"score"`
	AnswerCount  int     `json:"answerCount"`
	CorrectCount int     `json:"correctCount"`
	Deleted      bool    `json:"deleted"`
	CreatedAt    int64   `json:"createdAt"`
	UpdatedAt    int64   `json:"updatedAt"`
}

// HasCategory reports whether the problem carries any of the given labels.
func (p Problem) HasCategory(labels []string) bool {
	for _, c := range p.Categories {
		for _, l := range labels {
			if c == l {
				return true
			}
		}
	}
	return false
}

// Content holds the type-specific fields an editor may replace.
type Content struct {
	HTML        string
	Question    string
	Answer      string
	Correct     Side
	Explanation string
}

// Filter constrains which problems enter a session pool.
// A nil MaxScore means no score gate.
type Filter struct {
	Categories []string      `json:"categories,omitempty"`
	Types      []ProblemType `json:"types,omitempty"`
	MaxScore   *float64      `json:"maxScore,omitempty"`
}

// Counter is a correct/total pair used by both stat ledgers.
type Counter struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns correct/total, or 0 when nothing was answered.
func (c Counter) Accuracy() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// ForcedEntry is a pending forced retry.
type ForcedEntry struct {
	ID    string `json:"id"`
	Delay int    `json:"delay"`
}

// SchedulerState is the per-session queue state.
type SchedulerState struct {
	RecentQueue []string      `json:"recentQueue"`
	ForcedQueue []ForcedEntry `json:"forcedQueue"`
}

// Reset clears both queues.
func (s *SchedulerState) Reset() {
	s.RecentQueue = []string{}
	s.ForcedQueue = []ForcedEntry{}
}

// Config defines quiz session settings.
type Config struct {
	Filter Filter
	Seed   int64
}

// StatsConfig defines options for stats output.
type StatsConfig struct {
	Days      int
	Threshold float64
	Now       time.Time
}

// Bundle is the export/import document.
type Bundle struct {
	Problems      []Problem          `json:"problems"`
	DailyStats    map[string]Counter `json:"dailyStats"`
	CategoryStats map[string]Counter `json:"categoryStats"`
}
