package stats

import (
	"sort"
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

// DefaultDays is the length of the daily report.
const DefaultDays = 30

// DefaultThreshold is the score at which a problem counts as mastered.
const DefaultThreshold = 3.0

// CategoryRow joins the answer counters of a category with its mastery counts.
type CategoryRow struct {
	Label    string
	Correct  int
	Total    int
	Problems int
	Mastered int
}

// Accuracy returns correct/total, or 0 when nothing was answered.
func (r CategoryRow) Accuracy() float64 {
	return model.Counter{Correct: r.Correct, Total: r.Total}.Accuracy()
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Days       []DailyRow
	Categories []CategoryRow
	Totals     model.Counter
	Active     int
	Deleted    int
	Threshold  float64
}

// BuildReport prepares the daily and category views from the ledger and problems.
func BuildReport(l *Ledger, problems []model.Problem, cfg model.StatsConfig) Report {
	days := cfg.Days
	if days <= 0 {
		days = DefaultDays
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := Report{
		Days:      l.DailyRows(days, now),
		Totals:    l.Totals(),
		Threshold: threshold,
	}
	for _, p := range problems {
		if p.Deleted {
			r.Deleted++
		} else {
			r.Active++
		}
	}
	r.Categories = CategoryRows(l, problems, threshold)
	return r
}

// CategoryRows lists every category that has answers or live problems, sorted by label.
// Mastered counts non-deleted problems whose score reaches threshold.
func CategoryRows(l *Ledger, problems []model.Problem, threshold float64) []CategoryRow {
	byLabel := map[string]*CategoryRow{}
	row := func(label string) *CategoryRow {
		r, ok := byLabel[label]
		if !ok {
			r = &CategoryRow{Label: label}
			byLabel[label] = r
		}
		return r
	}
	for label, c := range l.Categories {
		r := row(label)
		r.Correct, r.Total = c.Correct, c.Total
	}
	for _, p := range problems {
		if p.Deleted {
			continue
		}
		for _, label := range p.Categories {
			r := row(label)
			r.Problems++
			if p.Score >= threshold {
				r.Mastered++
			}
		}
	}

	rows := make([]CategoryRow, 0, len(byLabel))
	for _, r := range byLabel {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Label < rows[j].Label
	})
	return rows
}
