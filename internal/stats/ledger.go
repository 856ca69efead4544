// Package stats contains statistics calculations and reporting.
package stats

import (
	"time"

	"github.com/verte-zerg/kioku/internal/model"
)

// DayLayout is the key format of daily stats.
const DayLayout = "2006-01-02"

// DayKey returns the local calendar date of t.
func DayKey(t time.Time) string {
	return t.In(time.Local).Format(DayLayout)
}

// Ledger holds per-day and per-category answer counters.
type Ledger struct {
	Daily      map[string]model.Counter
	Categories map[string]model.Counter
}

// NewLedger returns a ledger over the given maps; nil maps are replaced.
func NewLedger(daily, categories map[string]model.Counter) *Ledger {
	if daily == nil {
		daily = map[string]model.Counter{}
	}
	if categories == nil {
		categories = map[string]model.Counter{}
	}
	return &Ledger{Daily: daily, Categories: categories}
}

// Record counts one graded answer on the day of at and on each category.
func (l *Ledger) Record(at time.Time, categories []string, correct bool) {
	day := DayKey(at)
	l.Daily[day] = bump(l.Daily[day], correct)
	for _, c := range categories {
		l.Categories[c] = bump(l.Categories[c], correct)
	}
}

func bump(c model.Counter, correct bool) model.Counter {
	c.Total++
	if correct {
		c.Correct++
	}
	return c
}

// Day returns the counter for a date key.
func (l *Ledger) Day(key string) model.Counter {
	return l.Daily[key]
}

// Category returns the counter for a label.
func (l *Ledger) Category(label string) model.Counter {
	return l.Categories[label]
}

// Merge copies entries from incoming, overwriting keys that already exist.
func (l *Ledger) Merge(daily, categories map[string]model.Counter) {
	for k, v := range daily {
		l.Daily[k] = sanitizeCounter(v)
	}
	for k, v := range categories {
		l.Categories[k] = sanitizeCounter(v)
	}
}

func sanitizeCounter(c model.Counter) model.Counter {
	if c.Total < 0 {
		c.Total = 0
	}
	if c.Correct < 0 {
		c.Correct = 0
	}
	if c.Correct > c.Total {
		c.Correct = c.Total
	}
	return c
}

// Totals sums every daily counter.
func (l *Ledger) Totals() model.Counter {
	var sum model.Counter
	for _, c := range l.Daily {
		sum.Correct += c.Correct
		sum.Total += c.Total
	}
	return sum
}
