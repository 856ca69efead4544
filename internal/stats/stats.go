package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

const sparkChars = " .:-=+*#%@"

// DailyRow is one calendar day of answer counters.
type DailyRow struct {
	Date    string
	Correct int
	Total   int
}

// Accuracy returns correct/total, or 0 for days without answers.
func (r DailyRow) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// DailyRows returns the last days ending at now, oldest first.
// Days without answers are returned with zero counters.
func (l *Ledger) DailyRows(days int, now time.Time) []DailyRow {
	if days <= 0 {
		return nil
	}
	now = now.In(time.Local)
	end := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.Local)
	rows := make([]DailyRow, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := end.AddDate(0, 0, -i).Format(DayLayout)
		c := l.Daily[key]
		rows = append(rows, DailyRow{Date: key, Correct: c.Correct, Total: c.Total})
	}
	return rows
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := i + 1
		if i >= window {
			sum -= values[i-window]
			den = window
		}
		out[i] = sum / float64(den)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		idx = max(0, min(idx, last))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals and the accuracy trend of a report.
func RenderSummary(w io.Writer, r Report) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Problems: %d (%d deleted)", r.Active, r.Deleted),
		fmt.Sprintf("Answers: %d", r.Totals.Total),
		fmt.Sprintf("Accuracy: %.2f%%", r.Totals.Accuracy()*100),
	}
	if busiest := TopCategories(r.Categories, 3); len(busiest) > 0 {
		lines = append(lines, "Most practiced: "+strings.Join(busiest, ", "))
	}
	if weak := WeakCategories(r.Categories, 3); len(weak) > 0 {
		lines = append(lines, "Weakest: "+strings.Join(weak, ", "))
	}
	if len(r.Days) > 0 {
		acc := make([]float64, len(r.Days))
		for i, d := range r.Days {
			acc[i] = d.Accuracy()
		}
		lines = append(lines, fmt.Sprintf("Trend (%dd): [%s]", len(r.Days), Sparkline(acc)))
	}
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderDaily prints one line per day.
func RenderDaily(w io.Writer, rows []DailyRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No daily stats.")
		return err
	}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Date,
			fmt.Sprintf("%d / %d", r.Correct, r.Total),
			formatPercent(r.Correct, r.Total),
		})
	}
	lines := append([]string{"Daily"}, formatTable([]string{"Date", "Correct", "Accuracy"}, tableRows, map[int]bool{1: true, 2: true})...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderCategories prints the category accuracy and mastery table.
func RenderCategories(w io.Writer, rows []CategoryRow, threshold float64) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No category stats.")
		return err
	}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Label,
			fmt.Sprintf("%d / %d", r.Correct, r.Total),
			formatPercent(r.Correct, r.Total),
			fmt.Sprintf("%d / %d", r.Mastered, r.Problems),
		})
	}
	headers := []string{"Category", "Correct", "Accuracy", fmt.Sprintf("Mastered (>=%g)", threshold)}
	lines := append([]string{"Categories"}, formatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true})...)
	lines = append(lines, "")
	return writeLines(w, lines)
}

func formatPercent(correct, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(correct)/float64(total)*100)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
