package stats

import "sort"

// TopCategories returns the n categories with the most answers.
func TopCategories(rows []CategoryRow, n int) []string {
	if n <= 0 || len(rows) == 0 {
		return nil
	}
	items := make([]CategoryRow, 0, len(rows))
	for _, r := range rows {
		if r.Total > 0 {
			items = append(items, r)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Total == items[j].Total {
			return items[i].Label < items[j].Label
		}
		return items[i].Total > items[j].Total
	})
	return labels(items, n)
}

func labels(rows []CategoryRow, n int) []string {
	n = min(n, len(rows))
	out := make([]string, 0, n)
	for _, r := range rows[:n] {
		out = append(out, r.Label)
	}
	return out
}
