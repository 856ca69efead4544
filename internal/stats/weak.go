package stats

import "sort"

// WeakCategories selects the lowest-accuracy categories that have answers.
// n <= 0 returns all of them.
func WeakCategories(rows []CategoryRow, n int) []string {
	candidates := make([]CategoryRow, 0, len(rows))
	for _, r := range rows {
		if r.Total > 0 {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := candidates[i].Accuracy(), candidates[j].Accuracy()
		if ai == aj {
			return candidates[i].Label < candidates[j].Label
		}
		return ai < aj
	})
	if n <= 0 {
		n = len(candidates)
	}
	return labels(candidates, n)
}
