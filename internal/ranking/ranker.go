// Package ranking orders frequency rows for display.
package ranking

import (
	"sort"

	"github.com/hyperjump/kazoeru/internal/models"
)

// Rank returns rows sorted by unrounded rate, highest first. Equal rates
// are ordered by scope name and then work name, so the order never depends
// on the input order. Rank fields are set to 1-based positions. The input
// slice is not reordered.
func Rank(rows []*models.ResultRow) []*models.ResultRow {
	out := make([]*models.ResultRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	for i, r := range out {
		r.Rank = i + 1
	}
	return out
}

func less(a, b *models.ResultRow) bool {
	if a.Rate != b.Rate {
		return a.Rate > b.Rate
	}
	if a.Scope != b.Scope {
		return a.Scope < b.Scope
	}
	return a.Work < b.Work
}

// Top returns at most n leading rows of ranked. n <= 0 means all of them.
func Top(ranked []*models.ResultRow, n int) []*models.ResultRow {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
