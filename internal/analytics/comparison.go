package analytics

import "donghaeng/internal/core"

// CategoryComparison is one row of a user-vs-peer comparison.
type CategoryComparison struct {
	Category   core.Category
	UserAmount int64
	PeerAmount int64
	Difference int64 // UserAmount - PeerAmount
}

// Comparison holds every standard category, even when both sides are zero.
type Comparison struct {
	UserTotal  int64
	PeerTotal  int64
	Categories []CategoryComparison
}

// Compare sets a monthly aggregate against a peer cohort's per-category amounts.
func Compare(user MonthlyAggregate, peer core.CategoryAmounts) Comparison {
	cmp := Comparison{
		Categories: make([]CategoryComparison, 0, len(core.Categories)),
	}
	for _, c := range core.Categories {
		u := user.PerCategory[c].Total
		p := peer[c]
		cmp.Categories = append(cmp.Categories, CategoryComparison{
			Category:   c,
			UserAmount: u,
			PeerAmount: p,
			Difference: u - p,
		})
		cmp.UserTotal += u
		cmp.PeerTotal += p
	}
	return cmp
}
