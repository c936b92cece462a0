// Package peers resolves average spending by category for a demographic cohort.
package peers

import (
	"context"
	"errors"

	"donghaeng/internal/core"
)

var (
	// ErrNoCohort is returned by a source that has no row for the requested cohort.
	ErrNoCohort = errors.New("no data for cohort")
	// ErrMalformedFeed is returned when the external feed cannot be used.
	ErrMalformedFeed = errors.New("malformed peer statistics feed")
)

// Source names where a PeerProfile came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceStatic   Source = "static"
	SourceFallback Source = "default"
)

// PeerProfile is read-only reference spending for an age band and gender.
// PerCategory always holds all standard categories.
type PeerProfile struct {
	AgeGroup    core.AgeGroup
	Gender      core.Gender
	PerCategory core.CategoryAmounts
	Source      Source
}

// Total sums the profile's categories.
func (p PeerProfile) Total() int64 {
	return p.PerCategory.Total()
}

// PeerDataSource yields peer profiles. Implementations may fail; Provider absorbs that.
type PeerDataSource interface {
	PeerProfile(ctx context.Context, group core.AgeGroup, gender core.Gender) (PeerProfile, error)
}

// complete fills missing standard categories with zero and drops anything else.
func complete(amounts core.CategoryAmounts) core.CategoryAmounts {
	out := make(core.CategoryAmounts, len(core.Categories))
	for _, c := range core.Categories {
		out[c] = amounts[c]
	}
	return out
}
