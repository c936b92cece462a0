package peers

import (
	"context"

	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
)

// Provider resolves a cohort's profile from its sources in order, falling back
// to the default cohort. GetPeerProfile never fails.
type Provider struct {
	live   PeerDataSource // nil when no feed is configured
	static PeerDataSource
	logger *applog.Logger
}

// NewProvider builds a provider. live may be nil.
func NewProvider(live, static PeerDataSource, logger *applog.Logger) *Provider {
	if static == nil {
		static = NewStaticSource()
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Provider{live: live, static: static, logger: logger.WithComponent(applog.ComponentPeers)}
}

// GetPeerProfile returns the profile for group/gender. An unknown gender is
// treated as the default cohort's gender.
func (p *Provider) GetPeerProfile(ctx context.Context, group core.AgeGroup, gender core.Gender) PeerProfile {
	if gender != core.Male && gender != core.Female {
		gender = DefaultCohort.Gender
	}

	fields := applog.NewFields().WithCohort(string(group), string(gender))

	if p.live != nil {
		profile, err := p.live.PeerProfile(ctx, group, gender)
		if err == nil {
			return profile
		}
		p.logger.WarnContext(ctx, "Live peer statistics unavailable, using built-in table",
			fields.WithError(err, applog.ErrorTypeNetwork).WithOperation(applog.OpFetch).ToSlice()...)
	}

	if profile, err := p.static.PeerProfile(ctx, group, gender); err == nil {
		return profile
	}

	p.logger.WarnContext(ctx, "No peer data for cohort, using default cohort",
		applog.NewFields().WithCohort(string(group), string(gender)).ToSlice()...)
	profile, err := p.static.PeerProfile(ctx, DefaultCohort.AgeGroup, DefaultCohort.Gender)
	if err != nil {
		// the built-in table always carries the default cohort; this only
		// happens with a custom static source
		profile = PeerProfile{AgeGroup: DefaultCohort.AgeGroup, Gender: DefaultCohort.Gender, PerCategory: complete(nil)}
	}
	profile.Source = SourceFallback
	return profile
}
