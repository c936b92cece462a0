package peers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"donghaeng/internal/core"
)

const (
	rowsCacheKey = "peer-rows"
	// maxFeedBytes bounds how much of the feed body is read.
	maxFeedBytes = 1 << 20
)

// FeedRow is one cohort × category line of the external statistics feed.
type FeedRow struct {
	AgeGroup string  `json:"ageGroup"`
	Gender   string  `json:"gender"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type feedResponse struct {
	Rows []FeedRow `json:"rows"`
}

// CategoryResolver maps a raw category label onto a standard category.
type CategoryResolver interface {
	Normalize(raw string) (core.Category, bool)
}

// LiveConfig configures a LiveSource.
type LiveConfig struct {
	URL      string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// LiveSource reads cohort averages from an external HTTP feed.
// The raw rows are cached for CacheTTL; every failure is returned to the caller.
type LiveSource struct {
	url      string
	apiKey   string
	client   *http.Client
	cache    *cache.Cache
	resolver CategoryResolver
}

// NewLiveSource creates a LiveSource. A zero CacheTTL disables caching.
func NewLiveSource(cfg LiveConfig, resolver CategoryResolver) *LiveSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &LiveSource{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		resolver: resolver,
	}
	if cfg.CacheTTL > 0 {
		s.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return s
}

// PeerProfile implements PeerDataSource.
func (s *LiveSource) PeerProfile(ctx context.Context, group core.AgeGroup, gender core.Gender) (PeerProfile, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return PeerProfile{}, err
	}

	amounts := make(core.CategoryAmounts, len(core.Categories))
	matched := false
	for _, row := range rows {
		g, ok := core.ParseAgeGroup(row.AgeGroup)
		if !ok || g != group {
			continue
		}
		gen, err := core.ParseGender(row.Gender)
		if err != nil || gen != gender {
			continue
		}
		if row.Amount < 0 {
			return PeerProfile{}, fmt.Errorf("%w: negative amount for %s/%s %q", ErrMalformedFeed, group, gender, row.Category)
		}
		c, _ := s.resolver.Normalize(row.Category)
		amounts[c] += core.RoundWon(row.Amount)
		matched = true
	}
	if !matched {
		return PeerProfile{}, fmt.Errorf("live feed %s/%s: %w", group, gender, ErrNoCohort)
	}

	return PeerProfile{
		AgeGroup:    group,
		Gender:      gender,
		PerCategory: complete(amounts),
		Source:      SourceLive,
	}, nil
}

func (s *LiveSource) rows(ctx context.Context) ([]FeedRow, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(rowsCacheKey); found {
			return cached.([]FeedRow), nil
		}
	}

	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(rowsCacheKey, rows, cache.DefaultExpiration)
	}
	return rows, nil
}

func (s *LiveSource) fetch(ctx context.Context) ([]FeedRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build peer stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch peer stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch peer stats: unexpected status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("%w: content type %q", ErrMalformedFeed, ct)
	}

	var body feedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	if len(body.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedFeed)
	}
	return body.Rows, nil
}
