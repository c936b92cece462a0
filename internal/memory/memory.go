// Package memory is an in-process store for development and tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	"donghaeng/internal/ports"
)

// SeedMappingsFile is read by NewFromFiles, one "label=Category" pair per line.
const SeedMappingsFile = "seed_mappings.txt"

type Store struct {
	mu       sync.Mutex
	txs      map[string]core.Transaction
	profiles map[string]core.UserProfile
	mappings map[string]analytics.Mapping
	gaps     map[string]ports.MappingGap
}

func New(mappings ...analytics.Mapping) *Store {
	s := &Store{
		txs:      make(map[string]core.Transaction),
		profiles: make(map[string]core.UserProfile),
		mappings: make(map[string]analytics.Mapping),
		gaps:     make(map[string]ports.MappingGap),
	}
	for _, m := range mappings {
		if key := analytics.MappingKey(m.Label); key != "" && m.Category.IsValid() {
			s.mappings[key] = analytics.Mapping{Label: strings.TrimSpace(m.Label), Category: m.Category}
		}
	}
	return s
}

// NewFromFiles seeds mapping overrides from base/seed_mappings.txt when present.
// Malformed lines are skipped.
func NewFromFiles(base string) *Store {
	var seeds []analytics.Mapping
	for _, line := range readLines(filepath.Join(base, SeedMappingsFile)) {
		label, cat, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		c, err := core.ParseCategory(cat)
		if err != nil {
			continue
		}
		seeds = append(seeds, analytics.Mapping{Label: label, Category: c})
	}
	return New(seeds...)
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		return fmt.Errorf("add transaction: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.OwnerID != ownerID {
		return ports.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.OwnerID != ownerID {
			continue
		}
		if t.OccurredOn.Before(from.Time) || t.OccurredOn.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.OccurredOn.Equal(b.OccurredOn.Time) {
			return a.OccurredOn.Before(b.OccurredOn.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, ownerID string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[ownerID]
	if !ok {
		return core.UserProfile{}, ports.ErrNotFound
	}
	return p, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.OwnerID] = p
	return nil
}

func (s *Store) ListMappings(_ context.Context) ([]analytics.Mapping, error) {
	s.mu.Lock()
	out := make([]analytics.Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, m)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) SaveMapping(_ context.Context, m analytics.Mapping) error {
	key := analytics.MappingKey(m.Label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	if !m.Category.IsValid() {
		return core.ErrInvalidCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[key] = analytics.Mapping{Label: strings.TrimSpace(m.Label), Category: m.Category}
	return nil
}

func (s *Store) DeleteMapping(_ context.Context, label string) error {
	key := analytics.MappingKey(label)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mappings[key]; !ok {
		return ports.ErrNotFound
	}
	delete(s.mappings, key)
	return nil
}

func (s *Store) RecordMappingGap(_ context.Context, label string, seenAt time.Time) error {
	key := analytics.MappingKey(label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gaps[key]
	g.Label = strings.TrimSpace(label)
	g.Count++
	if seenAt.After(g.LastSeen) {
		g.LastSeen = seenAt
	}
	s.gaps[key] = g
	return nil
}

// ListMappingGaps returns gaps, most frequent first.
func (s *Store) ListMappingGaps(_ context.Context) ([]ports.MappingGap, error) {
	s.mu.Lock()
	out := make([]ports.MappingGap, 0, len(s.gaps))
	for _, g := range s.gaps {
		out = append(out, g)
	}
	s.mu.Unlock()
	sortGaps(out)
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func sortGaps(gaps []ports.MappingGap) {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Count != gaps[j].Count {
			return gaps[i].Count > gaps[j].Count
		}
		return gaps[i].Label < gaps[j].Label
	})
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

var _ ports.Store = (*Store)(nil)
