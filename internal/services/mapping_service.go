package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
	"donghaeng/internal/ports"
)

// LoadNormalizer builds a normalizer from the built-in table overlaid with the
// mappings persisted in store.
func LoadNormalizer(ctx context.Context, store ports.MappingStore) (*analytics.Normalizer, error) {
	overrides, err := store.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category mappings: %w", err)
	}
	return analytics.NewNormalizer(overrides...), nil
}

// MappingService edits the category mapping table. Every change is written to
// the store first and then applied to the shared normalizer.
type MappingService struct {
	store      ports.Store
	normalizer *analytics.Normalizer
	logger     *applog.Logger
}

func NewMappingService(store ports.Store, normalizer *analytics.Normalizer, logger *applog.Logger) *MappingService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &MappingService{store: store, normalizer: normalizer, logger: logger.WithComponent(applog.ComponentTransaction)}
}

// ListMappings returns the effective table, built-in entries included.
func (s *MappingService) ListMappings() []analytics.Mapping {
	return s.normalizer.Mappings()
}

// SetMapping adds or replaces the mapping for label.
func (s *MappingService) SetMapping(ctx context.Context, label, category string) (analytics.Mapping, error) {
	c, err := core.ParseCategory(category)
	if err != nil {
		return analytics.Mapping{}, err
	}
	m := analytics.Mapping{Label: strings.TrimSpace(label), Category: c}
	if analytics.MappingKey(m.Label) == "" {
		return analytics.Mapping{}, core.ErrEmptyCategory
	}

	if err := s.store.SaveMapping(ctx, m); err != nil {
		return analytics.Mapping{}, fmt.Errorf("save mapping: %w", err)
	}
	if err := s.normalizer.Set(m.Label, m.Category); err != nil {
		return analytics.Mapping{}, err
	}

	s.logger.InfoContext(ctx, "Category mapping saved",
		applog.FieldOperation, applog.OpUpdate, applog.FieldRawCategory, m.Label, applog.FieldCategory, string(c))
	return m, nil
}

// DeleteMapping removes a stored mapping. A label that also has a built-in
// entry reverts to it; built-in entries alone cannot be deleted.
func (s *MappingService) DeleteMapping(ctx context.Context, label string) error {
	if err := s.store.DeleteMapping(ctx, label); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete mapping: %w", err)
	}

	s.normalizer.Remove(label)
	if c, ok := defaultMapping(label); ok {
		_ = s.normalizer.Set(label, c)
	}

	s.logger.InfoContext(ctx, "Category mapping deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldRawCategory, label)
	return nil
}

// ListMappingGaps returns unmapped labels, most frequent first.
func (s *MappingService) ListMappingGaps(ctx context.Context) ([]ports.MappingGap, error) {
	gaps, err := s.store.ListMappingGaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mapping gaps: %w", err)
	}
	return gaps, nil
}

func defaultMapping(label string) (core.Category, bool) {
	key := analytics.MappingKey(label)
	for l, c := range analytics.DefaultMappings {
		if analytics.MappingKey(l) == key {
			return c, true
		}
	}
	return "", false
}
