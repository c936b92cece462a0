// Package analytics implements the spending computations: category normalization,
// monthly aggregation, peer comparison, trend prediction and budget recommendation.
//
// Everything here is a pure function over in-memory data. Fetching transactions,
// profiles and peer statistics is the caller's job.
package analytics

import (
	"sort"
	"strings"
	"sync"

	"donghaeng/internal/core"
)

// DefaultMappings is the built-in raw label table. Stored mappings overlay it.
var DefaultMappings = map[string]core.Category{
	// 식비
	"식비":   core.Food,
	"음식":   core.Food,
	"외식":   core.Food,
	"식당":   core.Food,
	"카페":   core.Food,
	"커피":   core.Food,
	"배달":   core.Food,
	"식료품":  core.Food,
	"마트":   core.Food,
	"편의점":  core.Food,
	"식음료":  core.Food,
	"food": core.Food,

	// 교통
	"교통":        core.Transport,
	"교통비":       core.Transport,
	"대중교통":      core.Transport,
	"버스":        core.Transport,
	"지하철":       core.Transport,
	"택시":        core.Transport,
	"주유":        core.Transport,
	"자동차":       core.Transport,
	"교통/차량":     core.Transport,
	"transport": core.Transport,

	// 주거
	"주거":        core.Housing,
	"주거/통신":     core.Housing,
	"월세":        core.Housing,
	"관리비":       core.Housing,
	"공과금":       core.Housing,
	"전기":        core.Housing,
	"가스":        core.Housing,
	"수도":        core.Housing,
	"통신":        core.Housing,
	"통신비":       core.Housing,
	"housing":   core.Housing,
	"rent":      core.Housing,
	"utilities": core.Housing,

	// 의료
	"의료":      core.Medical,
	"의료/건강":   core.Medical,
	"병원":      core.Medical,
	"약국":      core.Medical,
	"건강":      core.Medical,
	"보건":      core.Medical,
	"medical": core.Medical,
	"health":  core.Medical,

	// 문화
	"문화":            core.Culture,
	"문화/여가":         core.Culture,
	"여가":            core.Culture,
	"오락":            core.Culture,
	"영화":            core.Culture,
	"공연":            core.Culture,
	"도서":            core.Culture,
	"여행":            core.Culture,
	"취미":            core.Culture,
	"오락문화":          core.Culture,
	"culture":       core.Culture,
	"entertainment": core.Culture,

	// 의류
	"의류":       core.Clothing,
	"의류/미용":    core.Clothing,
	"옷":        core.Clothing,
	"패션":       core.Clothing,
	"신발":       core.Clothing,
	"잡화":       core.Clothing,
	"의류신발":     core.Clothing,
	"clothing": core.Clothing,

	// 기타
	"기타":    core.Other,
	"other": core.Other,
}

// Mapping is a named raw label → category entry.
type Mapping struct {
	Label    string
	Category core.Category
}

// Normalizer resolves raw labels onto the standard categories.
//
// The table is mutable reference data; Normalize itself never changes state.
type Normalizer struct {
	mu    sync.RWMutex
	table map[string]core.Category
	// labels keeps the caller's original spelling for listing.
	labels map[string]string
}

// NewNormalizer builds a normalizer over DefaultMappings overlaid with overrides.
func NewNormalizer(overrides ...Mapping) *Normalizer {
	n := &Normalizer{
		table:  make(map[string]core.Category, len(DefaultMappings)+len(overrides)),
		labels: make(map[string]string, len(DefaultMappings)+len(overrides)),
	}
	for label, c := range DefaultMappings {
		n.set(label, c)
	}
	for _, m := range overrides {
		n.set(m.Label, m.Category)
	}
	return n
}

// MappingKey is the comparison key for a raw label: trimmed, lower-cased and
// with inner whitespace collapsed.
func MappingKey(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}

func (n *Normalizer) set(label string, c core.Category) {
	key := MappingKey(label)
	if key == "" || !c.IsValid() {
		return
	}
	n.table[key] = c
	n.labels[key] = strings.TrimSpace(label)
}

// Normalize returns the standard category for raw and whether a mapping matched.
// Unmatched labels resolve to Other; callers should log these as mapping gaps.
func (n *Normalizer) Normalize(raw string) (core.Category, bool) {
	key := MappingKey(raw)
	if key == "" {
		return core.Other, false
	}
	n.mu.RLock()
	c, ok := n.table[key]
	n.mu.RUnlock()
	if ok {
		return c, true
	}
	if c, err := core.ParseCategory(raw); err == nil {
		return c, true
	}
	return core.Other, false
}

// Set adds or replaces a mapping entry.
func (n *Normalizer) Set(label string, c core.Category) error {
	if MappingKey(label) == "" {
		return core.ErrEmptyCategory
	}
	if !c.IsValid() {
		return core.ErrInvalidCategory
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set(label, c)
	return nil
}

// Remove deletes a mapping entry. A label that is itself a category name or
// Korean category label still resolves to that category through ParseCategory.
// Restoring a built-in entry is left to the caller.
func (n *Normalizer) Remove(label string) bool {
	key := MappingKey(label)
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.table[key]; !ok {
		return false
	}
	delete(n.table, key)
	delete(n.labels, key)
	return true
}

// Mappings returns every entry sorted by category order then label.
func (n *Normalizer) Mappings() []Mapping {
	n.mu.RLock()
	out := make([]Mapping, 0, len(n.table))
	for key, c := range n.table {
		out = append(out, Mapping{Label: n.labels[key], Category: c})
	}
	n.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category.Index() < out[j].Category.Index()
		}
		return out[i].Label < out[j].Label
	})
	return out
}
