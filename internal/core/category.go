package core

import (
	"fmt"
	"strings"
)

// Category is one of the seven standard spending buckets every raw label resolves to.
type Category string

const (
	Food      Category = "Food"
	Transport Category = "Transport"
	Housing   Category = "Housing"
	Medical   Category = "Medical"
	Culture   Category = "Culture"
	Clothing  Category = "Clothing"
	Other     Category = "Other"
)

// Categories lists the standard categories in display order.
var Categories = [...]Category{Food, Transport, Housing, Medical, Culture, Clothing, Other}

var categoryLabels = map[Category]string{
	Food:      "식비",
	Transport: "교통",
	Housing:   "주거",
	Medical:   "의료",
	Culture:   "문화",
	Clothing:  "의류",
	Other:     "기타",
}

// IsValid reports whether c is one of the standard categories.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the Korean display label.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[Other]
}

func (c Category) String() string {
	return string(c)
}

// Index returns the position of c in Categories, or len(Categories) when c is not standard.
func (c Category) Index() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return len(Categories)
}

// ParseCategory accepts a standard category name (any case) or its Korean label.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) || s == c.Label() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidCategory, s)
}

// CategoryAmounts maps each standard category to an amount in won.
type CategoryAmounts map[Category]int64

// Total sums every standard category.
func (a CategoryAmounts) Total() int64 {
	var total int64
	for _, c := range Categories {
		total += a[c]
	}
	return total
}

// Clone returns an independent copy.
func (a CategoryAmounts) Clone() CategoryAmounts {
	out := make(CategoryAmounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
