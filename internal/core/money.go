// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing won amounts from strings and
// rounding fractional intermediate values back to whole won.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxAmount is the largest amount accepted anywhere, one trillion won. Sums of
// a month of amounts at this bound stay well inside int64.
const MaxAmount int64 = 1_000_000_000_000

// ParseWon converts a user-supplied amount string to whole won.
//
// Thousands separators (comma, dot, underscore, space) and a trailing "원" or
// leading "₩" are accepted. Only integers in [0, MaxAmount] are allowed; won
// has no minor unit.
//
// Examples:
//
//	ParseWon("450000")    -> 450000, nil
//	ParseWon("450,000원") -> 450000, nil
//	ParseWon("₩1_000")    -> 1000, nil
//	ParseWon("-1")        -> 0, ErrInvalidAmount
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', '_', ' ':
			return -1
		}
		return r
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || v > MaxAmount {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// RoundWon rounds half away from zero to whole won.
func RoundWon(v float64) int64 {
	return int64(math.Round(v))
}

// FormatWon renders an amount with thousands separators, e.g. "1,600,000원".
func FormatWon(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "원"
	if neg {
		return "-" + out
	}
	return out
}
