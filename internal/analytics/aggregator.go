package analytics

import (
	"math"

	"donghaeng/internal/core"
)

// CategoryTotal is the per-category slice of a monthly aggregate.
type CategoryTotal struct {
	Category   core.Category
	Total      int64
	Count      int
	Percentage int // rounded share of the month total, 0..100
}

// DayTotal is one calendar day of a monthly aggregate.
type DayTotal struct {
	Day   int
	Date  core.Date
	Total int64
}

// MonthlyAggregate summarizes one owner's spending for a calendar month.
// It is derived on every request and never stored.
type MonthlyAggregate struct {
	OwnerID     string
	Year        int
	Month       int
	TotalAmount int64
	PerCategory map[core.Category]CategoryTotal
	PerDay      []DayTotal // one entry per calendar day, zero-filled
}

// Categories returns the present per-category totals in standard order.
func (m MonthlyAggregate) Categories() []CategoryTotal {
	out := make([]CategoryTotal, 0, len(m.PerCategory))
	for _, c := range core.Categories {
		if ct, ok := m.PerCategory[c]; ok {
			out = append(out, ct)
		}
	}
	return out
}

// Amounts flattens the per-category totals.
func (m MonthlyAggregate) Amounts() core.CategoryAmounts {
	out := make(core.CategoryAmounts, len(m.PerCategory))
	for c, ct := range m.PerCategory {
		out[c] = ct.Total
	}
	return out
}

// Aggregate computes the monthly aggregate for year/month from txs.
//
// Transactions outside the month are ignored. year and month must already be
// validated with core.ValidateYearMonth.
func Aggregate(ownerID string, txs []core.Transaction, year, month int) MonthlyAggregate {
	days := core.DaysIn(year, month)
	agg := MonthlyAggregate{
		OwnerID:     ownerID,
		Year:        year,
		Month:       month,
		PerCategory: make(map[core.Category]CategoryTotal),
		PerDay:      make([]DayTotal, days),
	}
	for i := range agg.PerDay {
		agg.PerDay[i] = DayTotal{Day: i + 1, Date: core.NewDate(year, month, i+1)}
	}

	for _, tx := range txs {
		d := tx.OccurredOn
		if d.Year() != year || int(d.Month()) != month {
			continue
		}
		c := tx.Category
		if !c.IsValid() {
			c = core.Other
		}
		ct := agg.PerCategory[c]
		ct.Category = c
		ct.Total += tx.Amount
		ct.Count++
		agg.PerCategory[c] = ct

		agg.PerDay[d.Day()-1].Total += tx.Amount
		agg.TotalAmount += tx.Amount
	}

	for c, ct := range agg.PerCategory {
		ct.Percentage = percentage(ct.Total, agg.TotalAmount)
		agg.PerCategory[c] = ct
	}
	return agg
}

func percentage(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
