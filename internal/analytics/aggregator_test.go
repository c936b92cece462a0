package analytics

import (
	"fmt"
	"reflect"
	"testing"

	"donghaeng/internal/core"
)

func tx(amount int64, raw string, c core.Category, d core.Date) core.Transaction {
	return core.Transaction{OwnerID: "u1", Amount: amount, RawCategory: raw, Category: c, OccurredOn: d}
}

func TestAggregate_April2025Scenario(t *testing.T) {
	n := NewNormalizer()
	food, _ := n.Normalize("식비")
	transport, _ := n.Normalize("교통")
	txs := []core.Transaction{
		tx(450000, "식비", food, core.NewDate(2025, 4, 5)),
		tx(150000, "교통", transport, core.NewDate(2025, 4, 18)),
	}

	agg := Aggregate("u1", txs, 2025, 4)

	if agg.TotalAmount != 600000 {
		t.Fatalf("TotalAmount = %d, want 600000", agg.TotalAmount)
	}
	if got := agg.PerCategory[core.Food]; got.Total != 450000 || got.Percentage != 75 || got.Count != 1 {
		t.Errorf("Food = %+v, want total 450000, 75%%, count 1", got)
	}
	if got := agg.PerCategory[core.Transport]; got.Total != 150000 || got.Percentage != 25 {
		t.Errorf("Transport = %+v, want total 150000, 25%%", got)
	}
	if len(agg.PerDay) != 30 {
		t.Fatalf("len(PerDay) = %d, want 30", len(agg.PerDay))
	}
	for _, d := range agg.PerDay {
		var want int64
		switch d.Day {
		case 5:
			want = 450000
		case 18:
			want = 150000
		}
		if d.Total != want {
			t.Errorf("day %d total = %d, want %d", d.Day, d.Total, want)
		}
	}
	if agg.PerDay[4].Date.String() != "2025-04-05" {
		t.Errorf("day 5 date = %s", agg.PerDay[4].Date)
	}
}

func TestAggregate_PerDayCoversMonth(t *testing.T) {
	months := []struct{ year, month int }{
		{2024, 2}, {2025, 2}, {2025, 1}, {2025, 4}, {2025, 12}, {2100, 2},
	}
	for _, m := range months {
		t.Run(fmt.Sprintf("%d-%02d", m.year, m.month), func(t *testing.T) {
			days := core.DaysIn(m.year, m.month)
			txs := []core.Transaction{
				tx(1000, "식비", core.Food, core.NewDate(m.year, m.month, 1)),
				tx(2500, "교통", core.Transport, core.NewDate(m.year, m.month, days)),
				tx(700, "의료", core.Medical, core.NewDate(m.year, m.month, days)),
			}
			agg := Aggregate("u1", txs, m.year, m.month)
			if len(agg.PerDay) != days {
				t.Fatalf("len(PerDay) = %d, want %d", len(agg.PerDay), days)
			}
			var sum int64
			for i, d := range agg.PerDay {
				if d.Day != i+1 {
					t.Fatalf("PerDay[%d].Day = %d", i, d.Day)
				}
				sum += d.Total
			}
			if sum != agg.TotalAmount {
				t.Fatalf("sum(PerDay) = %d, TotalAmount = %d", sum, agg.TotalAmount)
			}
			if agg.Amounts().Total() != agg.TotalAmount {
				t.Fatalf("category totals %d != TotalAmount %d", agg.Amounts().Total(), agg.TotalAmount)
			}
		})
	}
}

func TestAggregate_FiltersOtherMonths(t *testing.T) {
	txs := []core.Transaction{
		tx(1000, "식비", core.Food, core.NewDate(2025, 3, 31)),
		tx(2000, "식비", core.Food, core.NewDate(2025, 4, 1)),
		tx(4000, "식비", core.Food, core.NewDate(2025, 4, 30)),
		tx(8000, "식비", core.Food, core.NewDate(2025, 5, 1)),
		tx(16000, "식비", core.Food, core.NewDate(2024, 4, 15)),
	}
	agg := Aggregate("u1", txs, 2025, 4)
	if agg.TotalAmount != 6000 {
		t.Fatalf("TotalAmount = %d, want 6000", agg.TotalAmount)
	}
	if agg.PerCategory[core.Food].Count != 2 {
		t.Fatalf("Count = %d, want 2", agg.PerCategory[core.Food].Count)
	}
}

func TestAggregate_Empty(t *testing.T) {
	agg := Aggregate("u1", nil, 2025, 2)
	if agg.TotalAmount != 0 {
		t.Fatalf("TotalAmount = %d", agg.TotalAmount)
	}
	if len(agg.PerCategory) != 0 {
		t.Fatalf("PerCategory = %v, want empty", agg.PerCategory)
	}
	if len(agg.PerDay) != 28 {
		t.Fatalf("len(PerDay) = %d, want 28", len(agg.PerDay))
	}
	for _, d := range agg.PerDay {
		if d.Total != 0 {
			t.Fatalf("day %d not zero", d.Day)
		}
	}
}

func TestAggregate_ZeroAmountsGiveZeroPercentages(t *testing.T) {
	txs := []core.Transaction{
		tx(0, "식비", core.Food, core.NewDate(2025, 4, 1)),
		tx(0, "교통", core.Transport, core.NewDate(2025, 4, 2)),
	}
	agg := Aggregate("u1", txs, 2025, 4)
	for _, ct := range agg.Categories() {
		if ct.Percentage != 0 {
			t.Fatalf("%s percentage = %d, want 0", ct.Category, ct.Percentage)
		}
	}
}

func TestAggregate_PercentagesInRange(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "식비", core.Food, core.NewDate(2025, 4, 1)),
		tx(1, "교통", core.Transport, core.NewDate(2025, 4, 2)),
		tx(1, "의료", core.Medical, core.NewDate(2025, 4, 3)),
		tx(999997, "주거", core.Housing, core.NewDate(2025, 4, 4)),
	}
	agg := Aggregate("u1", txs, 2025, 4)
	for _, ct := range agg.Categories() {
		if ct.Percentage < 0 || ct.Percentage > 100 {
			t.Fatalf("%s percentage = %d out of range", ct.Category, ct.Percentage)
		}
	}
	if agg.PerCategory[core.Housing].Percentage != 100 {
		t.Fatalf("Housing percentage = %d, want 100", agg.PerCategory[core.Housing].Percentage)
	}
}

func TestAggregate_UnknownCategoryCountsAsOther(t *testing.T) {
	txs := []core.Transaction{tx(5000, "??", core.Category(""), core.NewDate(2025, 4, 1))}
	agg := Aggregate("u1", txs, 2025, 4)
	if agg.PerCategory[core.Other].Total != 5000 {
		t.Fatalf("Other total = %d, want 5000", agg.PerCategory[core.Other].Total)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	txs := []core.Transaction{
		tx(12000, "식비", core.Food, core.NewDate(2025, 4, 3)),
		tx(3000, "교통", core.Transport, core.NewDate(2025, 4, 3)),
		tx(55000, "의류", core.Clothing, core.NewDate(2025, 4, 21)),
	}
	a := Aggregate("u1", txs, 2025, 4)
	b := Aggregate("u1", txs, 2025, 4)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Aggregate is not deterministic")
	}
}

func TestMonthlyAggregateCategoriesOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(1, "기타", core.Other, core.NewDate(2025, 4, 1)),
		tx(1, "식비", core.Food, core.NewDate(2025, 4, 1)),
		tx(1, "의류", core.Clothing, core.NewDate(2025, 4, 1)),
	}
	got := Aggregate("u1", txs, 2025, 4).Categories()
	want := []core.Category{core.Food, core.Clothing, core.Other}
	if len(got) != len(want) {
		t.Fatalf("got %d categories", len(got))
	}
	for i := range want {
		if got[i].Category != want[i] {
			t.Fatalf("position %d = %s, want %s", i, got[i].Category, want[i])
		}
	}
}

func TestAggregate_LargestAmountsStayPositive(t *testing.T) {
	txs := []core.Transaction{
		tx(core.MaxAmount, "식비", core.Food, core.NewDate(2025, 4, 1)),
		tx(core.MaxAmount, "식비", core.Food, core.NewDate(2025, 4, 2)),
	}
	agg := Aggregate("u1", txs, 2025, 4)
	if agg.TotalAmount != 2*core.MaxAmount {
		t.Fatalf("TotalAmount = %d, want %d", agg.TotalAmount, 2*core.MaxAmount)
	}
	if got := agg.PerCategory[core.Food].Percentage; got != 100 {
		t.Fatalf("Food percentage = %d, want 100", got)
	}
}
