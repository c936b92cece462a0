package analytics

import (
	"testing"

	"donghaeng/internal/core"
)

func month(year, m int, amounts core.CategoryAmounts) MonthlyTotals {
	return MonthlyTotals{Year: year, Month: m, PerCategory: amounts}
}

func TestPredict_SingleMonth(t *testing.T) {
	p := Predict([]MonthlyTotals{month(2025, 3, core.CategoryAmounts{core.Food: 100000})}, 2025, 4)
	got := p.Categories[core.Food]
	if got.AveragePrediction != 100000 || got.TrendPrediction != 100000 {
		t.Fatalf("got avg %d trend %d, want 100000/100000", got.AveragePrediction, got.TrendPrediction)
	}
	if len(got.PastMonthlyData) != 1 || got.PastMonthlyData[0].Month != "2025-03" {
		t.Fatalf("PastMonthlyData = %+v", got.PastMonthlyData)
	}
}

func TestPredict_TwoMonthsRising(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2025, 3, core.CategoryAmounts{core.Food: 100000}),
		month(2025, 2, core.CategoryAmounts{core.Food: 80000}),
	}, 2025, 4)
	got := p.Categories[core.Food]
	if got.AveragePrediction != 90000 {
		t.Fatalf("avg = %d, want 90000", got.AveragePrediction)
	}
	if got.TrendPrediction != 120000 {
		t.Fatalf("trend = %d, want 120000", got.TrendPrediction)
	}
	if got.PastMonthlyData[0].Amount != 80000 || got.PastMonthlyData[1].Amount != 100000 {
		t.Fatalf("PastMonthlyData not oldest first: %+v", got.PastMonthlyData)
	}
}

func TestPredict_SteepDeclineIsClamped(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2025, 2, core.CategoryAmounts{core.Food: 200000}),
		month(2025, 3, core.CategoryAmounts{core.Food: 50000}),
	}, 2025, 4)
	got := p.Categories[core.Food]
	if got.AveragePrediction != 125000 {
		t.Fatalf("avg = %d, want 125000", got.AveragePrediction)
	}
	if floor := core.RoundWon(float64(got.AveragePrediction) * 0.5); got.TrendPrediction < floor {
		t.Fatalf("trend %d below floor %d", got.TrendPrediction, floor)
	}
	if got.TrendPrediction != 62500 {
		t.Fatalf("trend = %d, want 62500", got.TrendPrediction)
	}
}

func TestPredict_ThreeMonthsUsesAverageDelta(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2025, 1, core.CategoryAmounts{core.Transport: 60000}),
		month(2025, 2, core.CategoryAmounts{core.Transport: 70000}),
		month(2025, 3, core.CategoryAmounts{core.Transport: 90000}),
	}, 2025, 4)
	got := p.Categories[core.Transport]
	// mean 73333.33 -> 73333; deltas 10000, 20000 -> +15000
	if got.AveragePrediction != 73333 {
		t.Fatalf("avg = %d, want 73333", got.AveragePrediction)
	}
	if got.TrendPrediction != 105000 {
		t.Fatalf("trend = %d, want 105000", got.TrendPrediction)
	}
}

func TestPredict_GapMonthIsAbsentNotZero(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2025, 1, core.CategoryAmounts{core.Culture: 40000}),
		month(2025, 2, core.CategoryAmounts{core.Food: 1}),
		month(2025, 3, core.CategoryAmounts{core.Culture: 60000}),
	}, 2025, 4)
	got := p.Categories[core.Culture]
	if len(got.PastMonthlyData) != 2 {
		t.Fatalf("expected 2 data points, got %+v", got.PastMonthlyData)
	}
	if got.AveragePrediction != 50000 || got.TrendPrediction != 80000 {
		t.Fatalf("got avg %d trend %d, want 50000/80000", got.AveragePrediction, got.TrendPrediction)
	}
}

func TestPredict_IgnoresMonthsOutsideWindow(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2024, 12, core.CategoryAmounts{core.Food: 999999}), // 4 months back
		month(2025, 4, core.CategoryAmounts{core.Food: 999999}),  // target month itself
		month(2025, 3, core.CategoryAmounts{core.Food: 10000}),
	}, 2025, 4)
	got := p.Categories[core.Food]
	if got.AveragePrediction != 10000 || len(got.PastMonthlyData) != 1 {
		t.Fatalf("window not applied: %+v", got)
	}
}

func TestPredict_AcrossYearBoundary(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2024, 11, core.CategoryAmounts{core.Food: 30000}),
		month(2024, 12, core.CategoryAmounts{core.Food: 40000}),
	}, 2025, 1)
	got := p.Categories[core.Food]
	if got.TrendPrediction != 50000 {
		t.Fatalf("trend = %d, want 50000", got.TrendPrediction)
	}
	if got.PastMonthlyData[1].Month != "2024-12" {
		t.Fatalf("labels = %+v", got.PastMonthlyData)
	}
}

func TestPredict_TotalsAndAllCategories(t *testing.T) {
	p := Predict([]MonthlyTotals{
		month(2025, 2, core.CategoryAmounts{core.Food: 80000, core.Transport: 50000}),
		month(2025, 3, core.CategoryAmounts{core.Food: 100000, core.Transport: 50000}),
	}, 2025, 4)
	if len(p.Categories) != len(core.Categories) {
		t.Fatalf("expected %d categories, got %d", len(core.Categories), len(p.Categories))
	}
	if p.AverageBased != 90000+50000 {
		t.Fatalf("AverageBased = %d", p.AverageBased)
	}
	if p.TrendBased != 120000+50000 {
		t.Fatalf("TrendBased = %d", p.TrendBased)
	}
	if empty := p.Categories[core.Medical]; empty.AveragePrediction != 0 || empty.TrendPrediction != 0 || len(empty.PastMonthlyData) != 0 {
		t.Fatalf("Medical should be empty: %+v", empty)
	}
}

func TestTotalsFromAggregate(t *testing.T) {
	agg := Aggregate("u1", []core.Transaction{
		{OwnerID: "u1", Amount: 3000, Category: core.Food, OccurredOn: core.NewDate(2025, 3, 2)},
	}, 2025, 3)
	mt := TotalsFromAggregate(agg)
	if mt.Year != 2025 || mt.Month != 3 || mt.PerCategory[core.Food] != 3000 {
		t.Fatalf("unexpected totals %+v", mt)
	}
	if _, ok := mt.PerCategory[core.Transport]; ok {
		t.Fatal("categories without data must be absent")
	}
}
