package analytics

import (
	"fmt"
	"sort"

	"donghaeng/internal/core"
)

// PredictionWindow is how many months before the target month feed a prediction.
const PredictionWindow = 3

// trendFloorRatio bounds how far below the average a trend prediction may fall.
const trendFloorRatio = 0.5

// MonthlyTotals is one month of per-category spending.
// A category missing from PerCategory had no data that month.
type MonthlyTotals struct {
	Year        int
	Month       int
	PerCategory core.CategoryAmounts
}

// Label formats the month as YYYY-MM.
func (m MonthlyTotals) Label() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m MonthlyTotals) ordinal() int {
	return m.Year*12 + m.Month - 1
}

// MonthAmount is one point of a category's history.
type MonthAmount struct {
	Month  string
	Amount int64
}

// CategoryPrediction is the forecast for one category.
type CategoryPrediction struct {
	Category          core.Category
	AveragePrediction int64
	TrendPrediction   int64
	PastMonthlyData   []MonthAmount // oldest first
}

// Prediction is the forecast for a target month.
type Prediction struct {
	Year         int
	Month        int
	AverageBased int64
	TrendBased   int64
	Categories   map[core.Category]CategoryPrediction
}

// TotalsFromAggregate converts an aggregate into prediction input.
func TotalsFromAggregate(a MonthlyAggregate) MonthlyTotals {
	return MonthlyTotals{Year: a.Year, Month: a.Month, PerCategory: a.Amounts()}
}

// Predict forecasts targetYear/targetMonth from the trailing PredictionWindow
// months found in history. Months outside that window are ignored.
//
// Two estimators are produced per category: the rounded mean of the months
// present, and the most recent month plus the mean of the last two
// month-over-month deltas. The trend estimate never drops below half the mean.
// This is a heuristic; it has no notion of seasonality or confidence.
func Predict(history []MonthlyTotals, targetYear, targetMonth int) Prediction {
	target := MonthlyTotals{Year: targetYear, Month: targetMonth}.ordinal()

	window := make([]MonthlyTotals, 0, PredictionWindow)
	for _, m := range history {
		if o := m.ordinal(); o >= target-PredictionWindow && o < target {
			window = append(window, m)
		}
	}
	sort.SliceStable(window, func(i, j int) bool { return window[i].ordinal() < window[j].ordinal() })

	p := Prediction{
		Year:       targetYear,
		Month:      targetMonth,
		Categories: make(map[core.Category]CategoryPrediction, len(core.Categories)),
	}
	for _, c := range core.Categories {
		past := make([]MonthAmount, 0, len(window))
		for _, m := range window {
			if v, ok := m.PerCategory[c]; ok {
				past = append(past, MonthAmount{Month: m.Label(), Amount: v})
			}
		}
		cp := predictCategory(c, past)
		p.Categories[c] = cp
		p.AverageBased += cp.AveragePrediction
		p.TrendBased += cp.TrendPrediction
	}
	return p
}

func predictCategory(c core.Category, past []MonthAmount) CategoryPrediction {
	cp := CategoryPrediction{Category: c, PastMonthlyData: past}
	if len(past) == 0 {
		return cp
	}

	var sum int64
	for _, m := range past {
		sum += m.Amount
	}
	cp.AveragePrediction = core.RoundWon(float64(sum) / float64(len(past)))

	if len(past) < 2 {
		cp.TrendPrediction = cp.AveragePrediction
		return cp
	}

	start := len(past) - 3
	if start < 0 {
		start = 0
	}
	recent := past[start:]
	var deltaSum int64
	for i := 1; i < len(recent); i++ {
		deltaSum += recent[i].Amount - recent[i-1].Amount
	}
	avgDelta := float64(deltaSum) / float64(len(recent)-1)
	trend := core.RoundWon(float64(past[len(past)-1].Amount) + avgDelta)

	if floor := core.RoundWon(float64(cp.AveragePrediction) * trendFloorRatio); trend < floor {
		trend = floor
	}
	cp.TrendPrediction = trend
	return cp
}
