package http

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	"donghaeng/internal/ports"
	"donghaeng/internal/services"
)

type transactionRequest struct {
	// Amount is a JSON integer or a string such as "450,000원".
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
}

func (req transactionRequest) toNewTransaction() (services.NewTransaction, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return services.NewTransaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return services.NewTransaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD", err)
	}
	return services.NewTransaction{
		Amount:      amount,
		Category:    req.Category,
		Date:        date,
		Description: req.Description,
	}, nil
}

func parseAmount(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount)
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: amount must be a whole number of won", core.ErrInvalidAmount)
		}
		v, err := core.ParseWon(s)
		if err != nil {
			return 0, fmt.Errorf("%w: amount must be a whole number of won", core.ErrInvalidAmount)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil || v < 0 || v > core.MaxAmount {
		return 0, fmt.Errorf("%w: amount must be a whole number of won", core.ErrInvalidAmount)
	}
	return v, nil
}

type transactionResponse struct {
	ID                 string        `json:"id"`
	Amount             int64         `json:"amount"`
	Category           string        `json:"category"`
	NormalizedCategory core.Category `json:"normalizedCategory"`
	CategoryLabel      string        `json:"categoryLabel"`
	Date               string        `json:"date"`
	Description        string        `json:"description,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                 t.ID,
		Amount:             t.Amount,
		Category:           t.RawCategory,
		NormalizedCategory: t.Category,
		CategoryLabel:      t.Category.Label(),
		Date:               t.OccurredOn.String(),
		Description:        t.Description,
		CreatedAt:          t.CreatedAt,
	}
}

type profileRequest struct {
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type profileResponse struct {
	Age       int           `json:"age"`
	AgeGroup  core.AgeGroup `json:"ageGroup"`
	Gender    core.Gender   `json:"gender"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toProfileResponse(p core.UserProfile) profileResponse {
	return profileResponse{Age: p.Age, AgeGroup: core.AgeGroupFor(p.Age), Gender: p.Gender, UpdatedAt: p.UpdatedAt}
}

type mappingRequest struct {
	Category string `json:"category"`
}

type mappingResponse struct {
	Label         string        `json:"label"`
	Category      core.Category `json:"category"`
	CategoryLabel string        `json:"categoryLabel"`
}

func toMappingResponse(m analytics.Mapping) mappingResponse {
	return mappingResponse{Label: m.Label, Category: m.Category, CategoryLabel: m.Category.Label()}
}

type mappingGapResponse struct {
	Label    string    `json:"label"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

func toMappingGapResponse(g ports.MappingGap) mappingGapResponse {
	return mappingGapResponse{Label: g.Label, Count: g.Count, LastSeen: g.LastSeen}
}

type categorySummary struct {
	Category   core.Category `json:"category"`
	Label      string        `json:"label"`
	Total      int64         `json:"total"`
	Count      int           `json:"count"`
	Percentage int           `json:"percentage"`
}

type dailySummary struct {
	Day   int    `json:"day"`
	Date  string `json:"date"`
	Total int64  `json:"total"`
}

type monthlyStatsResponse struct {
	Year            int               `json:"year"`
	Month           int               `json:"month"`
	TotalSpending   int64             `json:"totalSpending"`
	CategorySummary []categorySummary `json:"categorySummary"`
	DailySummary    []dailySummary    `json:"dailySummary"`
}

func toMonthlyStatsResponse(a analytics.MonthlyAggregate) monthlyStatsResponse {
	resp := monthlyStatsResponse{
		Year:            a.Year,
		Month:           a.Month,
		TotalSpending:   a.TotalAmount,
		CategorySummary: make([]categorySummary, 0, len(a.PerCategory)),
		DailySummary:    make([]dailySummary, 0, len(a.PerDay)),
	}
	for _, ct := range a.Categories() {
		resp.CategorySummary = append(resp.CategorySummary, categorySummary{
			Category:   ct.Category,
			Label:      ct.Category.Label(),
			Total:      ct.Total,
			Count:      ct.Count,
			Percentage: ct.Percentage,
		})
	}
	for _, d := range a.PerDay {
		resp.DailySummary = append(resp.DailySummary, dailySummary{Day: d.Day, Date: d.Date.String(), Total: d.Total})
	}
	return resp
}

type userInfoResponse struct {
	Age        int           `json:"age"`
	AgeGroup   core.AgeGroup `json:"ageGroup"`
	Gender     core.Gender   `json:"gender"`
	PeerSource string        `json:"peerSource"`
}

func toUserInfoResponse(u services.UserInfo) userInfoResponse {
	return userInfoResponse{Age: u.Age, AgeGroup: u.AgeGroup, Gender: u.Gender, PeerSource: string(u.PeerSource)}
}

type categoryComparison struct {
	Category   core.Category `json:"category"`
	Label      string        `json:"label"`
	UserAmount int64         `json:"userAmount"`
	PeerAmount int64         `json:"peerAmount"`
	Difference int64         `json:"difference"`
}

type comparisonResponse struct {
	UserSpending       int64                `json:"userSpending"`
	PeerAverage        int64                `json:"peerAverage"`
	CategoryComparison []categoryComparison `json:"categoryComparison"`
	UserInfo           userInfoResponse     `json:"userInfo"`
}

func toComparisonResponse(c services.ComparisonReport) comparisonResponse {
	resp := comparisonResponse{
		UserSpending:       c.UserTotal,
		PeerAverage:        c.PeerTotal,
		CategoryComparison: make([]categoryComparison, 0, len(c.Categories)),
		UserInfo:           toUserInfoResponse(c.UserInfo),
	}
	for _, row := range c.Categories {
		resp.CategoryComparison = append(resp.CategoryComparison, categoryComparison{
			Category:   row.Category,
			Label:      row.Category.Label(),
			UserAmount: row.UserAmount,
			PeerAmount: row.PeerAmount,
			Difference: row.Difference,
		})
	}
	return resp
}

type totalPrediction struct {
	AverageBased int64 `json:"averageBased"`
	TrendBased   int64 `json:"trendBased"`
}

type monthAmount struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
}

type categoryPrediction struct {
	Label             string        `json:"label"`
	AveragePrediction int64         `json:"averagePrediction"`
	TrendPrediction   int64         `json:"trendPrediction"`
	PastMonthlyData   []monthAmount `json:"pastMonthlyData"`
}

type predictionResponse struct {
	Year                int                                  `json:"year"`
	Month               int                                  `json:"month"`
	TotalPrediction     totalPrediction                      `json:"totalPrediction"`
	CategoryPredictions map[core.Category]categoryPrediction `json:"categoryPredictions"`
}

func toPredictionResponse(p analytics.Prediction) predictionResponse {
	resp := predictionResponse{
		Year:                p.Year,
		Month:               p.Month,
		TotalPrediction:     totalPrediction{AverageBased: p.AverageBased, TrendBased: p.TrendBased},
		CategoryPredictions: make(map[core.Category]categoryPrediction, len(p.Categories)),
	}
	for c, cp := range p.Categories {
		past := make([]monthAmount, 0, len(cp.PastMonthlyData))
		for _, m := range cp.PastMonthlyData {
			past = append(past, monthAmount{Month: m.Month, Amount: m.Amount})
		}
		resp.CategoryPredictions[c] = categoryPrediction{
			Label:             c.Label(),
			AveragePrediction: cp.AveragePrediction,
			TrendPrediction:   cp.TrendPrediction,
			PastMonthlyData:   past,
		}
	}
	return resp
}

type categoryTip struct {
	Category core.Category `json:"category"`
	Label    string        `json:"label"`
	Amount   int64         `json:"amount"`
	Tip      string        `json:"tip"`
}

type budgetResponse struct {
	MonthlyIncome              int64                `json:"monthlyIncome"`
	MonthlySavingGoal          int64                `json:"monthlySavingGoal"`
	SpendableAmount            int64                `json:"spendableAmount"`
	RemainingFunds             int64                `json:"remainingFunds"`
	NeedsAdjustment            bool                 `json:"needsAdjustment"`
	RecommendedBudget          core.CategoryAmounts `json:"recommendedBudget"`
	PeerAverageBudget          core.CategoryAmounts `json:"peerAverageBudget"`
	BudgetSuggestions          []string             `json:"budgetSuggestions"`
	SavingTipsForTopCategories []categoryTip        `json:"savingTipsForTopCategories"`
	UserInfo                   userInfoResponse     `json:"userInfo"`
}

func toBudgetResponse(b services.BudgetReport) budgetResponse {
	resp := budgetResponse{
		MonthlyIncome:              b.MonthlyIncome,
		MonthlySavingGoal:          b.MonthlySavingGoal,
		SpendableAmount:            b.SpendableAmount,
		RemainingFunds:             b.RemainingFunds,
		NeedsAdjustment:            b.NeedsAdjustment,
		RecommendedBudget:          b.Recommended,
		PeerAverageBudget:          b.PeerAverage,
		BudgetSuggestions:          b.Suggestions,
		SavingTipsForTopCategories: make([]categoryTip, 0, len(b.TopCategoryTips)),
		UserInfo:                   toUserInfoResponse(b.UserInfo),
	}
	for _, t := range b.TopCategoryTips {
		resp.SavingTipsForTopCategories = append(resp.SavingTipsForTopCategories, categoryTip{
			Category: t.Category,
			Label:    t.Category.Label(),
			Amount:   t.Amount,
			Tip:      t.Tip,
		})
	}
	return resp
}
