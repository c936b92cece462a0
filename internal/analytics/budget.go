package analytics

import (
	"fmt"
	"sort"

	"donghaeng/internal/core"
)

const (
	// DefaultSavingRate is applied when the caller gives no saving goal.
	DefaultSavingRate = 0.2
	// surplusSuggestionRate is the share of income left over that triggers a saving suggestion.
	surplusSuggestionRate = 0.1
	topCategoryCount      = 3
)

// SavingTips holds one static tip per standard category.
var SavingTips = map[core.Category]string{
	core.Food:      "장보기 목록을 미리 작성하고 배달 음식 횟수를 주 2회 이하로 줄여보세요.",
	core.Transport: "대중교통 정기권이나 알뜰교통카드로 교통비를 절약할 수 있습니다.",
	core.Housing:   "통신 요금제와 관리비 항목을 점검하고 불필요한 구독을 해지해 보세요.",
	core.Medical:   "국가 건강검진과 보건소 서비스를 활용하면 의료비를 줄일 수 있습니다.",
	core.Culture:   "공공도서관, 문화가 있는 날 할인 등 무료·할인 문화 혜택을 이용해 보세요.",
	core.Clothing:  "계절이 끝날 때 할인 구매를 활용하고 충동구매 전 하루 고민해 보세요.",
	core.Other:     "기타 지출은 항목을 기록해 반복되는 소비부터 줄여보세요.",
}

// CategoryTip pairs a recommended budget line with its saving tip.
type CategoryTip struct {
	Category core.Category
	Amount   int64
	Tip      string
}

// BudgetPlan is a recommended monthly budget.
type BudgetPlan struct {
	MonthlyIncome     int64
	MonthlySavingGoal int64
	SpendableAmount   int64 // may be negative when the saving goal exceeds income
	NeedsAdjustment   bool
	Recommended       core.CategoryAmounts
	PeerAverage       core.CategoryAmounts
	RemainingFunds    int64
	Suggestions       []string
	TopCategoryTips   []CategoryTip
}

// DefaultSavingGoal returns the saving goal used when none is given.
func DefaultSavingGoal(income int64) int64 {
	return core.RoundWon(float64(income) * DefaultSavingRate)
}

// Recommend builds a budget from income, an optional saving goal and the
// peer cohort's per-category amounts.
//
// When the peer spending plus the saving goal exceeds income, every peer
// category is scaled by one ratio so the total fits the spendable amount.
// Each scaled line is rounded on its own, so the sum may drift by a few won.
func Recommend(income int64, savingGoal *int64, peer core.CategoryAmounts) (BudgetPlan, error) {
	if income <= 0 || income > core.MaxAmount {
		return BudgetPlan{}, core.ErrInvalidIncome
	}
	goal := DefaultSavingGoal(income)
	if savingGoal != nil {
		if *savingGoal < 0 || *savingGoal > core.MaxAmount {
			return BudgetPlan{}, core.ErrInvalidSavingGoal
		}
		goal = *savingGoal
	}

	peerTotal := peer.Total()
	plan := BudgetPlan{
		MonthlyIncome:     income,
		MonthlySavingGoal: goal,
		SpendableAmount:   income - goal,
		NeedsAdjustment:   goal > income-peerTotal,
		PeerAverage:       make(core.CategoryAmounts, len(core.Categories)),
		Recommended:       make(core.CategoryAmounts, len(core.Categories)),
		Suggestions:       []string{},
	}
	for _, c := range core.Categories {
		plan.PeerAverage[c] = peer[c]
	}

	if plan.NeedsAdjustment {
		ratio := 0.0
		if peerTotal > 0 && plan.SpendableAmount > 0 {
			ratio = float64(plan.SpendableAmount) / float64(peerTotal)
		}
		for _, c := range core.Categories {
			plan.Recommended[c] = core.RoundWon(float64(peer[c]) * ratio)
		}
	} else {
		for _, c := range core.Categories {
			plan.Recommended[c] = peer[c]
		}
	}

	if remaining := plan.SpendableAmount - plan.Recommended.Total(); remaining > 0 {
		plan.RemainingFunds = remaining
	}

	plan.Suggestions = suggestions(plan, peer)
	plan.TopCategoryTips = topCategoryTips(plan.Recommended)
	return plan, nil
}

func suggestions(plan BudgetPlan, peer core.CategoryAmounts) []string {
	out := []string{}
	if plan.NeedsAdjustment {
		out = append(out, "현재 수입과 저축 목표에 비해 또래 평균 지출이 높습니다. 지출 비중이 큰 항목부터 예산을 줄여보세요.")
		if top, ok := largestCategory(peer); ok {
			share := 0
			if total := peer.Total(); total > 0 {
				share = percentage(peer[top], total)
			}
			out = append(out, fmt.Sprintf("또래 평균에서 가장 큰 비중을 차지하는 항목은 '%s'(%d%%)입니다. 이 항목의 절약 방안을 먼저 검토해 보세요.", top.Label(), share))
		}
		return out
	}
	if float64(plan.RemainingFunds) > float64(plan.MonthlyIncome)*surplusSuggestionRate {
		out = append(out, fmt.Sprintf("예산을 모두 사용해도 %s이 남습니다. 추가 저축이나 투자를 고려해 보세요.", core.FormatWon(plan.RemainingFunds)))
	}
	return out
}

// largestCategory returns the highest-amount category, ties broken by standard order.
func largestCategory(amounts core.CategoryAmounts) (core.Category, bool) {
	var best core.Category
	var bestAmount int64 = -1
	for _, c := range core.Categories {
		if amounts[c] > bestAmount {
			best, bestAmount = c, amounts[c]
		}
	}
	return best, bestAmount > 0
}

func topCategoryTips(recommended core.CategoryAmounts) []CategoryTip {
	lines := make([]CategoryTip, 0, len(core.Categories))
	for _, c := range core.Categories {
		lines = append(lines, CategoryTip{Category: c, Amount: recommended[c], Tip: SavingTips[c]})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Amount > lines[j].Amount })
	if len(lines) > topCategoryCount {
		lines = lines[:topCategoryCount]
	}
	return lines
}
