package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
	"donghaeng/internal/peers"
	"donghaeng/internal/ports"
)

// PeerProvider resolves a cohort profile and never fails. *peers.Provider implements it.
type PeerProvider interface {
	GetPeerProfile(ctx context.Context, group core.AgeGroup, gender core.Gender) peers.PeerProfile
}

// UserInfo describes the cohort a user was compared against.
// Age is 0 when the user has no stored profile.
type UserInfo struct {
	Age        int
	AgeGroup   core.AgeGroup
	Gender     core.Gender
	PeerSource peers.Source
}

type ComparisonReport struct {
	analytics.Comparison
	UserInfo UserInfo
}

type BudgetReport struct {
	analytics.BudgetPlan
	UserInfo UserInfo
}

// AnalyticsService loads the inputs of the analytics functions and runs them.
type AnalyticsService struct {
	transactions ports.TransactionLister
	profiles     ports.ProfileReader
	peers        PeerProvider
	logger       *applog.Logger
}

func NewAnalyticsService(transactions ports.TransactionLister, profiles ports.ProfileReader, peerProvider PeerProvider, logger *applog.Logger) *AnalyticsService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &AnalyticsService{
		transactions: transactions,
		profiles:     profiles,
		peers:        peerProvider,
		logger:       logger.WithComponent(applog.ComponentAnalytics),
	}
}

// MonthlyStats aggregates the owner's spending for year/month.
func (s *AnalyticsService) MonthlyStats(ctx context.Context, ownerID string, year, month int) (analytics.MonthlyAggregate, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return analytics.MonthlyAggregate{}, err
	}
	txs, err := s.listMonth(ctx, ownerID, year, month)
	if err != nil {
		return analytics.MonthlyAggregate{}, err
	}
	agg := analytics.Aggregate(ownerID, txs, year, month)

	s.logger.DebugContext(ctx, "Monthly stats computed",
		applog.NewFields().WithOperation(applog.OpAggregate).WithOwner(ownerID).WithPeriod(year, month).ToSlice()...)
	return agg, nil
}

// Comparison sets the owner's month against their peer cohort. Transactions
// and the cohort profile are fetched concurrently.
func (s *AnalyticsService) Comparison(ctx context.Context, ownerID string, year, month int) (ComparisonReport, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return ComparisonReport{}, err
	}

	var (
		txs  []core.Transaction
		info UserInfo
		peer peers.PeerProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.listMonth(gctx, ownerID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		info, peer, err = s.cohort(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return ComparisonReport{}, err
	}

	cmp := analytics.Compare(analytics.Aggregate(ownerID, txs, year, month), peer.PerCategory)

	s.logger.DebugContext(ctx, "Peer comparison computed",
		applog.NewFields().WithOperation(applog.OpCompare).WithOwner(ownerID).WithPeriod(year, month).
			WithCohort(string(info.AgeGroup), string(info.Gender)).ToSlice()...)
	return ComparisonReport{Comparison: cmp, UserInfo: info}, nil
}

// Prediction forecasts year/month from the three months before it.
func (s *AnalyticsService) Prediction(ctx context.Context, ownerID string, year, month int) (analytics.Prediction, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return analytics.Prediction{}, err
	}

	firstYear, firstMonth := core.AddMonths(year, month, -analytics.PredictionWindow)
	lastYear, lastMonth := core.AddMonths(year, month, -1)
	from, _ := core.MonthRange(firstYear, firstMonth)
	_, to := core.MonthRange(lastYear, lastMonth)

	txs, err := s.transactions.ListTransactions(ctx, ownerID, from, to)
	if err != nil {
		return analytics.Prediction{}, fmt.Errorf("list transactions: %w", err)
	}

	history := make([]analytics.MonthlyTotals, 0, analytics.PredictionWindow)
	for i := analytics.PredictionWindow; i >= 1; i-- {
		y, m := core.AddMonths(year, month, -i)
		history = append(history, analytics.TotalsFromAggregate(analytics.Aggregate(ownerID, txs, y, m)))
	}
	p := analytics.Predict(history, year, month)

	s.logger.DebugContext(ctx, "Prediction computed",
		applog.NewFields().WithOperation(applog.OpPredict).WithOwner(ownerID).WithPeriod(year, month).ToSlice()...)
	return p, nil
}

// Budget recommends a monthly budget. savingGoal nil means the default share of income.
func (s *AnalyticsService) Budget(ctx context.Context, ownerID string, income int64, savingGoal *int64) (BudgetReport, error) {
	if income <= 0 {
		return BudgetReport{}, core.ErrInvalidIncome
	}
	if savingGoal != nil && *savingGoal < 0 {
		return BudgetReport{}, core.ErrInvalidSavingGoal
	}

	info, peer, err := s.cohort(ctx, ownerID)
	if err != nil {
		return BudgetReport{}, err
	}
	plan, err := analytics.Recommend(income, savingGoal, peer.PerCategory)
	if err != nil {
		return BudgetReport{}, err
	}

	s.logger.DebugContext(ctx, "Budget recommended",
		applog.NewFields().WithOperation(applog.OpBudget).WithOwner(ownerID).
			WithCohort(string(info.AgeGroup), string(info.Gender)).ToSlice()...)
	return BudgetReport{BudgetPlan: plan, UserInfo: info}, nil
}

func (s *AnalyticsService) listMonth(ctx context.Context, ownerID string, year, month int) ([]core.Transaction, error) {
	from, to := core.MonthRange(year, month)
	txs, err := s.transactions.ListTransactions(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// cohort resolves the owner's profile and their peer profile. A missing
// profile selects the default cohort; a storage failure is returned.
func (s *AnalyticsService) cohort(ctx context.Context, ownerID string) (UserInfo, peers.PeerProfile, error) {
	info := UserInfo{AgeGroup: peers.DefaultCohort.AgeGroup, Gender: peers.DefaultCohort.Gender}

	p, err := s.profiles.GetProfile(ctx, ownerID)
	switch {
	case err == nil:
		info.Age = p.Age
		info.AgeGroup = core.AgeGroupFor(p.Age)
		info.Gender = p.Gender
	case errors.Is(err, ports.ErrNotFound):
		s.logger.DebugContext(ctx, "No profile stored, using default cohort", applog.FieldOwnerID, ownerID)
	default:
		return UserInfo{}, peers.PeerProfile{}, fmt.Errorf("get profile: %w", err)
	}

	peer := s.peers.GetPeerProfile(ctx, info.AgeGroup, info.Gender)
	info.PeerSource = peer.Source
	return info, peer, nil
}
