package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"donghaeng/internal/amqp"
	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	"donghaeng/internal/memory"
	"donghaeng/internal/peers"
	"donghaeng/internal/ports"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (f *fakePublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

// failingStore fails every transaction and profile read.
type failingStore struct {
	*memory.Store
}

var errStorage = errors.New("storage unavailable")

func (failingStore) ListTransactions(context.Context, string, core.Date, core.Date) ([]core.Transaction, error) {
	return nil, errStorage
}

func (failingStore) GetProfile(context.Context, string) (core.UserProfile, error) {
	return core.UserProfile{}, errStorage
}

func newTxService(store ports.Store, pub EventPublisher) *TransactionService {
	s := NewTransactionService(store, analytics.NewNormalizer(), pub, nil)
	n := 0
	s.newID = func() string {
		n++
		return "tx-" + string(rune('0'+n))
	}
	s.now = func() time.Time { return time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestTransactionService_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &fakePublisher{}
	svc := newTxService(store, pub)

	tx, err := svc.CreateTransaction(ctx, "u1", NewTransaction{
		Amount: 450000, Category: " 식비 ", Date: core.NewDate(2025, 4, 5),
		Description: "<script>alert(1)</script><b>장보기</b> & 간식",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if tx.ID != "tx-1" || tx.Category != core.Food || tx.RawCategory != "식비" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
	if tx.Description != "장보기 & 간식" {
		t.Fatalf("Description = %q, want sanitized", tx.Description)
	}

	if _, err := svc.CreateTransaction(ctx, "u1", NewTransaction{Amount: 9000, Category: "반려동물", Date: core.NewDate(2025, 4, 6)}); err != nil {
		t.Fatalf("CreateTransaction unmapped: %v", err)
	}

	if len(pub.events) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.events))
	}
	if !pub.events[0].Mapped || pub.events[1].Mapped || pub.events[1].Category != core.Other {
		t.Fatalf("unexpected events %+v %+v", pub.events[0], pub.events[1])
	}

	got, err := svc.ListTransactions(ctx, "u1", 2025, 4)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 || got[0].ID != "tx-1" {
		t.Fatalf("ListTransactions = %+v", got)
	}
}

func TestTransactionService_CreateTransactionValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewTransaction
		want error
	}{
		{"negative amount", NewTransaction{Amount: -1, Category: "식비", Date: core.NewDate(2025, 4, 1)}, core.ErrInvalidAmount},
		{"empty category", NewTransaction{Amount: 1, Category: "  ", Date: core.NewDate(2025, 4, 1)}, core.ErrEmptyCategory},
		{"zero date", NewTransaction{Amount: 1, Category: "식비"}, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := newTxService(memory.New(), pub)
			_, err := svc.CreateTransaction(context.Background(), "u1", tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(pub.events) != 0 {
				t.Fatal("rejected transaction must not publish")
			}
		})
	}
}

func TestTransactionService_PublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc := newTxService(memory.New(), pub)
	if _, err := svc.CreateTransaction(context.Background(), "u1", NewTransaction{Amount: 1, Category: "교통", Date: core.NewDate(2025, 4, 1)}); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestTransactionService_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := newTxService(memory.New(), pub)
	tx, err := svc.CreateTransaction(ctx, "u1", NewTransaction{Amount: 1, Category: "교통", Date: core.NewDate(2025, 4, 1)})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, "u2", tx.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("cross-owner delete err = %v", err)
	}
	if err := svc.DeleteTransaction(ctx, "u1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != amqp.EventDeleted || last.TransactionID != tx.ID {
		t.Fatalf("last event = %+v", last)
	}
}

func TestTransactionService_Profile(t *testing.T) {
	ctx := context.Background()
	svc := newTxService(memory.New(), nil)

	if _, err := svc.GetProfile(ctx, "u1"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.SaveProfile(ctx, "u1", 34, "x"); !errors.Is(err, core.ErrInvalidGender) {
		t.Fatalf("err = %v, want ErrInvalidGender", err)
	}
	if _, err := svc.SaveProfile(ctx, "u1", 0, "F"); !errors.Is(err, core.ErrInvalidAge) {
		t.Fatalf("err = %v, want ErrInvalidAge", err)
	}
	p, err := svc.SaveProfile(ctx, "u1", 34, "여성")
	if err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if p.Gender != core.Female {
		t.Fatalf("Gender = %s", p.Gender)
	}
	got, err := svc.GetProfile(ctx, "u1")
	if err != nil || got.Age != 34 {
		t.Fatalf("GetProfile = %+v, %v", got, err)
	}
}

func TestMappingService(t *testing.T) {
	ctx := context.Background()
	store := memory.New(analytics.Mapping{Label: "헬스장", Category: core.Medical})
	normalizer, err := LoadNormalizer(ctx, store)
	if err != nil {
		t.Fatalf("LoadNormalizer: %v", err)
	}
	if c, ok := normalizer.Normalize("헬스장"); !ok || c != core.Medical {
		t.Fatalf("stored mapping not loaded: %s %v", c, ok)
	}

	svc := NewMappingService(store, normalizer, nil)

	if _, err := svc.SetMapping(ctx, "반려동물", "Pets"); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
	if _, err := svc.SetMapping(ctx, " ", "Food"); !errors.Is(err, core.ErrEmptyCategory) {
		t.Fatalf("err = %v, want ErrEmptyCategory", err)
	}

	m, err := svc.SetMapping(ctx, "반려동물", "기타")
	if err != nil {
		t.Fatalf("SetMapping: %v", err)
	}
	if m.Category != core.Other {
		t.Fatalf("mapping = %+v", m)
	}
	if _, ok := normalizer.Normalize("반려동물"); !ok {
		t.Fatal("new mapping should be live")
	}

	// override a built-in label, then revert it by deleting the override
	if _, err := svc.SetMapping(ctx, "식비", "Other"); err != nil {
		t.Fatalf("SetMapping override: %v", err)
	}
	if c, _ := normalizer.Normalize("식비"); c != core.Other {
		t.Fatalf("override not applied: %s", c)
	}
	if err := svc.DeleteMapping(ctx, "식비"); err != nil {
		t.Fatalf("DeleteMapping: %v", err)
	}
	if c, ok := normalizer.Normalize("식비"); !ok || c != core.Food {
		t.Fatalf("built-in mapping not restored: %s %v", c, ok)
	}

	if err := svc.DeleteMapping(ctx, "반려동물"); err != nil {
		t.Fatalf("DeleteMapping: %v", err)
	}
	if _, ok := normalizer.Normalize("반려동물"); ok {
		t.Fatal("deleted mapping still resolves")
	}
	if err := svc.DeleteMapping(ctx, "반려동물"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

type fakePeers struct {
	calls  []core.AgeGroup
	mu     sync.Mutex
	static *peers.StaticSource
}

func (f *fakePeers) GetPeerProfile(ctx context.Context, group core.AgeGroup, gender core.Gender) peers.PeerProfile {
	f.mu.Lock()
	f.calls = append(f.calls, group)
	f.mu.Unlock()
	p, _ := f.static.PeerProfile(ctx, group, gender)
	return p
}

func seedApril(t *testing.T, store *memory.Store) {
	t.Helper()
	for _, tx := range []core.Transaction{
		{ID: "a", OwnerID: "u1", Amount: 450000, RawCategory: "식비", Category: core.Food, OccurredOn: core.NewDate(2025, 4, 5)},
		{ID: "b", OwnerID: "u1", Amount: 150000, RawCategory: "교통", Category: core.Transport, OccurredOn: core.NewDate(2025, 4, 18)},
	} {
		if err := store.AddTransaction(context.Background(), tx); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
}

func TestAnalyticsService_MonthlyStats(t *testing.T) {
	store := memory.New()
	seedApril(t, store)
	svc := NewAnalyticsService(store, store, &fakePeers{static: peers.NewStaticSource()}, nil)

	agg, err := svc.MonthlyStats(context.Background(), "u1", 2025, 4)
	if err != nil {
		t.Fatalf("MonthlyStats: %v", err)
	}
	if agg.TotalAmount != 600000 || agg.PerCategory[core.Food].Percentage != 75 || len(agg.PerDay) != 30 {
		t.Fatalf("unexpected aggregate %+v", agg)
	}
	if agg.PerDay[4].Total != 450000 || agg.PerDay[17].Total != 150000 {
		t.Fatalf("per-day totals wrong: %+v", agg.PerDay)
	}

	for _, tc := range []struct{ year, month int }{{2025, 0}, {2025, 13}, {1969, 1}} {
		if _, err := svc.MonthlyStats(context.Background(), "u1", tc.year, tc.month); !core.IsValidation(err) {
			t.Errorf("MonthlyStats(%d,%d) err = %v, want validation error", tc.year, tc.month, err)
		}
	}
}

func TestAnalyticsService_Comparison(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedApril(t, store)
	peerProvider := &fakePeers{static: peers.NewStaticSource()}
	svc := NewAnalyticsService(store, store, peerProvider, nil)

	t.Run("no profile uses default cohort", func(t *testing.T) {
		rep, err := svc.Comparison(ctx, "u1", 2025, 4)
		if err != nil {
			t.Fatalf("Comparison: %v", err)
		}
		if rep.UserInfo.Age != 0 || rep.UserInfo.AgeGroup != core.AgeGroup30s || rep.UserInfo.Gender != core.Male {
			t.Fatalf("UserInfo = %+v", rep.UserInfo)
		}
		if rep.UserTotal != 600000 || rep.PeerTotal != 1580000 || len(rep.Categories) != len(core.Categories) {
			t.Fatalf("unexpected comparison %+v", rep.Comparison)
		}
	})

	t.Run("stored profile selects cohort", func(t *testing.T) {
		if err := store.SaveProfile(ctx, core.UserProfile{OwnerID: "u1", Age: 52, Gender: core.Female}); err != nil {
			t.Fatalf("SaveProfile: %v", err)
		}
		rep, err := svc.Comparison(ctx, "u1", 2025, 4)
		if err != nil {
			t.Fatalf("Comparison: %v", err)
		}
		if rep.UserInfo.Age != 52 || rep.UserInfo.AgeGroup != core.AgeGroup50s || rep.UserInfo.PeerSource != peers.SourceStatic {
			t.Fatalf("UserInfo = %+v", rep.UserInfo)
		}
	})

	t.Run("storage failure is an error", func(t *testing.T) {
		bad := failingStore{memory.New()}
		svc := NewAnalyticsService(bad, bad, peerProvider, nil)
		if _, err := svc.Comparison(ctx, "u1", 2025, 4); !errors.Is(err, errStorage) {
			t.Fatalf("err = %v, want storage error", err)
		}
	})
}

func TestAnalyticsService_Prediction(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for _, tx := range []core.Transaction{
		{ID: "feb", OwnerID: "u1", Amount: 80000, RawCategory: "식비", Category: core.Food, OccurredOn: core.NewDate(2025, 2, 10)},
		{ID: "mar", OwnerID: "u1", Amount: 100000, RawCategory: "식비", Category: core.Food, OccurredOn: core.NewDate(2025, 3, 31)},
		{ID: "apr", OwnerID: "u1", Amount: 999999, RawCategory: "식비", Category: core.Food, OccurredOn: core.NewDate(2025, 4, 1)},
		{ID: "old", OwnerID: "u1", Amount: 999999, RawCategory: "식비", Category: core.Food, OccurredOn: core.NewDate(2024, 12, 31)},
	} {
		if err := store.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("AddTransaction: %v", err)
		}
	}
	svc := NewAnalyticsService(store, store, &fakePeers{static: peers.NewStaticSource()}, nil)

	p, err := svc.Prediction(ctx, "u1", 2025, 4)
	if err != nil {
		t.Fatalf("Prediction: %v", err)
	}
	food := p.Categories[core.Food]
	if food.AveragePrediction != 90000 || food.TrendPrediction != 120000 {
		t.Fatalf("food prediction = %+v", food)
	}
	if len(food.PastMonthlyData) != 2 || food.PastMonthlyData[0].Month != "2025-02" {
		t.Fatalf("PastMonthlyData = %+v", food.PastMonthlyData)
	}
	if len(p.Categories) != len(core.Categories) {
		t.Fatalf("got %d categories, want all", len(p.Categories))
	}
	if p.AverageBased != 90000 || p.TrendBased != 120000 {
		t.Fatalf("totals = %d / %d", p.AverageBased, p.TrendBased)
	}
}

func TestAnalyticsService_Budget(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewAnalyticsService(store, store, &fakePeers{static: peers.NewStaticSource()}, nil)

	rep, err := svc.Budget(ctx, "u1", 2000000, nil)
	if err != nil {
		t.Fatalf("Budget: %v", err)
	}
	if rep.MonthlySavingGoal != 400000 || rep.SpendableAmount != 1600000 {
		t.Fatalf("plan = %+v", rep.BudgetPlan)
	}

	neg := int64(-1)
	tests := []struct {
		name   string
		income int64
		goal   *int64
		want   error
	}{
		{"zero income", 0, nil, core.ErrInvalidIncome},
		{"negative income", -5, nil, core.ErrInvalidIncome},
		{"negative goal", 1000000, &neg, core.ErrInvalidSavingGoal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Budget(ctx, "u1", tt.income, tt.goal); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  점심  ", "점심"},
		{"<img src=x onerror=alert(1)>커피", "커피"},
		{"a\tb\x00c", "a bc"},
		{"5,000원 & 팁", "5,000원 & 팁"},
	}
	for _, tt := range tests {
		if got := sanitizeText(tt.in); got != tt.want {
			t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
