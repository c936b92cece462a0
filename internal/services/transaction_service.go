package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"donghaeng/internal/amqp"
	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
	"donghaeng/internal/ports"
)

// EventPublisher publishes transaction events. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// NewTransaction is the caller input for CreateTransaction.
type NewTransaction struct {
	Amount      int64
	Category    string
	Date        core.Date
	Description string
}

// TransactionService stores transactions and user profiles, resolving
// categories at creation and announcing changes over AMQP when available.
type TransactionService struct {
	store      ports.Store
	normalizer *analytics.Normalizer
	publisher  EventPublisher // nil disables events
	logger     *applog.Logger

	now   func() time.Time
	newID func() string
}

func NewTransactionService(store ports.Store, normalizer *analytics.Normalizer, publisher EventPublisher, logger *applog.Logger) *TransactionService {
	if normalizer == nil {
		normalizer = analytics.NewNormalizer()
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &TransactionService{
		store:      store,
		normalizer: normalizer,
		publisher:  publisher,
		logger:     logger.WithComponent(applog.ComponentTransaction),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// CreateTransaction validates, normalizes and stores a transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, ownerID string, in NewTransaction) (core.Transaction, error) {
	t := core.Transaction{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Amount:      in.Amount,
		RawCategory: strings.TrimSpace(in.Category),
		OccurredOn:  in.Date,
		Description: sanitizeText(in.Description),
		CreatedAt:   s.now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	category, mapped := s.normalizer.Normalize(t.RawCategory)
	t.Category = category
	if !mapped {
		s.logger.WarnContext(ctx, "Unmapped category, using Other",
			applog.NewFields().WithOperation(applog.OpNormalize).WithOwner(ownerID).
				WithTransaction(t.ID, t.Amount, t.RawCategory, string(category)).ToSlice()...)
	}

	if err := s.store.AddTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.NewFields().WithOperation(applog.OpCreate).WithOwner(ownerID).
			WithTransaction(t.ID, t.Amount, t.RawCategory, string(category)).ToSlice()...)

	s.publish(ctx, amqp.NewCreatedEvent(t, mapped))
	return t, nil
}

// ListTransactions returns the owner's transactions in year/month, oldest first.
func (s *TransactionService) ListTransactions(ctx context.Context, ownerID string, year, month int) ([]core.Transaction, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	from, to := core.MonthRange(year, month)
	txs, err := s.store.ListTransactions(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldOwnerID, ownerID, applog.FieldTxID, id)

	s.publish(ctx, amqp.NewDeletedEvent(ownerID, id))
	return nil
}

// publish never fails the caller; the transaction is already stored.
func (s *TransactionService) publish(ctx context.Context, event *amqp.TransactionEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", "type", event.Type)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.NewFields().WithOperation(applog.OpPublish).WithError(err, applog.ErrorTypeNetwork).ToSlice()...)
	}
}

func (s *TransactionService) GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error) {
	p, err := s.store.GetProfile(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return core.UserProfile{}, err
		}
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// SaveProfile creates or replaces the owner's profile.
func (s *TransactionService) SaveProfile(ctx context.Context, ownerID string, age int, gender string) (core.UserProfile, error) {
	g, err := core.ParseGender(gender)
	if err != nil {
		return core.UserProfile{}, err
	}
	p := core.UserProfile{OwnerID: ownerID, Age: age, Gender: g, UpdatedAt: s.now().UTC()}
	if err := p.Validate(); err != nil {
		return core.UserProfile{}, err
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return core.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Profile saved",
		applog.FieldOperation, applog.OpUpdate, applog.FieldOwnerID, ownerID,
		applog.FieldAgeGroup, string(core.AgeGroupFor(age)), applog.FieldGender, string(g))
	return p, nil
}
