// Package ports declares the storage-facing interfaces the services depend on.
package ports

import (
	"context"
	"errors"
	"time"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
)

// ErrNotFound is returned when a keyed record does not exist for its owner.
var ErrNotFound = errors.New("not found")

// MappingGap counts how often an unmapped raw category label was seen.
type MappingGap struct {
	Label    string
	Count    int64
	LastSeen time.Time
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		AddTransaction(ctx context.Context, t core.Transaction) error
		// DeleteTransaction returns ErrNotFound when ownerID has no transaction id.
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	// TransactionLister returns an owner's transactions with OccurredOn in
	// [from, to], inclusive, oldest first.
	TransactionLister interface {
		ListTransactions(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error)
	}

	ProfileReader interface {
		// GetProfile returns ErrNotFound when the owner never saved a profile.
		GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error)
	}

	ProfileWriter interface {
		SaveProfile(ctx context.Context, p core.UserProfile) error
	}

	// MappingStore persists raw label overrides on top of the built-in table.
	MappingStore interface {
		ListMappings(ctx context.Context) ([]analytics.Mapping, error)
		SaveMapping(ctx context.Context, m analytics.Mapping) error
		DeleteMapping(ctx context.Context, label string) error
	}

	GapRecorder interface {
		RecordMappingGap(ctx context.Context, label string, seenAt time.Time) error
		ListMappingGaps(ctx context.Context) ([]MappingGap, error)
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Store is everything a storage backend provides.
type Store interface {
	TransactionWriter
	TransactionLister
	ProfileReader
	ProfileWriter
	MappingStore
	GapRecorder
	Pinger
}
