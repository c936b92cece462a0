package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"donghaeng/internal/analytics"
	"donghaeng/internal/core"
	applog "donghaeng/internal/log"
	"donghaeng/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger.WithComponent(applog.ComponentStorage)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AddTransaction implements ports.TransactionWriter
func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, amount, raw_category, category, occurred_on, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Amount, t.RawCategory, string(t.Category), t.OccurredOn.String(), t.Description, t.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		applog.NewFields().WithTransaction(t.ID, t.Amount, t.RawCategory, string(t.Category)).WithOwner(t.OwnerID).ToSlice()...)
	return nil
}

// DeleteTransaction implements ports.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListTransactions implements ports.TransactionLister
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, amount, raw_category, category, occurred_on, description, created_at
		FROM transactions
		WHERE owner_id = ? AND occurred_on BETWEEN ? AND ?
		ORDER BY occurred_on, created_at, id`,
		ownerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t          core.Transaction
			category   string
			occurredOn string
			createdAt  int64
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Amount, &t.RawCategory, &category, &occurredOn, &t.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(occurredOn)
		if err != nil {
			return nil, fmt.Errorf("transaction %s has bad date %q: %w", t.ID, occurredOn, err)
		}
		t.Category = core.Category(category)
		t.OccurredOn = d
		t.CreatedAt = time.Unix(0, createdAt).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetProfile implements ports.ProfileReader
func (r *SQLiteRepository) GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error) {
	var (
		p         = core.UserProfile{OwnerID: ownerID}
		gender    string
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT age, gender, updated_at FROM user_profiles WHERE owner_id = ?`, ownerID).
		Scan(&p.Age, &gender, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, ports.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	p.Gender = core.Gender(gender)
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return p, nil
}

// SaveProfile implements ports.ProfileWriter
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (owner_id, age, gender, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET age = excluded.age, gender = excluded.gender, updated_at = excluded.updated_at`,
		p.OwnerID, p.Age, string(p.Gender), p.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// ListMappings implements ports.MappingStore
func (r *SQLiteRepository) ListMappings(ctx context.Context) ([]analytics.Mapping, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, category FROM category_mappings ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	out := make([]analytics.Mapping, 0)
	for rows.Next() {
		var label, category string
		if err := rows.Scan(&label, &category); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		c := core.Category(category)
		if !c.IsValid() {
			r.logger.WarnContext(ctx, "Skipping stored mapping with unknown category",
				applog.FieldRawCategory, label, applog.FieldCategory, category)
			continue
		}
		out = append(out, analytics.Mapping{Label: label, Category: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mappings: %w", err)
	}
	return out, nil
}

// SaveMapping implements ports.MappingStore
func (r *SQLiteRepository) SaveMapping(ctx context.Context, m analytics.Mapping) error {
	key := analytics.MappingKey(m.Label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	if !m.Category.IsValid() {
		return core.ErrInvalidCategory
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO category_mappings (label_key, label, category) VALUES (?, ?, ?)
		ON CONFLICT(label_key) DO UPDATE SET label = excluded.label, category = excluded.category`,
		key, strings.TrimSpace(m.Label), string(m.Category))
	if err != nil {
		return fmt.Errorf("save mapping: %w", err)
	}
	return nil
}

// DeleteMapping implements ports.MappingStore
func (r *SQLiteRepository) DeleteMapping(ctx context.Context, label string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM category_mappings WHERE label_key = ?`, analytics.MappingKey(label))
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	} else if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// RecordMappingGap implements ports.GapRecorder
func (r *SQLiteRepository) RecordMappingGap(ctx context.Context, label string, seenAt time.Time) error {
	key := analytics.MappingKey(label)
	if key == "" {
		return core.ErrEmptyCategory
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mapping_gaps (label_key, label, count, last_seen) VALUES (?, ?, 1, ?)
		ON CONFLICT(label_key) DO UPDATE SET
			count = count + 1,
			label = excluded.label,
			last_seen = MAX(last_seen, excluded.last_seen)`,
		key, strings.TrimSpace(label), seenAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record mapping gap: %w", err)
	}
	return nil
}

// ListMappingGaps implements ports.GapRecorder
func (r *SQLiteRepository) ListMappingGaps(ctx context.Context) ([]ports.MappingGap, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label, count, last_seen FROM mapping_gaps ORDER BY count DESC, label`)
	if err != nil {
		return nil, fmt.Errorf("list mapping gaps: %w", err)
	}
	defer rows.Close()

	out := make([]ports.MappingGap, 0)
	for rows.Next() {
		var (
			g        ports.MappingGap
			lastSeen int64
		)
		if err := rows.Scan(&g.Label, &g.Count, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan mapping gap: %w", err)
		}
		g.LastSeen = time.Unix(0, lastSeen).UTC()
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mapping gaps: %w", err)
	}
	return out, nil
}

var _ ports.Store = (*SQLiteRepository)(nil)
