package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository reads the pre-migration denormalized state: item rows still
// carrying embedded participant ID arrays, and the mapping from legacy
// participant identifiers to stable user UUIDs.
type Repository interface {
	ListLegacyItems(ctx context.Context, afterID uuid.UUID, limit int) ([]models.LegacyItem, error)
	ResolveLegacyRef(ctx context.Context, legacyRef string) (uuid.UUID, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool *pgxpool.Pool
}

func NewRepository(pgxpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

// ListLegacyItems pages through items with a non-empty legacy array, keyed
// by id so an interrupted run resumes from where it stopped.
func (r *RepositoryImpl) ListLegacyItems(ctx context.Context, afterID uuid.UUID, limit int) ([]models.LegacyItem, error) {
	query := `
        SELECT id, kind, created_at, legacy_attendee_ids
        FROM items
        WHERE cardinality(legacy_attendee_ids) > 0 AND id > $1
        ORDER BY id
        LIMIT $2
    `
	rows, err := r.pgpool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query legacy items: %w", err)
	}
	defer rows.Close()

	var items []models.LegacyItem
	for rows.Next() {
		var item models.LegacyItem
		if err := rows.Scan(&item.ItemID, &item.Kind, &item.CreatedAt, &item.LegacyAttendeeIDs); err != nil {
			return nil, fmt.Errorf("failed to scan legacy item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy item rows: %w", err)
	}

	return items, nil
}

func (r *RepositoryImpl) ResolveLegacyRef(ctx context.Context, legacyRef string) (uuid.UUID, error) {
	var userID uuid.UUID
	query := `SELECT user_id FROM legacy_user_refs WHERE legacy_ref = $1`
	err := r.pgpool.QueryRow(ctx, query, legacyRef).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("no user mapping for legacy ref %q: %w", legacyRef, models.ErrUnresolvedRef)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve legacy ref: %w", err)
	}
	return userID, nil
}
