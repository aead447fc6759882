package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository maintains the per-user set of distinct items ever checked into.
// Append-only: rows survive check-out.
type Repository interface {
	Append(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error
	GetHistory(ctx context.Context, userID uuid.UUID) (*models.UserHistory, error)
	GetItemSummaries(ctx context.Context, itemIDs []uuid.UUID) ([]models.ItemSummary, error)
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

// Append inserts the (user, item) pair with set semantics. The item kind is
// resolved from the item row so callers never pass a mismatched category.
func (r *RepositoryImpl) Append(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error {
	query := `
        INSERT INTO user_item_history (user_id, item_id, item_kind, first_checked_in_at)
        SELECT $1, id, kind, $3 FROM items WHERE id = $2
        ON CONFLICT (user_id, item_id) DO NOTHING
    `
	result, err := r.pgpool.Exec(ctx, query, userID, itemID, at)
	if err != nil {
		return fmt.Errorf("failed to append user history: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Either the pair already exists (fine, set semantics) or the item
		// is unknown; distinguish only when the item is missing.
		var exists bool
		if err := r.pgpool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to verify item for history append: %w", err)
		}
		if !exists {
			return fmt.Errorf("item %s not found for history append: %w", itemID, models.ErrNotFound)
		}
	}
	return nil
}

func (r *RepositoryImpl) GetHistory(ctx context.Context, userID uuid.UUID) (*models.UserHistory, error) {
	query := `
        SELECT item_id, item_kind
        FROM user_item_history
        WHERE user_id = $1
        ORDER BY first_checked_in_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user history: %w", err)
	}
	defer rows.Close()

	hist := &models.UserHistory{UserID: userID}
	for rows.Next() {
		var itemID uuid.UUID
		var kind models.ItemKind
		if err := rows.Scan(&itemID, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan user history row: %w", err)
		}
		switch kind {
		case models.ItemKindVenue:
			hist.VenueIDs = append(hist.VenueIDs, itemID)
		case models.ItemKindEvent:
			hist.EventIDs = append(hist.EventIDs, itemID)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user history rows: %w", err)
	}

	return hist, nil
}

func (r *RepositoryImpl) GetItemSummaries(ctx context.Context, itemIDs []uuid.UUID) ([]models.ItemSummary, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	query := `
        SELECT id, kind, name, city, popularity_score
        FROM items
        WHERE id = ANY($1)
    `
	rows, err := r.pgpool.Query(ctx, query, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query item summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.ItemSummary
	for rows.Next() {
		var s models.ItemSummary
		if err := rows.Scan(&s.ID, &s.Kind, &s.Name, &s.City, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan item summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item summary rows: %w", err)
	}

	return summaries, nil
}
