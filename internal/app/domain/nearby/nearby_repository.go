package nearby

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository supplies the candidate pool for the in-memory distance filter.
type Repository interface {
	ListLocatedItems(ctx context.Context, limit int) ([]models.Item, error)
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

// ListLocatedItems over-fetches up to limit items that have coordinates,
// best-scored first so truncation drops the least interesting candidates.
func (r *RepositoryImpl) ListLocatedItems(ctx context.Context, limit int) ([]models.Item, error) {
	query := `
        SELECT id, kind, name, city, latitude, longitude,
               recent_count, weekly_count, total_count, popularity_score,
               COALESCE(popularity_updated_at, created_at), created_at
        FROM items
        WHERE latitude IS NOT NULL AND longitude IS NOT NULL
        ORDER BY popularity_score DESC
        LIMIT $1
    `
	rows, err := r.pgpool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query located items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		err := rows.Scan(&item.ID, &item.Kind, &item.Name, &item.City,
			&item.Latitude, &item.Longitude,
			&item.Popularity.RecentCount, &item.Popularity.WeeklyCount,
			&item.Popularity.TotalCount, &item.Popularity.Score,
			&item.Popularity.UpdatedAt, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan located item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating located item rows: %w", err)
	}

	return items, nil
}
