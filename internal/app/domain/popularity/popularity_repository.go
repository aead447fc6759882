package popularity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository owns the denormalized popularity columns on item rows. The two
// write paths are kept deliberately distinct: atomic in-place deltas for the
// incremental path and unconditional overwrites for the recompute pass.
type Repository interface {
	ApplyCheckInDelta(ctx context.Context, itemID uuid.UUID) error
	ApplyCheckOutDelta(ctx context.Context, itemID uuid.UUID) error
	OverwriteAggregate(ctx context.Context, itemID uuid.UUID, agg models.PopularityAggregate) error
	ListItemsForRecompute(ctx context.Context) ([]uuid.UUID, error)
	CountWindows(ctx context.Context, itemID uuid.UUID, now time.Time) (models.WindowCounts, error)
	GetTrending(ctx context.Context, q models.TrendingQuery) ([]models.Item, error)
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

// ApplyCheckInDelta bumps all counters in one statement. The arithmetic runs
// inside the UPDATE so concurrent deltas for the same item never lose
// updates to a read-then-write race.
func (r *RepositoryImpl) ApplyCheckInDelta(ctx context.Context, itemID uuid.UUID) error {
	query := `
        UPDATE items
        SET recent_count = recent_count + 1,
            weekly_count = weekly_count + 1,
            total_count = total_count + 1,
            popularity_score = popularity_score + $2,
            popularity_updated_at = now()
        WHERE id = $1
    `
	result, err := r.pgpool.Exec(ctx, query, itemID, models.CheckInScoreDelta)
	if err != nil {
		return fmt.Errorf("failed to apply check-in delta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s not found for check-in delta: %w", itemID, models.ErrNotFound)
	}
	return nil
}

// ApplyCheckOutDelta reverses the recent contribution without ever touching
// total_count, which is historical and must never decrease.
func (r *RepositoryImpl) ApplyCheckOutDelta(ctx context.Context, itemID uuid.UUID) error {
	query := `
        UPDATE items
        SET recent_count = GREATEST(recent_count - 1, 0),
            popularity_score = GREATEST(popularity_score - $2, 0),
            popularity_updated_at = now()
        WHERE id = $1
    `
	result, err := r.pgpool.Exec(ctx, query, itemID, models.CheckOutScoreDelta)
	if err != nil {
		return fmt.Errorf("failed to apply check-out delta: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s not found for check-out delta: %w", itemID, models.ErrNotFound)
	}
	return nil
}

// OverwriteAggregate is the recompute write path. It wins any race with
// concurrent deltas; the pass is idempotent so last-writer-wins per pass
// is acceptable.
func (r *RepositoryImpl) OverwriteAggregate(ctx context.Context, itemID uuid.UUID, agg models.PopularityAggregate) error {
	query := `
        UPDATE items
        SET recent_count = $2,
            weekly_count = $3,
            total_count = $4,
            popularity_score = $5,
            popularity_updated_at = $6
        WHERE id = $1
    `
	result, err := r.pgpool.Exec(ctx, query, itemID,
		agg.RecentCount, agg.WeeklyCount, agg.TotalCount, agg.Score, agg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to overwrite aggregate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("item %s not found for aggregate overwrite: %w", itemID, models.ErrNotFound)
	}
	return nil
}

// ListItemsForRecompute returns every item with any ledger activity ever,
// plus any item still holding a non-zero aggregate. The union guarantees
// items that went cold are written back to zero instead of keeping a stale
// score.
func (r *RepositoryImpl) ListItemsForRecompute(ctx context.Context) ([]uuid.UUID, error) {
	query := `
        SELECT DISTINCT item_id FROM check_ins
        UNION
        SELECT id FROM items
        WHERE recent_count > 0 OR weekly_count > 0 OR total_count > 0 OR popularity_score > 0
    `
	rows, err := r.pgpool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for recompute: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recompute item ids: %w", err)
	}
	return ids, nil
}

// CountWindows counts ledger rows per time window. Checked-out records still
// count when their check-in time falls inside the window; only the lower
// bound is window-dependent.
func (r *RepositoryImpl) CountWindows(ctx context.Context, itemID uuid.UUID, now time.Time) (models.WindowCounts, error) {
	query := `
        SELECT
            COUNT(*) FILTER (WHERE checked_in_at >= $2) AS recent,
            COUNT(*) FILTER (WHERE checked_in_at >= $3) AS weekly,
            COUNT(*) AS total
        FROM check_ins
        WHERE item_id = $1
    `
	counts := models.WindowCounts{ItemID: itemID}
	err := r.pgpool.QueryRow(ctx, query, itemID,
		now.Add(-models.RecentWindow), now.Add(-models.WeeklyWindow)).
		Scan(&counts.Recent, &counts.Weekly, &counts.Total)
	if err != nil {
		return models.WindowCounts{}, fmt.Errorf("failed to count ledger windows: %w", err)
	}
	return counts, nil
}

// GetTrending returns ranked items, optionally scoped to a city. The
// timeframe picks the ordering counter; the composite score is the default.
func (r *RepositoryImpl) GetTrending(ctx context.Context, q models.TrendingQuery) ([]models.Item, error) {
	ctx, span := otel.Tracer("Repository").Start(ctx, "GetTrending", trace.WithAttributes(
		attribute.String("city", q.City),
		attribute.Int("limit", q.Limit),
	))
	defer span.End()

	orderBy := "popularity_score DESC"
	switch q.Timeframe {
	case models.TimeframeDay:
		orderBy = "recent_count DESC, popularity_score DESC"
	case models.TimeframeWeek:
		orderBy = "weekly_count DESC, popularity_score DESC"
	case models.TimeframeAll:
		orderBy = "total_count DESC, popularity_score DESC"
	}

	query := fmt.Sprintf(`
        SELECT id, kind, name, city, COALESCE(latitude, 0), COALESCE(longitude, 0),
               recent_count, weekly_count, total_count, popularity_score,
               COALESCE(popularity_updated_at, created_at), created_at
        FROM items
        WHERE ($1 = '' OR city = $1)
        ORDER BY %s
        LIMIT $2
    `, orderBy)

	rows, err := r.pgpool.Query(ctx, query, q.City, q.Limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to query trending items")
		return nil, fmt.Errorf("failed to query trending items: %w", err)
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
			return nil, fmt.Errorf("failed to scan trending item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trending item rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Trending items retrieved")
	return items, nil
}
