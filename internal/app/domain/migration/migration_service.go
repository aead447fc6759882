package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
	"github.com/FACorreiaa/loci-pulse/internal/app/observability/metrics"
)

// Ledger is the slice of the check-in store the migrator writes through.
type Ledger interface {
	ExistsForPair(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	InsertMigrated(ctx context.Context, userID, itemID uuid.UUID, checkedInAt time.Time, legacyRef string) (uuid.UUID, error)
}

// HistoryAppender mirrors the one the live check-in path uses so migrated
// participation shows up in user history too.
type HistoryAppender interface {
	AppendCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) error
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Run(ctx context.Context, dryRun bool) (*models.MigrationSummary, error)
}

type ServiceImpl struct {
	repo      Repository
	ledger    Ledger
	history   HistoryAppender
	chunkSize int
	logger    *zap.Logger
}

func NewService(repo Repository, ledger Ledger, history HistoryAppender, chunkSize int, logger *zap.Logger) *ServiceImpl {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	return &ServiceImpl{
		repo:      repo,
		ledger:    ledger,
		history:   history,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Run walks every item still carrying a legacy attendee array and backfills
// one closed ledger row per (user, item) pair. The pass is idempotent: a pair
// with any existing ledger row is skipped, so re-running after a crash picks
// up exactly where the data left off. With dryRun set, every read and
// resolution happens but no row is written, and the summary counts what a
// real run would have created.
func (s *ServiceImpl) Run(ctx context.Context, dryRun bool) (*models.MigrationSummary, error) {
	l := s.logger.With(zap.String("method", "Run"), zap.Bool("dry_run", dryRun))
	start := time.Now()

	summary := &models.MigrationSummary{
		DryRun:        dryRun,
		CreatedByKind: make(map[string]int),
	}

	afterID := uuid.Nil
	for {
		if err := ctx.Err(); err != nil {
			l.Warn("Migration cancelled", zap.Int("items_processed", summary.ItemsProcessed))
			return nil, fmt.Errorf("migration cancelled: %w", err)
		}

		chunk, err := s.repo.ListLegacyItems(ctx, afterID, s.chunkSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list legacy items: %w", err)
		}
		if len(chunk) == 0 {
			break
		}

		for _, item := range chunk {
			if err := s.migrateItem(ctx, item, dryRun, summary); err != nil {
				return nil, err
			}
			summary.ItemsProcessed++
			afterID = item.ItemID
		}
	}

	summary.DurationSeconds = time.Since(start).Seconds()
	metrics.Get().MigrationRunsTotal.Add(ctx, 1)

	l.Info("Migration pass complete",
		zap.Int("items_processed", summary.ItemsProcessed),
		zap.Int("records_created", summary.RecordsCreated),
		zap.Int("pairs_skipped", summary.PairsSkipped),
		zap.Int("unresolved_refs", summary.UnresolvedRefs),
		zap.Int("pairs_failed", summary.PairsFailed),
		zap.Float64("duration_seconds", summary.DurationSeconds))
	return summary, nil
}

func (s *ServiceImpl) migrateItem(ctx context.Context, item models.LegacyItem, dryRun bool, summary *models.MigrationSummary) error {
	for _, legacyRef := range item.LegacyAttendeeIDs {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("migration cancelled: %w", err)
		}
		summary.PairsProcessed++

		userID, err := s.repo.ResolveLegacyRef(ctx, legacyRef)
		if err != nil {
			if errors.Is(err, models.ErrUnresolvedRef) {
				summary.UnresolvedRefs++
				s.logger.Warn("Skipping unresolved legacy ref",
					zap.String("legacy_ref", legacyRef),
					zap.String("item_id", item.ItemID.String()))
				continue
			}
			summary.PairsFailed++
			s.logger.Warn("Failed to resolve legacy ref",
				zap.String("legacy_ref", legacyRef), zap.Error(err))
			continue
		}

		exists, err := s.ledger.ExistsForPair(ctx, userID, item.ItemID)
		if err != nil {
			summary.PairsFailed++
			s.logger.Warn("Failed to check ledger for pair",
				zap.String("user_id", userID.String()),
				zap.String("item_id", item.ItemID.String()), zap.Error(err))
			continue
		}
		if exists {
			summary.PairsSkipped++
			continue
		}

		if !dryRun {
			if _, err := s.ledger.InsertMigrated(ctx, userID, item.ItemID, item.CreatedAt, legacyRef); err != nil {
				summary.PairsFailed++
				s.logger.Warn("Failed to insert migrated check-in",
					zap.String("user_id", userID.String()),
					zap.String("item_id", item.ItemID.String()), zap.Error(err))
				continue
			}
			if err := s.history.AppendCheckIn(ctx, userID, item.ItemID, item.CreatedAt); err != nil {
				// The ledger row is the source of truth; history is best-effort.
				s.logger.Warn("Failed to append migrated history",
					zap.String("user_id", userID.String()),
					zap.String("item_id", item.ItemID.String()), zap.Error(err))
			}
		}
		summary.RecordsCreated++
		summary.CreatedByKind[string(item.Kind)]++
	}
	return nil
}
