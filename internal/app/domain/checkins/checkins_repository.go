package checkins

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-pulse/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// PGXPool is the subset of pgxpool.Pool the ledger uses. pgxmock satisfies
// it in tests.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is the append-only check-in ledger. Rows are never deleted;
// check-out is the single permitted mutation.
type Repository interface {
	RecordCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error)
	RecordCheckOut(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error)
	InsertMigrated(ctx context.Context, userID, itemID uuid.UUID, checkedInAt time.Time, legacyRef string) (uuid.UUID, error)
	ExistsForPair(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
	ListRecords(ctx context.Context, filter models.LedgerFilter) ([]models.CheckInRecord, error)
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool PGXPool
}

func NewRepository(pgxpool PGXPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

const uniqueViolation = "23505"

// RecordCheckIn appends a live ledger row. The partial unique index on
// active rows enforces the one-active-record-per-pair invariant; a second
// check-in while one is active surfaces as ErrConflict.
func (r *RepositoryImpl) RecordCheckIn(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error) {
	ctx, span := otel.Tracer("Repository").Start(ctx, "RecordCheckIn", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("item.id", itemID.String()),
	))
	defer span.End()

	query := `
        INSERT INTO check_ins (user_id, item_id, checked_in_at, is_active, provenance)
        VALUES ($1, $2, $3, TRUE, $4)
        RETURNING id
    `
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query, userID, itemID, at, models.ProvenanceLive).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			span.SetStatus(codes.Ok, "Active check-in already exists")
			return uuid.Nil, fmt.Errorf("active check-in exists for user %s item %s: %w", userID, itemID, models.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to insert check-in")
		return uuid.Nil, fmt.Errorf("failed to insert check-in: %w", err)
	}

	r.logger.Info("Check-in recorded",
		zap.String("record_id", id.String()),
		zap.String("user_id", userID.String()),
		zap.String("item_id", itemID.String()))
	span.SetStatus(codes.Ok, "Check-in recorded")
	return id, nil
}

// RecordCheckOut closes the single active row for the pair.
func (r *RepositoryImpl) RecordCheckOut(ctx context.Context, userID, itemID uuid.UUID, at time.Time) (uuid.UUID, error) {
	ctx, span := otel.Tracer("Repository").Start(ctx, "RecordCheckOut", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("item.id", itemID.String()),
	))
	defer span.End()

	query := `
        UPDATE check_ins
        SET is_active = FALSE, checked_out_at = $3
        WHERE user_id = $1 AND item_id = $2 AND is_active
        RETURNING id
    `
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query, userID, itemID, at).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "No active check-in")
			return uuid.Nil, fmt.Errorf("no active check-in for user %s item %s: %w", userID, itemID, models.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to close check-in")
		return uuid.Nil, fmt.Errorf("failed to close check-in: %w", err)
	}

	r.logger.Info("Check-out recorded",
		zap.String("record_id", id.String()),
		zap.String("user_id", userID.String()),
		zap.String("item_id", itemID.String()))
	span.SetStatus(codes.Ok, "Check-out recorded")
	return id, nil
}

// InsertMigrated appends a backfilled ledger row: already checked out, stamped
// with the legacy item's creation time and the original legacy identifier.
func (r *RepositoryImpl) InsertMigrated(ctx context.Context, userID, itemID uuid.UUID, checkedInAt time.Time, legacyRef string) (uuid.UUID, error) {
	query := `
        INSERT INTO check_ins (user_id, item_id, checked_in_at, checked_out_at, is_active, provenance, legacy_ref)
        VALUES ($1, $2, $3, $3, FALSE, $4, $5)
        RETURNING id
    `
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query, userID, itemID, checkedInAt, models.ProvenanceMigrated, legacyRef).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert migrated check-in: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) ExistsForPair(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM check_ins WHERE user_id = $1 AND item_id = $2)`
	err := r.pgpool.QueryRow(ctx, query, userID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger for pair: %w", err)
	}
	return exists, nil
}

// ListRecords reads the ledger with optional item/user/window constraints.
func (r *RepositoryImpl) ListRecords(ctx context.Context, filter models.LedgerFilter) ([]models.CheckInRecord, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("id", "user_id", "item_id", "checked_in_at", "checked_out_at", "is_active", "provenance", "legacy_ref", "created_at").
		From("check_ins").
		OrderBy("checked_in_at DESC")

	if filter.ItemID != uuid.Nil {
		builder = builder.Where(sq.Eq{"item_id": filter.ItemID})
	}
	if filter.UserID != uuid.Nil {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if !filter.Since.IsZero() {
		builder = builder.Where(sq.GtOrEq{"checked_in_at": filter.Since})
	}
	if filter.ActiveOnly {
		builder = builder.Where(sq.Eq{"is_active": true})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check_ins: %w", err)
	}
	defer rows.Close()

	var records []models.CheckInRecord
	for rows.Next() {
		var rec models.CheckInRecord
		err := rows.Scan(&rec.ID, &rec.UserID, &rec.ItemID, &rec.CheckedInAt, &rec.CheckedOutAt,
			&rec.IsActive, &rec.Provenance, &rec.LegacyRef, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check-in row: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating check-in rows: %w", err)
	}

	return records, nil
}
