package models

import (
	"time"

	"github.com/google/uuid"
)

// LegacyItem is the pre-migration denormalized shape: an item row still
// carrying its embedded participant ID array.
type LegacyItem struct {
	ItemID            uuid.UUID
	Kind              ItemKind
	CreatedAt         time.Time
	LegacyAttendeeIDs []string
}

// MigrationSummary reports one migration run. A dry run produces the same
// counts as a real run without committing any writes.
type MigrationSummary struct {
	DryRun          bool           `json:"dry_run"`
	ItemsProcessed  int            `json:"items_processed"`
	PairsProcessed  int            `json:"pairs_processed"`
	RecordsCreated  int            `json:"records_created"`
	PairsSkipped    int            `json:"pairs_skipped"`
	UnresolvedRefs  int            `json:"unresolved_refs"`
	PairsFailed     int            `json:"pairs_failed"`
	CreatedByKind   map[string]int `json:"created_by_kind"`
	DurationSeconds float64        `json:"duration_seconds"`
}
