package models

import (
	"time"

	"github.com/google/uuid"
)

// Provenance records how a check-in entered the ledger.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenanceMigrated Provenance = "migrated-legacy"
)

// CheckInRecord is one ledger row. Immutable except for the single
// check-out transition (is_active true -> false, checked_out_at set).
// Rows are never deleted; the ledger is the source of truth for all
// attendance history.
type CheckInRecord struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	ItemID       uuid.UUID  `json:"item_id"`
	CheckedInAt  time.Time  `json:"checked_in_at"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
	IsActive     bool       `json:"is_active"`
	Provenance   Provenance `json:"provenance"`
	LegacyRef    *string    `json:"legacy_ref,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// LedgerFilter narrows ledger queries. Zero values mean "no constraint".
type LedgerFilter struct {
	ItemID     uuid.UUID
	UserID     uuid.UUID
	Since      time.Time
	ActiveOnly bool
	Limit      int
}

type CheckInRequest struct {
	UserID uuid.UUID  `json:"userId" binding:"required"`
	ItemID uuid.UUID  `json:"itemId" binding:"required"`
	At     *time.Time `json:"at,omitempty"`
}

type CheckInResponse struct {
	RecordID uuid.UUID `json:"recordId"`
}
