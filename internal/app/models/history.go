package models

import "github.com/google/uuid"

// UserHistory is the derived per-user record of distinct items ever checked
// into, split by item category. Entries are permanent: check-out never
// removes them, "currently checked in" is derived from the ledger instead.
type UserHistory struct {
	UserID   uuid.UUID   `json:"user_id"`
	VenueIDs []uuid.UUID `json:"venue_ids"`
	EventIDs []uuid.UUID `json:"event_ids"`
}

type UserHistoryResponse struct {
	UserHistory
	Items []ItemSummary `json:"items"`
}
