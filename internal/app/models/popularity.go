package models

import (
	"time"

	"github.com/google/uuid"
)

// Score weights. The batch recompute always applies the composite formula;
// the incremental path uses the fixed +5/-2 deltas below. The asymmetry is
// deliberate observed behavior and is reconciled by every recompute pass.
const (
	RecentWeight = 5.0
	WeeklyWeight = 2.0
	TotalWeight  = 0.5

	CheckInScoreDelta  = 5.0
	CheckOutScoreDelta = 2.0

	RecentWindow = 24 * time.Hour
	WeeklyWindow = 7 * 24 * time.Hour
)

// PopularityAggregate is the derived popularity state for one item, fully
// recomputable from the check-in ledger. Between recompute passes the
// incrementally maintained value may be stale; it is read-available
// immediately and re-corrected at most once per recompute interval.
type PopularityAggregate struct {
	RecentCount int       `json:"recent_count"`
	WeeklyCount int       `json:"weekly_count"`
	TotalCount  int       `json:"total_count"`
	Score       float64   `json:"score"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompositeScore applies the authoritative recompute formula.
func CompositeScore(recent, weekly, total int) float64 {
	return RecentWeight*float64(recent) + WeeklyWeight*float64(weekly) + TotalWeight*float64(total)
}

// WindowCounts is the per-item result of counting ledger rows per window.
type WindowCounts struct {
	ItemID uuid.UUID
	Recent int
	Weekly int
	Total  int
}

// Timeframe selects the ranking counter for trending queries.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeAll   Timeframe = "all"
	TimeframeScore Timeframe = "" // default: composite score
)

type TrendingQuery struct {
	City      string
	Limit     int
	Timeframe Timeframe
}
