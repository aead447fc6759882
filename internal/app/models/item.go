package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind distinguishes the two item categories sharing one identifier space.
type ItemKind string

const (
	ItemKindVenue ItemKind = "venue"
	ItemKindEvent ItemKind = "event"
)

func (k ItemKind) Valid() bool {
	return k == ItemKindVenue || k == ItemKindEvent
}

// Item is a venue or an event. Popularity columns are denormalized onto the
// item row and owned by the popularity domain; everything else is static.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Kind      ItemKind  `json:"kind"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`

	Popularity PopularityAggregate `json:"popularity"`

	CreatedAt time.Time `json:"created_at"`
}

// ItemSummary is the slim projection returned inside history and search payloads.
type ItemSummary struct {
	ID    uuid.UUID `json:"id"`
	Kind  ItemKind  `json:"kind"`
	Name  string    `json:"name"`
	City  string    `json:"city"`
	Score float64   `json:"score"`
}

// NearbyItem is a proximity search result. Distance is precomputed by the
// search service, in both units for caller convenience.
type NearbyItem struct {
	Item
	DistanceMeters float64 `json:"distance_meters"`
	DistanceMiles  float64 `json:"distance_miles"`
}
