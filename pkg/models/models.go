package models

import (
	"time"

	dbtypes "github.com/Milanpreetsingh/news-data-service/internal/db"
)

// Article is a news article record used across the service. Latitude and
// longitude are pointers because many articles carry no location; both are
// set or both are nil.
type Article struct {
	ID          string              `db:"id" json:"id"`
	Title       string              `db:"title" json:"title"`
	Description string              `db:"description" json:"description"`
	URL         string              `db:"url" json:"url"`
	PublishedAt time.Time           `db:"publication_date" json:"publication_date"`
	SourceName  string              `db:"source_name" json:"source_name"`
	Categories  dbtypes.StringSlice `db:"categories" json:"categories"`
	Relevance   float64             `db:"relevance_score" json:"relevance_score"`
	Latitude    *float64            `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64            `db:"longitude" json:"longitude,omitempty"`

	// LLMSummary is enrichment state set after a read, never part of the
	// row identity.
	LLMSummary string `db:"llm_summary" json:"llm_summary,omitempty"`

	// DistanceKm and TextRank are populated only when the query projected
	// them (spatial / full-text reads). Not persisted.
	DistanceKm float64 `db:"distance_km" json:"distance_km,omitempty"`
	TextRank   float64 `db:"text_rank" json:"-"`

	// TrendingScore is set on the trending path only.
	TrendingScore float64 `db:"-" json:"trending_score,omitempty"`
}

// EventKind enumerates the engagement event types.
type EventKind string

const (
	EventView  EventKind = "view"
	EventClick EventKind = "click"
	EventShare EventKind = "share"
)

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventView, EventClick, EventShare:
		return true
	}
	return false
}

// EngagementEvent is an append-only record of a user interacting with an
// article. UserLat/UserLon are optional and always set together.
type EngagementEvent struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ArticleID  string    `db:"article_id" json:"article_id"`
	Kind       EventKind `db:"event_type" json:"event_type"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	UserLat    *float64  `db:"user_lat" json:"user_lat,omitempty"`
	UserLon    *float64  `db:"user_lon" json:"user_lon,omitempty"`
}

// GeoBound restricts a scan to events within RadiusKm of a center point.
type GeoBound struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// EventObservation is the minimal per-event view the trending engine
// consumes. DistanceKm is set only when the scan carried a GeoBound.
type EventObservation struct {
	ArticleID  string    `db:"article_id"`
	Kind       EventKind `db:"event_type"`
	OccurredAt time.Time `db:"occurred_at"`
	DistanceKm *float64  `db:"distance_km"`
}

// Page is a paginated article result with the metadata the handlers echo
// back to clients.
type Page struct {
	Articles []*Article `json:"articles"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
