package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// PgEventStore appends and scans engagement events. Events are immutable
// once written; there is no update path.
type PgEventStore struct {
	db *sqlx.DB
}

func NewPgEventStore(db *sql.DB) *PgEventStore {
	return &PgEventStore{db: sqlx.NewDb(db, "postgres")}
}

// Insert appends a single event. The location point is built from lat/lon
// when both are present, NULL otherwise.
func (p *PgEventStore) Insert(ctx context.Context, ev *models.EngagementEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	stmt := `
INSERT INTO user_events (id, user_id, article_id, event_type, occurred_at, user_location)
VALUES ($1, $2, $3, $4, $5,
        CASE WHEN $6::float8 IS NULL OR $7::float8 IS NULL THEN NULL
             ELSE ST_SetSRID(ST_MakePoint($7::float8, $6::float8), 4326)::geography END)
`
	_, err := p.db.ExecContext(ctx, stmt,
		ev.ID, ev.UserID, ev.ArticleID, string(ev.Kind), ev.OccurredAt, ev.UserLat, ev.UserLon)
	return storeErr("insert event", err)
}

// InsertBatch appends many events in one transaction. Events without a
// location are skipped; batch writers always attach coordinates.
func (p *PgEventStore) InsertBatch(ctx context.Context, events []*models.EngagementEvent) error {
	located := make([]*models.EngagementEvent, 0, len(events))
	for _, ev := range events {
		if ev.UserLat != nil && ev.UserLon != nil {
			located = append(located, ev)
		}
	}
	if len(located) == 0 {
		return nil
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin event batch", err)
	}

	stmt := `
INSERT INTO user_events (id, user_id, article_id, event_type, occurred_at,
                         user_location)
VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($7, $6), 4326)::geography)
`
	for _, ev := range located {
		if ev.ID == "" {
			ev.ID = uuid.New().String()
		}
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, stmt,
			ev.ID, ev.UserID, ev.ArticleID, string(ev.Kind), ev.OccurredAt,
			*ev.UserLat, *ev.UserLon); err != nil {
			tx.Rollback()
			return storeErr("insert event batch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit event batch", err)
	}
	return nil
}

// EventsSince scans events newer than now-windowHours, optionally limited
// to those within bound. Bounded scans project each event's distance to the
// bound center in km.
func (p *PgEventStore) EventsSince(ctx context.Context, windowHours int, bound *models.GeoBound) ([]models.EventObservation, error) {
	rows := []models.EventObservation{}

	if bound == nil {
		stmt := `
SELECT article_id, event_type, occurred_at, NULL::float8 AS distance_km
FROM user_events
WHERE occurred_at >= NOW() - ($1 * INTERVAL '1 hour')
`
		if err := p.db.SelectContext(ctx, &rows, stmt, windowHours); err != nil {
			return nil, storeErr("scan events", err)
		}
		return rows, nil
	}

	stmt := `
SELECT article_id, event_type, occurred_at,
       ST_Distance(user_location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
FROM user_events
WHERE occurred_at >= NOW() - ($3 * INTERVAL '1 hour')
  AND ST_DWithin(user_location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $4)
`
	if err := p.db.SelectContext(ctx, &rows, stmt,
		bound.Lon, bound.Lat, windowHours, bound.RadiusKm*1000); err != nil {
		return nil, storeErr("scan events near", err)
	}
	return rows, nil
}
