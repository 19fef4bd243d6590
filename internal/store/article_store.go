package store

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	dbtypes "github.com/Milanpreetsingh/news-data-service/internal/db"
	"github.com/Milanpreetsingh/news-data-service/internal/query"
	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

const (
	defaultLimit = 10
	maxLimit     = 200
)

// articleColumns is the fixed result projection. Location is stored as a
// PostGIS geography point and decoded into separate lat/lon here; both come
// back NULL when the article has no location.
var articleColumns = []string{
	"id",
	"title",
	"description",
	"url",
	"publication_date",
	"source_name",
	"categories",
	"relevance_score",
	"ST_Y(location::geometry) AS latitude",
	"ST_X(location::geometry) AS longitude",
	"llm_summary",
}

// PgArticleStore reads and writes articles in Postgres.
type PgArticleStore struct {
	db *sqlx.DB
}

func NewPgArticleStore(db *sql.DB) *PgArticleStore {
	return &PgArticleStore{db: sqlx.NewDb(db, "postgres")}
}

// RunMigrations creates the schema this service needs.
func RunMigrations(db *sql.DB) error {
	initSQL := `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS articles(
  id UUID PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  url TEXT,
  publication_date TIMESTAMPTZ,
  source_name TEXT,
  categories JSONB,
  relevance_score DOUBLE PRECISION DEFAULT 0,
  location GEOGRAPHY(POINT, 4326),
  llm_summary TEXT,
  search_vector TSVECTOR GENERATED ALWAYS AS (
    to_tsvector('english', coalesce(title, '') || ' ' || coalesce(description, ''))
  ) STORED
);

CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(publication_date);
CREATE INDEX IF NOT EXISTS idx_articles_relevance ON articles(relevance_score);
CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source_name);
CREATE INDEX IF NOT EXISTS idx_articles_categories ON articles USING GIN (categories);
CREATE INDEX IF NOT EXISTS idx_articles_search ON articles USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS idx_articles_location ON articles USING GIST (location);

CREATE TABLE IF NOT EXISTS user_events(
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL,
  article_id UUID NOT NULL,
  event_type TEXT NOT NULL CHECK (event_type IN ('view', 'click', 'share')),
  occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  user_location GEOGRAPHY(POINT, 4326)
);

CREATE INDEX IF NOT EXISTS idx_user_events_occurred ON user_events(occurred_at);
CREATE INDEX IF NOT EXISTS idx_user_events_article ON user_events(article_id);
CREATE INDEX IF NOT EXISTS idx_user_events_location ON user_events USING GIST (user_location);
`
	_, err := db.Exec(initSQL)
	return storeErr("migrate", err)
}

// Find executes the composed predicate with pagination and returns a page
// of articles ordered per the predicate's OrderBy.
func (p *PgArticleStore) Find(ctx context.Context, criteria query.FilterCriteria) ([]*models.Article, error) {
	pred, err := query.Compose(criteria)
	if err != nil {
		return nil, err
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	qb := sq.Select(articleColumns...).From("articles")
	for _, extra := range pred.Extras() {
		qb = qb.Column(extra)
	}
	if conds := pred.Conditions(); len(conds) > 0 {
		qb = qb.Where(sq.And(conds))
	}
	qb = qb.OrderBy(pred.OrderBy()).
		Limit(uint64(limit)).
		Offset(uint64(criteria.Offset)).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, storeErr("build find", err)
	}

	rows := []*models.Article{}
	if err := p.db.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		return nil, storeErr("find articles", err)
	}
	return rows, nil
}

// Count returns the total row count matched by the same predicate, ignoring
// pagination and ordering.
func (p *PgArticleStore) Count(ctx context.Context, criteria query.FilterCriteria) (int, error) {
	pred, err := query.Compose(criteria)
	if err != nil {
		return 0, err
	}

	qb := sq.Select("COUNT(*)").From("articles")
	if conds := pred.Conditions(); len(conds) > 0 {
		qb = qb.Where(sq.And(conds))
	}
	sqlStr, args, err := qb.PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return 0, storeErr("build count", err)
	}

	var total int
	if err := p.db.GetContext(ctx, &total, sqlStr, args...); err != nil {
		return 0, storeErr("count articles", err)
	}
	return total, nil
}

// GetByIDs fetches articles by id. Missing ids are simply absent from the
// result; callers that care about order re-join by id.
func (p *PgArticleStore) GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error) {
	if len(ids) == 0 {
		return []*models.Article{}, nil
	}

	sqlStr := `
SELECT id, title, description, url, publication_date, source_name, categories, relevance_score,
       ST_Y(location::geometry) AS latitude,
       ST_X(location::geometry) AS longitude,
       llm_summary
FROM articles
WHERE id = ANY($1::uuid[])
`
	rows := []*models.Article{}
	if err := p.db.SelectContext(ctx, &rows, sqlStr, pq.StringArray(ids)); err != nil {
		return nil, storeErr("get by ids", err)
	}
	return rows, nil
}

// AllIDs returns every article id. Used by the event simulator.
func (p *PgArticleStore) AllIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := p.db.SelectContext(ctx, &ids, "SELECT id FROM articles ORDER BY publication_date DESC NULLS LAST"); err != nil {
		return nil, storeErr("all ids", err)
	}
	return ids, nil
}

// SaveMany upserts articles in one transaction. Categories are written as
// jsonb and the location point is built from lat/lon when both are present.
func (p *PgArticleStore) SaveMany(ctx context.Context, articles []*models.Article) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin save", err)
	}

	stmt := `
INSERT INTO articles (id, title, description, url, publication_date, source_name, categories, relevance_score, location, llm_summary)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8,
        CASE WHEN $9::float8 IS NULL OR $10::float8 IS NULL THEN NULL
             ELSE ST_SetSRID(ST_MakePoint($10::float8, $9::float8), 4326)::geography END,
        $11)
ON CONFLICT (id) DO UPDATE SET
 title = EXCLUDED.title,
 description = EXCLUDED.description,
 url = EXCLUDED.url,
 publication_date = EXCLUDED.publication_date,
 source_name = EXCLUDED.source_name,
 categories = EXCLUDED.categories,
 relevance_score = EXCLUDED.relevance_score,
 location = EXCLUDED.location,
 llm_summary = EXCLUDED.llm_summary;
`

	for _, a := range articles {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.Categories == nil {
			a.Categories = dbtypes.StringSlice{}
		}
		if a.PublishedAt.IsZero() {
			a.PublishedAt = time.Now().UTC()
		}

		_, err := tx.ExecContext(ctx, stmt,
			a.ID,
			a.Title,
			a.Description,
			a.URL,
			a.PublishedAt,
			a.SourceName,
			a.Categories,
			a.Relevance,
			a.Latitude,
			a.Longitude,
			a.LLMSummary,
		)
		if err != nil {
			tx.Rollback()
			return storeErr("insert article "+a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit save", err)
	}
	return nil
}
