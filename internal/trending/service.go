package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// ErrNoTrendingData signals that no qualifying events exist for the
// requested area, as opposed to a transient fault.
var ErrNoTrendingData = errors.New("no trending data for this location")

// ErrBadEvent marks a malformed engagement event; the caller's fault.
var ErrBadEvent = errors.New("invalid engagement event")

const (
	defaultRadiusKm = 50.0
	defaultLimit    = 10
)

// ArticleSource is the slice of the article store the trending path needs.
type ArticleSource interface {
	GetByIDs(ctx context.Context, ids []string) ([]*models.Article, error)
	AllIDs(ctx context.Context) ([]string, error)
}

// EventSource reads and appends engagement events.
type EventSource interface {
	EventsSince(ctx context.Context, windowHours int, bound *models.GeoBound) ([]models.EventObservation, error)
	Insert(ctx context.Context, ev *models.EngagementEvent) error
	InsertBatch(ctx context.Context, events []*models.EngagementEvent) error
}

// Enricher attaches summaries to a batch of articles.
type Enricher interface {
	Enrich(ctx context.Context, articles []*models.Article)
}

// ResultCache is the geo-bucketed cache-aside layer.
type ResultCache interface {
	GetOrCompute(ctx context.Context, lat, lon float64, limit int,
		compute func(context.Context) ([]*models.Article, error)) ([]*models.Article, error)
}

// Service computes the "trending near me" feed: cache check, event
// aggregation, scoring, article join, enrichment, cache write-back.
type Service struct {
	articles ArticleSource
	events   EventSource
	cache    ResultCache
	enricher Enricher
	logger   zerolog.Logger
}

func NewService(articles ArticleSource, events EventSource, cache ResultCache, enricher Enricher, logger zerolog.Logger) *Service {
	return &Service{
		articles: articles,
		events:   events,
		cache:    cache,
		enricher: enricher,
		logger:   logger.With().Str("component", "trending").Logger(),
	}
}

// TrendingNear returns the ranked trending articles around (lat, lon).
// An empty computation is cached like any other result and reported to the
// caller as ErrNoTrendingData.
func (s *Service) TrendingNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Article, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}

	result, err := s.cache.GetOrCompute(ctx, lat, lon, limit, func(ctx context.Context) ([]*models.Article, error) {
		return s.compute(ctx, lat, lon, radiusKm, limit)
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNoTrendingData
	}
	return result, nil
}

func (s *Service) compute(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Article, error) {
	bound := &models.GeoBound{Lat: lat, Lon: lon, RadiusKm: radiusKm}
	events, err := s.events.EventsSince(ctx, AggregationWindowHours, bound)
	if err != nil {
		return nil, err
	}

	// Rank every candidate; the limit is applied after the article join so
	// that articles deleted since their events were recorded do not consume
	// result slots.
	stats := Aggregate(events)
	ranked := Rank(stats, time.Now().UTC(), 0)
	if len(ranked) == 0 {
		return []*models.Article{}, nil
	}

	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ArticleID
	}
	articles, err := s.articles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}

	// Re-join in rank order; articles deleted since the events were
	// recorded are dropped silently.
	out := make([]*models.Article, 0, len(ranked))
	for _, r := range ranked {
		a, ok := byID[r.ArticleID]
		if !ok {
			continue
		}
		a.TrendingScore = r.Score
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}

	s.enricher.Enrich(ctx, out)
	return out, nil
}

// RecordEvent appends one engagement event.
func (s *Service) RecordEvent(ctx context.Context, ev *models.EngagementEvent) error {
	if !ev.Kind.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrBadEvent, ev.Kind)
	}
	if ev.UserID == "" || ev.ArticleID == "" {
		return fmt.Errorf("%w: user_id and article_id are required", ErrBadEvent)
	}
	return s.events.Insert(ctx, ev)
}
