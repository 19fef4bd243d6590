package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Milanpreetsingh/news-data-service/internal/llm"
	"github.com/Milanpreetsingh/news-data-service/internal/query"
	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// ArticleFinder is the slice of the article store the query path needs.
type ArticleFinder interface {
	Find(ctx context.Context, criteria query.FilterCriteria) ([]*models.Article, error)
	Count(ctx context.Context, criteria query.FilterCriteria) (int, error)
	SaveMany(ctx context.Context, articles []*models.Article) error
}

// Enricher attaches summaries to a page of articles.
type Enricher interface {
	Enrich(ctx context.Context, articles []*models.Article)
}

// IntentExtractor interprets free-form search queries.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, q string) llm.IntentResult
}

// NewsService handles the filtered-read path: compose filters, page through
// the store, enrich the page.
type NewsService struct {
	store    ArticleFinder
	enricher Enricher
	intents  IntentExtractor
	logger   zerolog.Logger
}

func NewNewsService(store ArticleFinder, enricher Enricher, intents IntentExtractor, logger zerolog.Logger) *NewsService {
	return &NewsService{
		store:    store,
		enricher: enricher,
		intents:  intents,
		logger:   logger.With().Str("component", "news").Logger(),
	}
}

// FetchNews runs one filtered, paginated read plus a total count with the
// same predicate, then enriches the returned page.
func (s *NewsService) FetchNews(ctx context.Context, criteria query.FilterCriteria) (*models.Page, error) {
	articles, err := s.store.Find(ctx, criteria)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Count(ctx, criteria)
	if err != nil {
		return nil, err
	}

	s.enricher.Enrich(ctx, articles)

	pageSize := criteria.Limit
	if pageSize <= 0 {
		pageSize = 10
	}
	return &models.Page{
		Articles: articles,
		Total:    total,
		Page:     criteria.Offset/pageSize + 1,
		PageSize: pageSize,
	}, nil
}

// SearchNews interprets the query through the intent extractor and searches
// on the extracted terms. Extraction failures fall back to the raw query
// inside the extractor, so this path never fails on the model.
func (s *NewsService) SearchNews(ctx context.Context, q string, criteria query.FilterCriteria) (*models.Page, error) {
	intent := s.intents.ExtractIntent(ctx, q)

	terms := strings.Join(intent.SearchTerms, " ")
	if terms == "" {
		terms = q
	}
	s.logger.Debug().Str("query", q).Str("terms", terms).Str("intent", intent.Intent).Msg("search interpreted")

	criteria.SearchText = terms
	return s.FetchNews(ctx, criteria)
}

// NearbyNews reads articles within radiusKm of a point, closest first.
func (s *NewsService) NearbyNews(ctx context.Context, lat, lon, radiusKm float64, criteria query.FilterCriteria) (*models.Page, error) {
	criteria.Lat = &lat
	criteria.Lon = &lon
	criteria.RadiusKm = radiusKm
	return s.FetchNews(ctx, criteria)
}

// Ingest upserts a batch of articles, defaulting publication time.
func (s *NewsService) Ingest(ctx context.Context, articles []*models.Article) error {
	for _, a := range articles {
		if a.PublishedAt.IsZero() {
			a.PublishedAt = time.Now().UTC()
		}
	}
	return s.store.SaveMany(ctx, articles)
}
