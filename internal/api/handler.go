package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Milanpreetsingh/news-data-service/internal/query"
	"github.com/Milanpreetsingh/news-data-service/internal/trending"
	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// NewsService is the filtered-read surface the handlers call.
type NewsService interface {
	FetchNews(ctx context.Context, criteria query.FilterCriteria) (*models.Page, error)
	SearchNews(ctx context.Context, q string, criteria query.FilterCriteria) (*models.Page, error)
	NearbyNews(ctx context.Context, lat, lon, radiusKm float64, criteria query.FilterCriteria) (*models.Page, error)
	Ingest(ctx context.Context, articles []*models.Article) error
}

// TrendingService is the engagement-ranking surface.
type TrendingService interface {
	TrendingNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Article, error)
	RecordEvent(ctx context.Context, ev *models.EngagementEvent) error
	SimulateEvents(ctx context.Context, n int, userID string) (int, error)
}

type Handler struct {
	news     NewsService
	trending TrendingService
}

func NewHandler(news NewsService, trendingSvc TrendingService) *Handler {
	return &Handler{news: news, trending: trendingSvc}
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	v1 := r.Group("/v1")
	{
		v1.GET("/news", h.List)
		v1.GET("/news/category", h.Category)
		v1.GET("/news/score", h.Score)
		v1.GET("/news/source", h.Source)
		v1.GET("/news/search", h.Search)
		v1.GET("/news/nearby", h.Nearby)
		v1.GET("/news/trending", h.Trending)
		v1.POST("/news/ingest", h.Ingest)
		v1.POST("/events", h.RecordEvent)
		v1.POST("/events/simulate", h.SimulateEvents)
		v1.GET("/health", h.Health)
	}
}

// List: GET /v1/news — accepts any combination of the optional filters.
func (h *Handler) List(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.news.FetchNews(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{})
}

// Category: GET /v1/news/category?category=Technology&page=1&limit=10
func (h *Handler) Category(c *gin.Context) {
	category := c.Query("category")
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing category parameter"})
		return
	}
	limit, offset := pagination(c)
	page, err := h.news.FetchNews(c.Request.Context(), query.FilterCriteria{
		Category: category, Limit: limit, Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{"category": category})
}

// Score: GET /v1/news/score?min_score=0.7&page=1&limit=10
func (h *Handler) Score(c *gin.Context) {
	minScore, err := strconv.ParseFloat(c.DefaultQuery("min_score", "0.7"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_score parameter"})
		return
	}
	limit, offset := pagination(c)
	page, err := h.news.FetchNews(c.Request.Context(), query.FilterCriteria{
		MinScore: &minScore, Limit: limit, Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{"min_score": minScore})
}

// Source: GET /v1/news/source?source=Reuters&page=1&limit=10
func (h *Handler) Source(c *gin.Context) {
	source := c.Query("source")
	if source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing source parameter"})
		return
	}
	limit, offset := pagination(c)
	page, err := h.news.FetchNews(c.Request.Context(), query.FilterCriteria{
		SourceName: source, Limit: limit, Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{"source": source})
}

// Search: GET /v1/news/search?q=...&category=&min_score=&page=&limit=
func (h *Handler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	limit, offset := pagination(c)
	criteria := query.FilterCriteria{Category: c.Query("category"), Limit: limit, Offset: offset}
	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_score parameter"})
			return
		}
		criteria.MinScore = &minScore
	}

	page, err := h.news.SearchNews(c.Request.Context(), q, criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{"query": q})
}

// Nearby: GET /v1/news/nearby?lat=12.97&lon=77.59&radius=10&limit=20
func (h *Handler) Nearby(c *gin.Context) {
	lat, lon, ok := latLon(c)
	if !ok {
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "10"), 64)
	if err != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius parameter"})
		return
	}
	limit, offset := pagination(c)

	page, err := h.news.NearbyNews(c.Request.Context(), lat, lon, radius, query.FilterCriteria{
		Category: c.Query("category"), Limit: limit, Offset: offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, page, gin.H{"lat": lat, "lon": lon, "radius_km": radius})
}

// Trending: GET /v1/news/trending?lat=37.77&lon=-122.41&radius=50&limit=10
func (h *Handler) Trending(c *gin.Context) {
	lat, lon, ok := latLon(c)
	if !ok {
		return
	}
	radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "50"), 64)
	if err != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius parameter"})
		return
	}
	limit := parseLimit(c.DefaultQuery("limit", "10"))

	articles, err := h.trending.TrendingNear(c.Request.Context(), lat, lon, radius, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
		"query_info": gin.H{
			"lat": lat, "lon": lon, "trending": true,
		},
	})
}

// Ingest: POST /v1/news/ingest — body is a JSON array of articles.
func (h *Handler) Ingest(c *gin.Context) {
	var payload []*models.Article
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if err := h.news.Ingest(c.Request.Context(), payload); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"meta": gin.H{"imported": len(payload)}})
}

// RecordEvent: POST /v1/events — body is one engagement event.
func (h *Handler) RecordEvent(c *gin.Context) {
	var ev models.EngagementEvent
	if err := c.BindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	if err := h.trending.RecordEvent(c.Request.Context(), &ev); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": ev.ID})
}

// SimulateEvents: POST /v1/events/simulate?count=500&user_id=...
func (h *Handler) SimulateEvents(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "500"))
	if err != nil || count < 1 || count > 5000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be between 1 and 5000"})
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user_id parameter"})
		return
	}

	n, err := h.trending.SimulateEvents(c.Request.Context(), count, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"meta": gin.H{"generated": n}})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the error taxonomy onto status codes: invalid filters and
// bad events are the caller's fault, absent trending data is 404, anything
// else is a server fault.
func writeError(c *gin.Context, err error) {
	var invalid *query.InvalidFilterError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trending.ErrBadEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, trending.ErrNoTrendingData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func writePage(c *gin.Context, page *models.Page, queryInfo gin.H) {
	c.JSON(http.StatusOK, gin.H{
		"articles":   page.Articles,
		"total":      page.Total,
		"page":       page.Page,
		"page_size":  page.PageSize,
		"query_info": queryInfo,
	})
}

// criteriaFromQuery reads every supported filter off the query string.
func criteriaFromQuery(c *gin.Context) (query.FilterCriteria, error) {
	limit, offset := pagination(c)
	criteria := query.FilterCriteria{
		Category:   c.Query("category"),
		SourceName: c.Query("source"),
		SearchText: c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	}

	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return criteria, &query.InvalidFilterError{Reason: "min_score must be a number"}
		}
		criteria.MinScore = &minScore
	}
	if latRaw, lonRaw := c.Query("lat"), c.Query("lon"); latRaw != "" || lonRaw != "" {
		if latRaw != "" {
			lat, err := strconv.ParseFloat(latRaw, 64)
			if err != nil {
				return criteria, &query.InvalidFilterError{Reason: "lat must be a number"}
			}
			criteria.Lat = &lat
		}
		if lonRaw != "" {
			lon, err := strconv.ParseFloat(lonRaw, 64)
			if err != nil {
				return criteria, &query.InvalidFilterError{Reason: "lon must be a number"}
			}
			criteria.Lon = &lon
		}
		radius, err := strconv.ParseFloat(c.DefaultQuery("radius", "10"), 64)
		if err != nil {
			return criteria, &query.InvalidFilterError{Reason: "radius must be a number"}
		}
		criteria.RadiusKm = radius
	}
	return criteria, nil
}

// latLon parses the mandatory coordinates for nearby/trending reads and
// answers the request itself when they are malformed.
func latLon(c *gin.Context) (float64, float64, bool) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing lat/lon parameters"})
		return 0, 0, false
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat/lon out of range"})
		return 0, 0, false
	}
	return lat, lon, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = parseLimit(c.DefaultQuery("limit", "10"))
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// parseLimit ensures a sane integer limit, with bounds.
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 10
	}
	if l > 200 {
		return 200
	}
	return l
}
