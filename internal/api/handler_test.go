package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/Milanpreetsingh/news-data-service/internal/query"
	"github.com/Milanpreetsingh/news-data-service/internal/trending"
	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

type fakeNews struct {
	page         *models.Page
	lastCriteria query.FilterCriteria
	lastQuery    string
	ingested     []*models.Article
	err          error
}

func (f *fakeNews) FetchNews(ctx context.Context, c query.FilterCriteria) (*models.Page, error) {
	f.lastCriteria = c
	return f.page, f.err
}

func (f *fakeNews) SearchNews(ctx context.Context, q string, c query.FilterCriteria) (*models.Page, error) {
	f.lastQuery = q
	f.lastCriteria = c
	return f.page, f.err
}

func (f *fakeNews) NearbyNews(ctx context.Context, lat, lon, radiusKm float64, c query.FilterCriteria) (*models.Page, error) {
	f.lastCriteria = c
	return f.page, f.err
}

func (f *fakeNews) Ingest(ctx context.Context, articles []*models.Article) error {
	f.ingested = append(f.ingested, articles...)
	return f.err
}

type fakeTrending struct {
	articles  []*models.Article
	events    []*models.EngagementEvent
	simulated int
	err       error
}

func (f *fakeTrending) TrendingNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*models.Article, error) {
	return f.articles, f.err
}

func (f *fakeTrending) RecordEvent(ctx context.Context, ev *models.EngagementEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakeTrending) SimulateEvents(ctx context.Context, n int, userID string) (int, error) {
	f.simulated = n
	return n, f.err
}

func newTestRouter(news NewsService, trendingSvc TrendingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, NewHandler(news, trendingSvc))
	return r
}

func emptyPage() *models.Page {
	return &models.Page{Articles: []*models.Article{}, Page: 1, PageSize: 10}
}

func TestCategoryRoute(t *testing.T) {
	news := &fakeNews{page: &models.Page{
		Articles: []*models.Article{{ID: "a", Title: "headline"}},
		Total:    1, Page: 1, PageSize: 10,
	}}
	r := newTestRouter(news, &fakeTrending{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/v1/news/category?category=Technology&limit=10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Technology", news.lastCriteria.Category)

	var res struct {
		Articles []models.Article `json:"articles"`
		Total    int              `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, "headline", res.Articles[0].Title)
}

func TestCategoryRouteRequiresParam(t *testing.T) {
	r := newTestRouter(&fakeNews{page: emptyPage()}, &fakeTrending{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/category", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreRoutePassesMinScore(t *testing.T) {
	news := &fakeNews{page: emptyPage()}
	r := newTestRouter(news, &fakeTrending{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/score?min_score=0.8", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	if news.lastCriteria.MinScore == nil || *news.lastCriteria.MinScore != 0.8 {
		t.Fatalf("min_score not passed: %+v", news.lastCriteria)
	}
}

func TestSearchRoute(t *testing.T) {
	news := &fakeNews{page: emptyPage()}
	r := newTestRouter(news, &fakeTrending{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/search?q=elections&page=2&limit=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "elections", news.lastQuery)
	assert.Equal(t, 5, news.lastCriteria.Limit)
	assert.Equal(t, 5, news.lastCriteria.Offset)
}

func TestNearbyRouteValidation(t *testing.T) {
	r := newTestRouter(&fakeNews{page: emptyPage()}, &fakeTrending{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/nearby?lat=91&lon=0&radius=10", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/nearby?lat=12.9&radius=10", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/nearby?lat=12.9&lon=77.5&radius=10", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTrendingRouteNoData(t *testing.T) {
	r := newTestRouter(&fakeNews{page: emptyPage()}, &fakeTrending{err: trending.ErrNoTrendingData})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/trending?lat=37.77&lon=-122.41", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrendingRouteReturnsRankedList(t *testing.T) {
	tr := &fakeTrending{articles: []*models.Article{
		{ID: "a", TrendingScore: 16},
		{ID: "b", TrendingScore: 5},
	}}
	r := newTestRouter(&fakeNews{page: emptyPage()}, tr)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news/trending?lat=37.77&lon=-122.41&limit=10", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Articles []models.Article `json:"articles"`
		Total    int              `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "a", res.Articles[0].ID)
}

func TestListRouteInvalidFilter(t *testing.T) {
	news := &fakeNews{page: emptyPage(), err: &query.InvalidFilterError{Reason: "radius must be greater than zero"}}
	r := newTestRouter(news, &fakeTrending{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news?lat=1&lon=2&radius=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRouteRejectsMalformedCoordinates(t *testing.T) {
	news := &fakeNews{page: emptyPage()}
	r := newTestRouter(news, &fakeTrending{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news?lat=abc&lon=def", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/news?lat=12.9&lon=def", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordEventRoute(t *testing.T) {
	tr := &fakeTrending{}
	r := newTestRouter(&fakeNews{page: emptyPage()}, tr)

	body := `{"user_id":"u1","article_id":"a1","event_type":"click"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, len(tr.events))
	assert.Equal(t, models.EventClick, tr.events[0].Kind)
}

func TestRecordEventRouteBadKind(t *testing.T) {
	tr := &fakeTrending{err: trending.ErrBadEvent}
	r := newTestRouter(&fakeNews{page: emptyPage()}, tr)

	body := `{"user_id":"u1","article_id":"a1","event_type":"bookmark"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateEventsRoute(t *testing.T) {
	tr := &fakeTrending{}
	r := newTestRouter(&fakeNews{page: emptyPage()}, tr)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/events/simulate?count=250&user_id=u1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 250, tr.simulated)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/events/simulate?count=250", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/v1/events/simulate?count=50000&user_id=u1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestRoute(t *testing.T) {
	news := &fakeNews{page: emptyPage()}
	r := newTestRouter(news, &fakeTrending{})

	body := `[{"title":"one"},{"title":"two"}]`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/news/ingest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, len(news.ingested))
}
