package trending

import (
	"context"
	"math/rand"
	"time"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// cityCenters seeds simulated engagement around places where trending
// queries are likely to land.
var cityCenters = [][2]float64{
	{37.7749, -122.4194}, // San Francisco
	{40.7128, -74.0060},  // New York
	{34.0522, -118.2437}, // Los Angeles
	{51.5074, -0.1278},   // London
	{19.0760, 72.8777},   // Mumbai
	{28.7041, 77.1025},   // Delhi
}

const simulationArticlePool = 100

// SimulateEvents writes n synthetic engagement events attributed to userID
// and returns how many were stored. Kinds follow a 70/25/5 view/click/share
// split; 70% of coordinates jitter around a major city, the rest are
// uniform over the globe. Timestamps are backdated within the aggregation
// window so scoring output is non-degenerate.
func (s *Service) SimulateEvents(ctx context.Context, n int, userID string) (int, error) {
	ids, err := s.articles.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > simulationArticlePool {
		ids = ids[:simulationArticlePool]
	}

	now := time.Now().UTC()
	events := make([]*models.EngagementEvent, 0, n)
	for i := 0; i < n; i++ {
		var lat, lon float64
		if rand.Float64() < 0.7 {
			city := cityCenters[rand.Intn(len(cityCenters))]
			lat = city[0] + (rand.Float64() - 0.5)
			lon = city[1] + (rand.Float64() - 0.5)
		} else {
			lat = rand.Float64()*180 - 90
			lon = rand.Float64()*360 - 180
		}

		backdate := time.Duration(rand.Float64() * float64(AggregationWindowHours) * float64(time.Hour))
		events = append(events, &models.EngagementEvent{
			UserID:     userID,
			ArticleID:  ids[rand.Intn(len(ids))],
			Kind:       randomKind(),
			OccurredAt: now.Add(-backdate),
			UserLat:    &lat,
			UserLon:    &lon,
		})
	}

	if err := s.events.InsertBatch(ctx, events); err != nil {
		return 0, err
	}
	s.logger.Info().Int("events", len(events)).Msg("generated simulated events")
	return len(events), nil
}

func randomKind() models.EventKind {
	r := rand.Float64()
	switch {
	case r < 0.70:
		return models.EventView
	case r < 0.95:
		return models.EventClick
	default:
		return models.EventShare
	}
}
