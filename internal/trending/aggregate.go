package trending

import (
	"time"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

// AggregatedStat is the per-article engagement summary the scorer consumes.
// Derived fresh per request, never persisted.
type AggregatedStat struct {
	Views         int
	Clicks        int
	Shares        int
	LatestEvent   time.Time
	MeanProximity float64
}

// Aggregate groups raw event observations by article. The proximity factor
// per event is 1/(1+distanceKm) when the scan was spatially bounded and 1.0
// otherwise; MeanProximity is the arithmetic mean over the article's events.
// Articles with no events in the window are simply absent from the map.
func Aggregate(events []models.EventObservation) map[string]*AggregatedStat {
	stats := make(map[string]*AggregatedStat)
	counts := make(map[string]int)
	sums := make(map[string]float64)

	for _, ev := range events {
		st, ok := stats[ev.ArticleID]
		if !ok {
			st = &AggregatedStat{}
			stats[ev.ArticleID] = st
		}

		switch ev.Kind {
		case models.EventView:
			st.Views++
		case models.EventClick:
			st.Clicks++
		case models.EventShare:
			st.Shares++
		}

		if ev.OccurredAt.After(st.LatestEvent) {
			st.LatestEvent = ev.OccurredAt
		}

		factor := 1.0
		if ev.DistanceKm != nil {
			factor = 1.0 / (1.0 + *ev.DistanceKm)
		}
		sums[ev.ArticleID] += factor
		counts[ev.ArticleID]++
	}

	for id, st := range stats {
		st.MeanProximity = sums[id] / float64(counts[id])
	}
	return stats
}
