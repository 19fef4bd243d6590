package trending

import (
	"sort"
	"time"
)

// Scoring constants. Engagement weights and the 1/(1+Δh) recency shape are
// fixed; the aggregation window is independent of any presentation window.
const (
	weightView  = 1.0
	weightClick = 3.0
	weightShare = 5.0

	// AggregationWindowHours bounds the event scan feeding the scorer.
	AggregationWindowHours = 48
)

// Score applies the weighted decay formula to one article's stats.
func Score(stat *AggregatedStat, now time.Time) float64 {
	engagement := float64(stat.Views)*weightView +
		float64(stat.Clicks)*weightClick +
		float64(stat.Shares)*weightShare

	hours := now.Sub(stat.LatestEvent).Hours()
	if hours < 0 {
		hours = 0
	}
	return engagement * (1.0 / (1.0 + hours)) * stat.MeanProximity
}

// Ranked pairs an article id with its trending score.
type Ranked struct {
	ArticleID string
	Score     float64
}

// Rank orders articles by score descending with a deterministic tie-break:
// most recent event first, then article id ascending. At most limit entries
// are returned when limit is positive.
func Rank(stats map[string]*AggregatedStat, now time.Time, limit int) []Ranked {
	ranked := make([]Ranked, 0, len(stats))
	for id, st := range stats {
		ranked = append(ranked, Ranked{ArticleID: id, Score: Score(st, now)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		li, lj := stats[ranked[i].ArticleID].LatestEvent, stats[ranked[j].ArticleID].LatestEvent
		if !li.Equal(lj) {
			return li.After(lj)
		}
		return ranked[i].ArticleID < ranked[j].ArticleID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
