package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog"

	"github.com/Milanpreetsingh/news-data-service/pkg/models"
)

const (
	// keyPrecision is the geohash length. Five characters cover roughly a
	// 4.9km x 4.9km cell, so nearby callers collapse onto one entry.
	keyPrecision = 5

	entryTTL = 300 * time.Second
)

// GeoCache is a cache-aside layer for ranked article lists, bucketed by
// coarse location. Cache faults are logged and absorbed; the caller always
// gets either a cached or a freshly computed result. Concurrent misses for
// one key may each compute independently; recomputation is idempotent and
// the TTL is short, so no single-flight coalescing is done here.
type GeoCache struct {
	store  Store
	logger zerolog.Logger
}

func NewGeoCache(store Store, logger zerolog.Logger) *GeoCache {
	return &GeoCache{
		store:  store,
		logger: logger.With().Str("component", "geocache").Logger(),
	}
}

// Key buckets a coordinate pair and result size into a cache key.
func Key(lat, lon float64, limit int) string {
	return "trending:" + geohash.EncodeWithPrecision(lat, lon, keyPrecision) + ":limit" + strconv.Itoa(limit)
}

// GetOrCompute returns the cached list for the location's cell, or invokes
// compute on a miss and writes the result back with a TTL. A read failure
// counts as a miss; a write failure does not affect the returned value.
func (g *GeoCache) GetOrCompute(ctx context.Context, lat, lon float64, limit int,
	compute func(context.Context) ([]*models.Article, error)) ([]*models.Article, error) {

	key := Key(lat, lon, limit)

	raw, err := g.store.Get(ctx, key)
	switch {
	case err == nil:
		var articles []*models.Article
		if jerr := json.Unmarshal([]byte(raw), &articles); jerr == nil {
			g.logger.Debug().Str("key", key).Msg("cache hit")
			return articles, nil
		}
		g.logger.Warn().Str("key", key).Msg("corrupt cache entry, recomputing")
	case errors.Is(err, ErrMiss):
		// fall through to compute
	default:
		g.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, recomputing")
	}

	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	payload, jerr := json.Marshal(result)
	if jerr != nil {
		g.logger.Warn().Err(jerr).Str("key", key).Msg("cache encode failed")
		return result, nil
	}
	if serr := g.store.Set(ctx, key, string(payload), entryTTL); serr != nil {
		g.logger.Warn().Err(serr).Str("key", key).Msg("cache write failed")
	}
	return result, nil
}
