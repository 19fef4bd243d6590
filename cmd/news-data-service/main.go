package main

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Milanpreetsingh/news-data-service/internal/api"
	"github.com/Milanpreetsingh/news-data-service/internal/cache"
	"github.com/Milanpreetsingh/news-data-service/internal/config"
	"github.com/Milanpreetsingh/news-data-service/internal/enrich"
	"github.com/Milanpreetsingh/news-data-service/internal/llm"
	"github.com/Milanpreetsingh/news-data-service/internal/service"
	"github.com/Milanpreetsingh/news-data-service/internal/store"
	"github.com/Milanpreetsingh/news-data-service/internal/trending"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open")
	}
	// the db may still be starting in docker
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		logger.Warn().Int("attempt", i+1).Err(err).Msg("waiting for db")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("could not connect to db")
	}

	if err := store.RunMigrations(db); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the cache layer degrades to direct computation, so this is not fatal
		logger.Warn().Err(err).Msg("redis ping failed")
	}

	// components in dependency order
	articleStore := store.NewPgArticleStore(db)
	eventStore := store.NewPgEventStore(db)
	llmClient := llm.NewClient(cfg.LLM.URL, cfg.LLM.Model, nil, logger)
	enricher := enrich.NewEnricher(llmClient, logger)
	geoCache := cache.NewGeoCache(cache.NewRedisStore(rdb), logger)

	newsSvc := service.NewNewsService(articleStore, enricher, llmClient, logger)
	trendingSvc := trending.NewService(articleStore, eventStore, geoCache, enricher, logger)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))
	api.RegisterRoutes(router, api.NewHandler(newsSvc, trendingSvc))

	logger.Info().Str("port", cfg.Server.Port).Msg("listening")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
