// Command worker runs the medialens HTTP worker service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/thebtf/medialens/internal/cache"
	cacheredis "github.com/thebtf/medialens/internal/cache/redis"
	"github.com/thebtf/medialens/internal/config"
	"github.com/thebtf/medialens/internal/db"
	"github.com/thebtf/medialens/internal/db/postgres"
	"github.com/thebtf/medialens/internal/inference"
	"github.com/thebtf/medialens/internal/memstore"
	"github.com/thebtf/medialens/internal/vector"
	"github.com/thebtf/medialens/internal/vector/pgvector"
	"github.com/thebtf/medialens/internal/worker"
)

func main() {
	memory := flag.Bool("memory", false, "run with in-memory stores (no Postgres/Redis)")
	pretty := flag.Bool("pretty", false, "human-readable log output")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg := config.FromEnv()

	var (
		store   db.RelationalStore
		vectors vector.Store
		cacher  cache.Store
	)

	if *memory {
		log.Info().Msg("Running with in-memory stores")
		store = memstore.NewRelational()
		vectors = memstore.NewVector()
		cacher = memstore.NewCache()
	} else {
		pg, err := postgres.NewStore(postgres.Config{
			DSN:      cfg.PostgresDSN,
			MaxConns: cfg.MaxConns,
			LogLevel: logger.Silent,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Postgres")
		}
		defer pg.Close()
		store = pg

		vc, err := pgvector.NewClient(pgvector.Config{
			DB:         pg.DB,
			Dimensions: cfg.EmbeddingDimensions,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize vector store")
		}
		vectors = vc

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rc, err := cacheredis.NewClient(ctx, cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rc.Close()
		cacher = rc
	}

	var inf inference.Service
	if cfg.InferenceAPIKey != "" {
		svc, err := inference.NewOpenAIService(inference.Config{
			BaseURL:        cfg.InferenceBaseURL,
			APIKey:         cfg.InferenceAPIKey,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize inference service")
		}
		inf = svc
	} else {
		log.Warn().Msg("No inference API key; tool-calling, embeddings, and analysis disabled")
	}

	if cfg.APIKey == "" && !cfg.AuthDisabled {
		log.Warn().Msg("No API key configured; all authenticated requests will be rejected")
	}

	svc := worker.NewService(cfg, worker.Dependencies{
		Store:     store,
		Vectors:   vectors,
		Cache:     cacher,
		Inference: inf,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := svc.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}
}
