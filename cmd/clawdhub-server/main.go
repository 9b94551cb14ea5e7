// Command clawdhub-server runs the ClawdHub registry HTTP API (spec.md §6.1):
// the metadata store, object store, publish pipeline, search engine, and tag
// operations, wired to a net/http server with graceful shutdown on
// SIGINT/SIGTERM. Grounded on
// stigmer-stigmer/backend/services/stigmer-server/cmd/server/main.go's
// zerolog setup + config.LoadConfig + signal-driven shutdown shape, adapted
// from a gRPC server to an http.Server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clawdhub/clawdhub/internal/registry/changelogprovider"
	"github.com/clawdhub/clawdhub/internal/registry/config"
	"github.com/clawdhub/clawdhub/internal/registry/embeddingsprovider"
	"github.com/clawdhub/clawdhub/internal/registry/httpapi"
	"github.com/clawdhub/clawdhub/internal/registry/objectstore"
	"github.com/clawdhub/clawdhub/internal/registry/publish"
	"github.com/clawdhub/clawdhub/internal/registry/ratelimit"
	"github.com/clawdhub/clawdhub/internal/registry/search"
	"github.com/clawdhub/clawdhub/internal/registry/store"
	"github.com/clawdhub/clawdhub/internal/registry/tagops"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg)

	log.Info().
		Str("listen_addr", cfg.ListenAddr).
		Str("snapshot_path", cfg.SnapshotPath).
		Int("embedding_dim", cfg.EmbeddingDim).
		Str("env", cfg.Env).
		Msg("starting clawdhub-server")

	st, err := store.New(cfg.SnapshotPath)
	if err != nil {
		log.Fatal().Err(err).Str("snapshot_path", cfg.SnapshotPath).Msg("failed to initialize metadata store")
	}
	log.Info().Str("path", cfg.SnapshotPath).Msg("metadata store initialized")

	objectsDir := filepath.Join(filepath.Dir(cfg.SnapshotPath), "objects-root")
	objects, err := objectstore.NewLocalFileStore(objectsDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", objectsDir).Msg("failed to initialize object store")
	}
	log.Info().Str("dir", objectsDir).Msg("object store initialized")

	embedder := embeddingsprovider.NewDeterministic(cfg.EmbeddingDim)
	changelog := changelogprovider.Naive{}

	pipeline := publish.New(st, objects, embedder, changelog)
	searchEngine := search.New(st, embedder)
	tagOps := tagops.New(st)

	limiter := ratelimit.New(map[string]ratelimit.Policy{
		"read:ip":     {Burst: cfg.ReadPerIPPerMinute, Per: time.Minute / time.Duration(cfg.ReadPerIPPerMinute)},
		"read:token":  {Burst: cfg.ReadPerTokenPerMinute, Per: time.Minute / time.Duration(cfg.ReadPerTokenPerMinute)},
		"write:ip":    {Burst: cfg.WritePerIPPerMinute, Per: time.Minute / time.Duration(cfg.WritePerIPPerMinute)},
		"write:token": {Burst: cfg.WritePerTokenPerMinute, Per: time.Minute / time.Duration(cfg.WritePerTokenPerMinute)},
	}, cfg.RateLimiterIdleEvictAge)
	go sweepRateLimiter(limiter, cfg.RateLimiterIdleEvictAge)

	api := &httpapi.API{
		Store:             st,
		Objects:           objects,
		Publish:           pipeline,
		Search:            searchEngine,
		Tags:              tagOps,
		RateLimiter:       limiter,
		MaxFileReadBytes:  cfg.MaxRawFileReadBytes,
		MaxMultipartBytes: cfg.MaxMultipartBytes,
		Budgets: httpapi.RateBudgets{
			ReadPerIPPerMinute:     cfg.ReadPerIPPerMinute,
			ReadPerTokenPerMinute:  cfg.ReadPerTokenPerMinute,
			WritePerIPPerMinute:    cfg.WritePerIPPerMinute,
			WritePerTokenPerMinute: cfg.WritePerTokenPerMinute,
		},
	}
	mux := httpapi.NewMux(api)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", cfg.ListenAddr).Msg("clawdhub-server listening")

	<-done
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("clawdhub-server stopped")
}

func sweepRateLimiter(limiter *ratelimit.Limiter, idleAge time.Duration) {
	ticker := time.NewTicker(idleAge / 2)
	defer ticker.Stop()
	for now := range ticker.C {
		limiter.Sweep(now)
	}
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env == "local" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
