package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/movielog/internal/cache"
	"github.com/Clark-Hu/movielog/internal/config"
	httpserver "github.com/Clark-Hu/movielog/internal/http"
	"github.com/Clark-Hu/movielog/internal/logging"
	"github.com/Clark-Hu/movielog/internal/metadata"
	"github.com/Clark-Hu/movielog/internal/repository"
	"github.com/Clark-Hu/movielog/internal/resolver"
	"github.com/Clark-Hu/movielog/internal/store"
	"github.com/Clark-Hu/movielog/internal/tmdb"
)

const poolStatsInterval = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	client, err := tmdb.NewHTTPClient(cfg.TMDBURL, cfg.TMDBAPIKey, cfg.TMDBLanguage, time.Duration(cfg.TMDBTimeoutSecs)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("init tmdb client: %w", err)
	}

	repo := repository.New(st)
	catalog := metadata.New(client, repo.Movies, cache.New("metadata"), metadata.Options{
		TTL:              time.Duration(cfg.CacheTTLSecs) * time.Second,
		ReferenceTTL:     time.Duration(cfg.CacheReferenceTTLSecs) * time.Second,
		FilterIncomplete: cfg.FilterIncomplete,
		CollectionLimit:  cfg.CollectionLimit,
		Logger:           logger,
	})
	res := resolver.New(repo.Movies, catalog, logger)
	server := httpserver.New(cfg, st, repo, catalog, res, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		st.ReportStats(gctx, poolStatsInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("shutdown complete")
	return nil
}
