// Package resolver materializes upstream movies as local rows on demand.
// Every feature that references a movie (favorites, watched, reviews, list
// entries) resolves it here first, so a dependent row never points at a
// movie that does not exist.
package resolver

//go:generate mockgen -source=resolver.go -destination=mocks/resolver.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/metrics"
	"github.com/Clark-Hu/movielog/internal/repository"
	"github.com/Clark-Hu/movielog/internal/tmdb"
)

// ErrMovieNotFound means the id is unknown both locally and upstream.
var ErrMovieNotFound = errors.New("resolver: movie not found")

// MovieStore is the local movie table.
type MovieStore interface {
	GetByID(ctx context.Context, id int64) (domain.Movie, error)
	Create(ctx context.Context, params repository.MovieCreateParams) (domain.Movie, error)
}

// Source fetches the canonical upstream payload for an id.
type Source interface {
	GetByID(ctx context.Context, id int64) (*tmdb.Movie, error)
}

// Resolution outcomes, used as metric labels.
const (
	outcomeLocal    = "local"
	outcomeCreated  = "created"
	outcomeRaced    = "raced"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

type Resolver struct {
	store  MovieStore
	source Source
	logger zerolog.Logger
}

func New(store MovieStore, source Source, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		source: source,
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve returns the local row for id, creating it from the upstream payload
// when it is missing. A concurrent resolution that inserts the row first is
// not an error: the loser re-reads the winner's row.
func (r *Resolver) Resolve(ctx context.Context, id int64) (movie domain.Movie, err error) {
	outcome := outcomeError
	defer func() {
		metrics.Resolutions.WithLabelValues(outcome).Inc()
	}()

	if id <= 0 {
		outcome = outcomeNotFound
		return domain.Movie{}, ErrMovieNotFound
	}

	movie, err = r.store.GetByID(ctx, id)
	switch {
	case err == nil:
		outcome = outcomeLocal
		return movie, nil
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Movie{}, fmt.Errorf("load movie %d: %w", id, err)
	}

	payload, err := r.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			outcome = outcomeNotFound
			return domain.Movie{}, ErrMovieNotFound
		}
		return domain.Movie{}, fmt.Errorf("fetch movie %d: %w", id, err)
	}
	if payload == nil || payload.ID == 0 {
		outcome = outcomeNotFound
		return domain.Movie{}, ErrMovieNotFound
	}

	movie, err = r.store.Create(ctx, createParams(id, payload))
	switch {
	case err == nil:
		outcome = outcomeCreated
		r.logger.Info().Int64("movie_id", id).Str("title", movie.Title).Msg("movie materialized")
		return movie, nil
	case errors.Is(err, repository.ErrDuplicate):
		movie, err = r.store.GetByID(ctx, id)
		if err != nil {
			return domain.Movie{}, fmt.Errorf("reload movie %d after concurrent create: %w", id, err)
		}
		outcome = outcomeRaced
		r.logger.Debug().Int64("movie_id", id).Msg("movie created concurrently, reloaded")
		return movie, nil
	default:
		return domain.Movie{}, fmt.Errorf("create movie %d: %w", id, err)
	}
}

func createParams(id int64, payload *tmdb.Movie) repository.MovieCreateParams {
	params := repository.MovieCreateParams{
		ID:    id,
		Title: payload.Title,
	}
	if released, ok := payload.Released(); ok {
		params.ReleaseDate = &released
	}
	if poster := strings.TrimSpace(payload.PosterPath); poster != "" {
		params.PosterPath = &poster
	}
	return params
}
