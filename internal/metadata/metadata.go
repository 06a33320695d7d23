// Package metadata is the single read path to the upstream movie catalogue.
// Search, detail and reference lookups go through a TTL cache; the popular and
// top rated collections are computed from local engagement instead.
package metadata

//go:generate mockgen -source=metadata.go -destination=mocks/metadata.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movielog/internal/cache"
	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/tmdb"
)

// ErrEmptyQuery is returned by SearchByTitle for a blank query.
var ErrEmptyQuery = errors.New("metadata: search query is required")

// Upstream is the subset of the TMDB client this layer calls.
type Upstream interface {
	GetMovie(ctx context.Context, id int64) (*tmdb.Movie, error)
	SearchMovies(ctx context.Context, query string, page int) (*tmdb.Page, error)
	MovieCollection(ctx context.Context, name string) (*tmdb.Page, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	Languages(ctx context.Context) ([]tmdb.Language, error)
}

// Engagement ranks stored movies by local user activity.
type Engagement interface {
	MostFavorited(ctx context.Context, limit int) ([]domain.MovieCard, error)
	TopRated(ctx context.Context, limit int) ([]domain.MovieCard, error)
}

// Options tunes caching and filtering.
type Options struct {
	// TTL applies to search, detail and upstream collection results.
	TTL time.Duration
	// ReferenceTTL applies to genre and language listings.
	ReferenceTTL time.Duration
	// FilterIncomplete drops search and collection entries that lack the
	// fields needed to render a card.
	FilterIncomplete bool
	// CollectionLimit bounds the locally computed collections.
	CollectionLimit int
	Logger          zerolog.Logger
}

// Service answers catalogue reads.
type Service struct {
	upstream   Upstream
	engagement Engagement
	cache      *cache.Cache
	opts       Options
	logger     zerolog.Logger
}

// New wires a Service. The cache is owned by the caller so it can be shared
// or inspected.
func New(upstream Upstream, engagement Engagement, c *cache.Cache, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}
	if opts.ReferenceTTL <= 0 {
		opts.ReferenceTTL = 24 * time.Hour
	}
	if opts.CollectionLimit <= 0 {
		opts.CollectionLimit = 20
	}
	return &Service{
		upstream:   upstream,
		engagement: engagement,
		cache:      c,
		opts:       opts,
		logger:     opts.Logger.With().Str("component", "metadata").Logger(),
	}
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Page         int                 `json:"page"`
	Movies       []tmdb.MovieSummary `json:"movies"`
	TotalPages   int                 `json:"totalPages"`
	TotalResults int                 `json:"totalResults"`
}

// SearchByTitle returns one page of upstream search results. The normalized
// query is what upstream sees and, with the page, what keys the cache; pages
// below 1 are treated as 1.
func (s *Service) SearchByTitle(ctx context.Context, query string, page int) (SearchResult, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return SearchResult{}, ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	key := searchKey(normalized, page)
	if hit, ok := cache.Lookup[SearchResult](s.cache, key); ok {
		return hit, nil
	}

	res, err := s.upstream.SearchMovies(ctx, normalized, page)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %q: %w", normalized, err)
	}

	result := SearchResult{
		Page:         res.Page,
		Movies:       s.filter(res.Results),
		TotalPages:   res.TotalPages,
		TotalResults: res.TotalResults,
	}
	s.cache.Set(key, result, s.opts.TTL)
	s.logger.Debug().Str("key", key).Int("movies", len(result.Movies)).Msg("cached search page")
	return result, nil
}

// GetByID returns the upstream detail payload for a movie.
func (s *Service) GetByID(ctx context.Context, id int64) (*tmdb.Movie, error) {
	key := movieKey(id)
	if hit, ok := cache.Lookup[tmdb.Movie](s.cache, key); ok {
		return &hit, nil
	}

	movie, err := s.upstream.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}
	s.cache.Set(key, *movie, s.opts.TTL)
	return movie, nil
}

// Collection is a named list of movie cards.
type Collection struct {
	Name   string             `json:"name"`
	Movies []domain.MovieCard `json:"movies"`
}

// GetCollection resolves one of the named collections. Unknown or empty names
// fall back to now_playing.
func (s *Service) GetCollection(ctx context.Context, name string) (Collection, error) {
	kind := ParseCollection(name)

	switch kind {
	case CollectionPopular:
		cards, err := s.engagement.MostFavorited(ctx, s.opts.CollectionLimit)
		if err != nil {
			return Collection{}, fmt.Errorf("rank favorites: %w", err)
		}
		return Collection{Name: string(kind), Movies: cards}, nil
	case CollectionTopRated:
		cards, err := s.engagement.TopRated(ctx, s.opts.CollectionLimit)
		if err != nil {
			return Collection{}, fmt.Errorf("rank ratings: %w", err)
		}
		return Collection{Name: string(kind), Movies: cards}, nil
	}

	key := "collection:" + string(kind)
	if hit, ok := cache.Lookup[Collection](s.cache, key); ok {
		return hit, nil
	}

	res, err := s.upstream.MovieCollection(ctx, string(kind))
	if err != nil {
		return Collection{}, fmt.Errorf("collection %s: %w", kind, err)
	}
	summaries := s.filter(res.Results)
	cards := make([]domain.MovieCard, 0, len(summaries))
	for _, m := range summaries {
		cards = append(cards, domain.MovieCard{
			ID:          m.ID,
			Title:       m.Title,
			ReleaseDate: m.ReleaseDate,
			PosterPath:  m.PosterPath,
		})
	}

	collection := Collection{Name: string(kind), Movies: cards}
	s.cache.Set(key, collection, s.opts.TTL)
	return collection, nil
}

// Genres returns the upstream genre listing.
func (s *Service) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	if hit, ok := cache.Lookup[[]tmdb.Genre](s.cache, keyGenres); ok {
		return hit, nil
	}
	genres, err := s.upstream.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("genres: %w", err)
	}
	s.cache.Set(keyGenres, genres, s.opts.ReferenceTTL)
	return genres, nil
}

// Languages returns the upstream language listing.
func (s *Service) Languages(ctx context.Context) ([]tmdb.Language, error) {
	if hit, ok := cache.Lookup[[]tmdb.Language](s.cache, keyLanguages); ok {
		return hit, nil
	}
	languages, err := s.upstream.Languages(ctx)
	if err != nil {
		return nil, fmt.Errorf("languages: %w", err)
	}
	s.cache.Set(keyLanguages, languages, s.opts.ReferenceTTL)
	return languages, nil
}

func (s *Service) filter(in []tmdb.MovieSummary) []tmdb.MovieSummary {
	out := make([]tmdb.MovieSummary, 0, len(in))
	for _, m := range in {
		if s.opts.FilterIncomplete && !m.Complete() {
			continue
		}
		out = append(out, m)
	}
	return out
}

const (
	keyGenres    = "genres"
	keyLanguages = "languages"
)

func searchKey(normalized string, page int) string {
	return "search:" + normalized + ":" + strconv.Itoa(page)
}

func movieKey(id int64) string {
	return "movie:" + strconv.FormatInt(id, 10)
}
