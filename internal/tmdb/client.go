// Package tmdb is a client for the upstream movie metadata API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movielog/internal/metrics"
)

// DefaultBaseURL is the public v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

var (
	// ErrNotFound is returned when upstream has no record for the request.
	ErrNotFound = errors.New("tmdb: not found")

	// ErrUnavailable covers transport failures, timeouts, unexpected statuses
	// and undecodable bodies.
	ErrUnavailable = errors.New("tmdb: upstream unavailable")
)

// HTTPClient talks to the metadata API over HTTP. Every request carries the
// API key and the configured locale.
type HTTPClient struct {
	baseURL  *url.URL
	apiKey   string
	language string
	client   *http.Client
	logger   zerolog.Logger
}

// NewHTTPClient constructs a client with a transport bounded by timeout.
func NewHTTPClient(baseURL, apiKey, language string, timeout time.Duration, logger zerolog.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	return &HTTPClient{
		baseURL:  parsed,
		apiKey:   apiKey,
		language: language,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   16,
			},
		},
		logger: logger.With().Str("component", "tmdb").Logger(),
	}, nil
}

// GetMovie fetches movie details by upstream id.
func (c *HTTPClient) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	var movie Movie
	if err := c.get(ctx, "movie", "/movie/"+strconv.FormatInt(id, 10), nil, &movie); err != nil {
		return nil, err
	}
	if movie.ID == 0 {
		return nil, ErrNotFound
	}
	return &movie, nil
}

// SearchMovies runs a title search.
func (c *HTTPClient) SearchMovies(ctx context.Context, query string, page int) (*Page, error) {
	params := url.Values{}
	params.Set("query", query)
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	var result Page
	if err := c.get(ctx, "search", "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieCollection fetches a named listing such as now_playing or upcoming.
func (c *HTTPClient) MovieCollection(ctx context.Context, name string) (*Page, error) {
	var result Page
	if err := c.get(ctx, "collection", "/movie/"+url.PathEscape(name), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Genres lists the movie genres.
func (c *HTTPClient) Genres(ctx context.Context) ([]Genre, error) {
	var result genreList
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Genres, nil
}

// Languages lists the languages known to upstream.
func (c *HTTPClient) Languages(ctx context.Context) ([]Language, error) {
	var result []Language
	if err := c.get(ctx, "languages", "/configuration/languages", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint, path string, params url.Values, dst any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordUpstream(endpoint, outcomeOf(err), time.Since(start))
	}()

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	target := c.baseURL.JoinPath(path)
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: decode %s response: %v", ErrUnavailable, endpoint, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("unexpected upstream status")
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, endpoint, resp.StatusCode)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
