// Command tmdb-mock serves a fixed catalog over the subset of the TMDB v3 API
// the server consumes, for local runs and smoke tests.
package main

import (
	_ "embed"
	"flag"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movielog/internal/logging"
	"github.com/Clark-Hu/movielog/internal/tmdb"
)

//go:embed fixture.json
var defaultFixture []byte

const (
	pageSize = 20
	maxPage  = 500
)

type fixture struct {
	Movies      map[string]tmdb.Movie `json:"movies"`
	Collections map[string][]int64    `json:"collections"`
	Genres      []tmdb.Genre          `json:"genres"`
	Languages   []tmdb.Language       `json:"languages"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "", "path to a fixture file; the embedded catalog is used when empty")
		apiKey = flag.String("api-key", "", "required api_key value; any key is accepted when empty")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Level: "info", Format: "console"})

	payload := defaultFixture
	if *data != "" {
		file, err := os.ReadFile(*data)
		if err != nil {
			logger.Fatal().Err(err).Msg("read mock data")
		}
		payload = file
	}

	var fx fixture
	if err := json.Unmarshal(payload, &fx); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}
	logger.Info().Int("movies", len(fx.Movies)).Msg("loaded mock catalog")

	addr := ":" + *port
	logger.Info().Str("addr", addr).Msg("mock tmdb listening")
	if err := http.ListenAndServe(addr, newRouter(fx, *apiKey, logger)); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func newRouter(fx fixture, apiKey string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.RequestLogger(logger))
	r.Use(requireKey(apiKey))

	r.Get("/movie/{ref}", func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "ref")
		if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
			movie, ok := fx.Movies[ref]
			if !ok {
				writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
				return
			}
			writeJSON(w, movie)
			return
		}
		ids, ok := fx.Collections[ref]
		if !ok {
			writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
			return
		}
		var results []tmdb.MovieSummary
		for _, id := range ids {
			if movie, ok := fx.Movies[strconv.FormatInt(id, 10)]; ok {
				results = append(results, summarize(movie))
			}
		}
		writeJSON(w, paginate(results, 1))
	})

	r.Get("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		if page > maxPage {
			writeStatus(w, http.StatusBadRequest, "page must be less than or equal to 500")
			return
		}

		var results []tmdb.MovieSummary
		for _, movie := range fx.Movies {
			if query != "" && strings.Contains(strings.ToLower(movie.Title), query) {
				results = append(results, summarize(movie))
			}
		}
		sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
		writeJSON(w, paginate(results, page))
	})

	r.Get("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]tmdb.Genre{"genres": fx.Genres})
	})

	r.Get("/configuration/languages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, fx.Languages)
	})

	return r
}

func requireKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.URL.Query().Get("api_key")
			if got == "" || (apiKey != "" && got != apiKey) {
				writeStatus(w, http.StatusUnauthorized, "Invalid API key: You must be granted a valid key.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func summarize(m tmdb.Movie) tmdb.MovieSummary {
	genreIDs := make([]int, 0, len(m.Genres))
	for _, g := range m.Genres {
		genreIDs = append(genreIDs, g.ID)
	}
	return tmdb.MovieSummary{
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		OriginalLanguage: m.OriginalLanguage,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		Popularity:       m.Popularity,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Adult:            m.Adult,
		GenreIDs:         genreIDs,
	}
}

func paginate(all []tmdb.MovieSummary, page int) tmdb.Page {
	total := len(all)
	start := total
	if page <= total/pageSize+1 {
		start = min((page-1)*pageSize, total)
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	results := make([]tmdb.MovieSummary, 0, end-start)
	results = append(results, all[start:end]...)
	return tmdb.Page{
		Page:         page,
		Results:      results,
		TotalPages:   (total + pageSize - 1) / pageSize,
		TotalResults: total,
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":        false,
		"status_message": message,
	})
}
