package tmdb

import (
	"strings"
	"time"
)

// Movie is the detail payload returned by /movie/{id}.
type Movie struct {
	ID               int64   `json:"id"`
	IMDBID           string  `json:"imdb_id,omitempty"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Runtime          int     `json:"runtime"`
	Adult            bool    `json:"adult"`
	Genres           []Genre `json:"genres"`
}

// Released parses ReleaseDate. Empty or malformed dates report false.
func (m *Movie) Released() (time.Time, bool) {
	return parseDate(m.ReleaseDate)
}

// MovieSummary is a list entry from search and collection endpoints.
type MovieSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
	GenreIDs         []int   `json:"genre_ids"`
}

// Complete reports whether every field needed to render a movie card is
// present. Upstream search results regularly include stubs without artwork,
// dates or genres.
func (m MovieSummary) Complete() bool {
	if m.ID <= 0 || len(m.GenreIDs) == 0 {
		return false
	}
	for _, s := range []string{
		m.Title,
		m.OriginalTitle,
		m.OriginalLanguage,
		m.Overview,
		m.PosterPath,
		m.BackdropPath,
		m.ReleaseDate,
	} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

// Page is the paginated envelope used by search and collection endpoints.
type Page struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Genre is a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Language is an entry of /configuration/languages.
type Language struct {
	ISO6391     string `json:"iso_639_1"`
	EnglishName string `json:"english_name"`
	Name        string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
