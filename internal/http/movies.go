package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielog/internal/tmdb"
)

type genresResponse struct {
	Genres []tmdb.Genre `json:"genres"`
}

type languagesResponse struct {
	Languages []tmdb.Language `json:"languages"`
}

func (s *Server) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := parsePage(query.Get("page"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.catalog.SearchByTitle(r.Context(), query.Get("query"), page)
	if err != nil {
		s.respondServiceError(w, r, "search movies", err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	movie, err := s.catalog.GetByID(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, r, "fetch movie", err)
		return
	}
	s.respondJSON(w, http.StatusOK, movie)
}

// handleMovieCollection serves /movie/list and /movie/list/{listName}; an
// unknown or missing name yields now_playing.
func (s *Server) handleMovieCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := s.catalog.GetCollection(r.Context(), chi.URLParam(r, "listName"))
	if err != nil {
		s.respondServiceError(w, r, "fetch movie collection", err)
		return
	}
	s.respondJSON(w, http.StatusOK, collection)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.catalog.Genres(r.Context())
	if err != nil {
		s.respondServiceError(w, r, "fetch genres", err)
		return
	}
	s.respondJSON(w, http.StatusOK, genresResponse{Genres: genres})
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := s.catalog.Languages(r.Context())
	if err != nil {
		s.respondServiceError(w, r, "fetch languages", err)
		return
	}
	s.respondJSON(w, http.StatusOK, languagesResponse{Languages: languages})
}
