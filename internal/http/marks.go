package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/repository"
)

type markRequest struct {
	UserID  int64 `json:"userId" validate:"required,gt=0"`
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

type markResponse struct {
	UserID    int64     `json:"userId"`
	MovieID   int64     `json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileMoviesResponse struct {
	Username string             `json:"username"`
	Movies   []domain.MovieCard `json:"movies"`
}

// handleAddMark serves both favorites and watched: the movie is resolved
// first so the mark never references a missing row.
func (s *Server) handleAddMark(marks *repository.MarksRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		if _, err := s.resolver.Resolve(r.Context(), req.MovieID); err != nil {
			s.respondServiceError(w, r, "resolve movie", err)
			return
		}

		mark, err := marks.Add(r.Context(), req.UserID, req.MovieID)
		if err != nil {
			s.respondServiceError(w, r, "save movie mark", err)
			return
		}
		s.respondJSON(w, http.StatusCreated, markResponse{
			UserID:    mark.UserID,
			MovieID:   mark.MovieID,
			CreatedAt: mark.CreatedAt,
		})
	}
}

func (s *Server) handleRemoveMark(marks *repository.MarksRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		mark, err := marks.Remove(r.Context(), req.UserID, req.MovieID)
		if err != nil {
			s.respondServiceError(w, r, "remove movie mark", err)
			return
		}
		s.respondJSON(w, http.StatusOK, markResponse{
			UserID:    mark.UserID,
			MovieID:   mark.MovieID,
			CreatedAt: mark.CreatedAt,
		})
	}
}

// handleListMarks serves a user's favorites or watched movies, newest first.
func (s *Server) handleListMarks(marks *repository.MarksRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(chi.URLParam(r, "username"))
		if username == "" {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "username is required")
			return
		}

		user, err := s.repo.Users.GetByUsername(r.Context(), username)
		if err != nil {
			s.respondServiceError(w, r, "fetch user", err)
			return
		}
		movies, err := marks.ListByUser(r.Context(), user.ID)
		if err != nil {
			s.respondServiceError(w, r, "list movie marks", err)
			return
		}

		resp := profileMoviesResponse{
			Username: user.Username,
			Movies:   make([]domain.MovieCard, 0, len(movies)),
		}
		for _, movie := range movies {
			resp.Movies = append(resp.Movies, movie.Card())
		}
		s.respondJSON(w, http.StatusOK, resp)
	}
}
