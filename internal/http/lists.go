package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/repository"
)

type listCreateRequest struct {
	UserID      int64   `json:"userId" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	MovieID     int64   `json:"movieId" validate:"required,gt=0"`
}

type listUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type listMovieRequest struct {
	ListID  int64 `json:"listId" validate:"required,gt=0"`
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

type listResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
}

type listPageResponse struct {
	listResponse
	Page         int                `json:"page"`
	TotalPages   int                `json:"totalPages"`
	TotalResults int                `json:"totalResults"`
	Movies       []domain.MovieCard `json:"movies"`
}

// handleCreateList resolves the first movie, then opens the list and its
// first entry atomically.
func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Description = trimStringPtr(req.Description)
	if err := validate.Struct(&req); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationMessage(err))
		return
	}

	if _, err := s.resolver.Resolve(r.Context(), req.MovieID); err != nil {
		s.respondServiceError(w, r, "resolve movie", err)
		return
	}

	list, err := s.repo.Lists.CreateWithMovie(r.Context(), repository.ListCreateParams{
		UserID:      req.UserID,
		Title:       req.Title,
		Description: req.Description,
		MovieID:     req.MovieID,
	})
	if err != nil {
		s.respondServiceError(w, r, "create list", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toListResponse(list))
}

func (s *Server) handleAddListMovie(w http.ResponseWriter, r *http.Request) {
	var req listMovieRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := s.repo.Lists.GetByID(r.Context(), req.ListID); err != nil {
		s.respondServiceError(w, r, "fetch list", err)
		return
	}
	if _, err := s.resolver.Resolve(r.Context(), req.MovieID); err != nil {
		s.respondServiceError(w, r, "resolve movie", err)
		return
	}
	if err := s.repo.Lists.AddMovie(r.Context(), req.ListID, req.MovieID); err != nil {
		s.respondServiceError(w, r, "add movie to list", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRemoveListMovie(w http.ResponseWriter, r *http.Request) {
	var req listMovieRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.repo.Lists.RemoveMovie(r.Context(), req.ListID, req.MovieID); err != nil {
		s.respondServiceError(w, r, "remove movie from list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseID(chi.URLParam(r, "listId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	page, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Lists.GetPage(r.Context(), listID, page, repository.DefaultListPageSize)
	if err != nil {
		s.respondServiceError(w, r, "fetch list", err)
		return
	}

	resp := listPageResponse{
		listResponse: toListResponse(result.List),
		Page:         result.Page,
		TotalPages:   result.TotalPages,
		TotalResults: result.TotalResults,
		Movies:       make([]domain.MovieCard, 0, len(result.Movies)),
	}
	for _, movie := range result.Movies {
		resp.Movies = append(resp.Movies, movie.Card())
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseID(chi.URLParam(r, "listId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	var req listUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	req.Description = trimStringPtr(req.Description)
	if req.Title == nil && req.Description == nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title or description is required")
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationMessage(err))
		return
	}

	list, err := s.repo.Lists.Update(r.Context(), listID, repository.ListUpdateParams{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.respondServiceError(w, r, "update list", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toListResponse(list))
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, err := parseID(chi.URLParam(r, "listId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := s.repo.Lists.Delete(r.Context(), listID); err != nil {
		s.respondServiceError(w, r, "delete list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toListResponse(list domain.List) listResponse {
	return listResponse{
		ID:          list.ID,
		UserID:      list.UserID,
		Title:       list.Title,
		Description: list.Description,
		Author:      list.Author,
		CreatedAt:   list.CreatedAt,
	}
}

func trimStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}
