package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/repository"
)

type reviewRequest struct {
	UserID  int64   `json:"userId" validate:"required,gt=0"`
	MovieID int64   `json:"movieId" validate:"required,gt=0"`
	Rating  float32 `json:"rating" validate:"required"`
	Content string  `json:"content" validate:"max=5000"`
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	MovieID   int64     `json:"movieId"`
	Username  string    `json:"username"`
	Rating    float32   `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type movieReviewsResponse struct {
	MovieID int64            `json:"movieId"`
	Average float32          `json:"average"`
	Count   int64            `json:"count"`
	Reviews []reviewResponse `json:"reviews"`
}

func (s *Server) handleUpsertReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	if _, ok := allowedRatings[req.Rating]; !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be one of {0.5, 1.0, ..., 5.0}")
		return
	}

	if _, err := s.resolver.Resolve(r.Context(), req.MovieID); err != nil {
		s.respondServiceError(w, r, "resolve movie", err)
		return
	}

	review, inserted, err := s.repo.Reviews.Upsert(r.Context(), repository.ReviewUpsertParams{
		UserID:  req.UserID,
		MovieID: req.MovieID,
		Rating:  req.Rating,
		Content: strings.TrimSpace(req.Content),
	})
	if err != nil {
		s.respondServiceError(w, r, "save review", err)
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, toReviewResponse(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if err := s.repo.Reviews.Delete(r.Context(), req.UserID, req.MovieID); err != nil {
		s.respondServiceError(w, r, "delete review", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := parseID(query.Get("userId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "userId: "+err.Error())
		return
	}
	movieID, err := parseID(query.Get("movieId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "movieId: "+err.Error())
		return
	}

	review, err := s.repo.Reviews.Get(r.Context(), userID, movieID)
	if err != nil {
		s.respondServiceError(w, r, "fetch review", err)
		return
	}
	s.respondJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseID(chi.URLParam(r, "movieId"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	reviews, err := s.repo.Reviews.ListByMovie(r.Context(), movieID)
	if err != nil {
		s.respondServiceError(w, r, "list reviews", err)
		return
	}
	agg, err := s.repo.Reviews.Aggregate(r.Context(), movieID)
	if err != nil {
		s.respondServiceError(w, r, "list reviews", err)
		return
	}

	resp := movieReviewsResponse{
		MovieID: movieID,
		Average: roundToOneDecimal(agg.Average),
		Count:   agg.Count,
		Reviews: make([]reviewResponse, 0, len(reviews)),
	}
	for _, review := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(review))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		MovieID:   review.MovieID,
		Username:  review.Username,
		Rating:    review.Rating,
		Content:   review.Content,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}
