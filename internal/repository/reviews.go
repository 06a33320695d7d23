package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/domain"
)

// ReviewsRepository provides helpers for movie reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// ReviewUpsertParams captures the payload required to upsert a review.
type ReviewUpsertParams struct {
	UserID  int64
	MovieID int64
	Rating  float32
	Content string
}

const reviewColumns = `rv.id, rv.user_id, rv.movie_id, rv.rating, rv.content, u.username, rv.created_at, rv.updated_at`

// Upsert inserts or updates a review and indicates whether it was newly created.
func (r *ReviewsRepository) Upsert(ctx context.Context, params ReviewUpsertParams) (domain.Review, bool, error) {
	const query = `
        WITH upserted AS (
            INSERT INTO reviews (user_id, movie_id, rating, content)
            VALUES ($1,$2,$3,$4)
            ON CONFLICT (user_id, movie_id)
            DO UPDATE SET rating = EXCLUDED.rating, content = EXCLUDED.content, updated_at = now()
            RETURNING id, user_id, movie_id, rating, content, created_at, updated_at, (xmax = 0) AS inserted
        )
        SELECT rv.id, rv.user_id, rv.movie_id, rv.rating, rv.content, u.username, rv.created_at, rv.updated_at, rv.inserted
        FROM upserted rv
        JOIN users u ON u.id = rv.user_id
    `

	var review domain.Review
	var inserted bool
	err := r.pool.QueryRow(ctx, query, params.UserID, params.MovieID, params.Rating, params.Content).Scan(
		&review.ID,
		&review.UserID,
		&review.MovieID,
		&review.Rating,
		&review.Content,
		&review.Username,
		&review.CreatedAt,
		&review.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Review{}, false, classify(err)
	}
	return review, inserted, nil
}

// Get retrieves the review a user wrote for a movie.
func (r *ReviewsRepository) Get(ctx context.Context, userID, movieID int64) (domain.Review, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM reviews rv
        JOIN users u ON u.id = rv.user_id
        WHERE rv.user_id = $1 AND rv.movie_id = $2
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, userID, movieID))
	if err != nil {
		return domain.Review{}, classify(err)
	}
	return review, nil
}

// Delete removes a user's review, returning ErrNotFound when none existed.
func (r *ReviewsRepository) Delete(ctx context.Context, userID, movieID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByMovie returns every review for a movie, newest first.
func (r *ReviewsRepository) ListByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM reviews rv
        JOIN users u ON u.id = rv.user_id
        WHERE rv.movie_id = $1
        ORDER BY rv.updated_at DESC, rv.id DESC
    `, reviewColumns)

	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Aggregate returns the rating average and count for a movie.
func (r *ReviewsRepository) Aggregate(ctx context.Context, movieID int64) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float4 AS average,
               COUNT(*)::int8 AS count
        FROM reviews
        WHERE movie_id = $1
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, movieID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&review.MovieID,
		&review.Rating,
		&review.Content,
		&review.Username,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	return review, err
}
