package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/domain"
)

// MarksRepository manages user/movie pairs such as favorites and watched
// entries. Both tables share the same shape.
type MarksRepository struct {
	pool  *pgxpool.Pool
	table string
}

// Add records the mark. An existing mark yields ErrDuplicate; an unknown user
// or movie yields ErrConstraint.
func (r *MarksRepository) Add(ctx context.Context, userID, movieID int64) (domain.MovieMark, error) {
	query := fmt.Sprintf(`
        INSERT INTO %s (user_id, movie_id)
        VALUES ($1,$2)
        RETURNING user_id, movie_id, created_at
    `, r.table)

	var mark domain.MovieMark
	err := r.pool.QueryRow(ctx, query, userID, movieID).Scan(&mark.UserID, &mark.MovieID, &mark.CreatedAt)
	if err != nil {
		return domain.MovieMark{}, classify(err)
	}
	return mark, nil
}

// Remove deletes the mark, returning ErrNotFound when it did not exist.
func (r *MarksRepository) Remove(ctx context.Context, userID, movieID int64) (domain.MovieMark, error) {
	query := fmt.Sprintf(`
        DELETE FROM %s
        WHERE user_id = $1 AND movie_id = $2
        RETURNING user_id, movie_id, created_at
    `, r.table)

	var mark domain.MovieMark
	err := r.pool.QueryRow(ctx, query, userID, movieID).Scan(&mark.UserID, &mark.MovieID, &mark.CreatedAt)
	if err != nil {
		return domain.MovieMark{}, classify(err)
	}
	return mark, nil
}

// ListByUser returns the user's marked movies, most recent first.
func (r *MarksRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Movie, error) {
	query := fmt.Sprintf(`
        SELECT m.id, m.title, m.release_date, m.poster_path, m.created_at
        FROM %s k
        JOIN movies m ON m.id = k.movie_id
        WHERE k.user_id = $1
        ORDER BY k.created_at DESC, m.id DESC
    `, r.table)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movies, nil
}
