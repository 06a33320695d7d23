package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/domain"
)

// MoviesRepository persists movie rows keyed by upstream id.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `id, title, release_date, poster_path, created_at`

// MovieCreateParams bundles the fields persisted for a movie.
type MovieCreateParams struct {
	ID          int64
	Title       string
	ReleaseDate *time.Time
	PosterPath  *string
}

// Create inserts a movie row. A second insert of the same id fails with
// ErrDuplicate rather than being absorbed, so callers can tell a concurrent
// creation apart from their own.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (id, title, release_date, poster_path)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.ID, params.Title, params.ReleaseDate, params.PosterPath)
	movie, err := scanMovie(row)
	if err != nil {
		return domain.Movie{}, classify(err)
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Movie{}, classify(err)
	}
	return movie, nil
}

// Count returns the number of stored movies.
func (r *MoviesRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

// MostFavorited ranks movies by how many users favorited them.
func (r *MoviesRepository) MostFavorited(ctx context.Context, limit int) ([]domain.MovieCard, error) {
	const query = `
        SELECT m.id, m.title, m.release_date, m.poster_path, COUNT(*)::float8 AS score
        FROM movie_fav f
        JOIN movies m ON m.id = f.movie_id
        GROUP BY m.id
        ORDER BY score DESC, m.id ASC
        LIMIT $1
    `
	return r.queryCards(ctx, query, limit)
}

// TopRated ranks movies by average review rating, then by review count.
func (r *MoviesRepository) TopRated(ctx context.Context, limit int) ([]domain.MovieCard, error) {
	const query = `
        SELECT m.id, m.title, m.release_date, m.poster_path,
               ROUND(AVG(rv.rating)::numeric, 1)::float8 AS score
        FROM reviews rv
        JOIN movies m ON m.id = rv.movie_id
        GROUP BY m.id
        ORDER BY score DESC, COUNT(*) DESC, m.id ASC
        LIMIT $1
    `
	return r.queryCards(ctx, query, limit)
}

func (r *MoviesRepository) queryCards(ctx context.Context, query string, limit int) ([]domain.MovieCard, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := make([]domain.MovieCard, 0, limit)
	for rows.Next() {
		var (
			movie domain.Movie
			score float64
		)
		if err := rows.Scan(&movie.ID, &movie.Title, &movie.ReleaseDate, &movie.PosterPath, &score); err != nil {
			return nil, err
		}
		card := movie.Card()
		card.Score = &score
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.ReleaseDate,
		&movie.PosterPath,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}
