package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/domain"
	"github.com/Clark-Hu/movielog/internal/store"
)

// DefaultListPageSize is the number of movies returned per list page.
const DefaultListPageSize = 20

// ListsRepository manages user lists and their movies.
type ListsRepository struct {
	pool *pgxpool.Pool
}

// ListCreateParams holds the data needed to open a list with its first movie.
type ListCreateParams struct {
	UserID      int64
	Title       string
	Description *string
	MovieID     int64
}

// ListUpdateParams describes a partial update; nil fields are left as they are.
type ListUpdateParams struct {
	Title       *string
	Description *string
}

// CreateWithMovie inserts the list and its first entry in one transaction.
// Neither row is kept if either insert fails.
func (r *ListsRepository) CreateWithMovie(ctx context.Context, params ListCreateParams) (domain.List, error) {
	var list domain.List
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertList = `
            WITH inserted AS (
                INSERT INTO lists (user_id, title, description)
                VALUES ($1,$2,$3)
                RETURNING id, user_id, title, description, created_at
            )
            SELECT l.id, l.user_id, l.title, l.description, u.username, l.created_at
            FROM inserted l
            JOIN users u ON u.id = l.user_id
        `
		created, err := scanList(tx.QueryRow(ctx, insertList, params.UserID, params.Title, params.Description))
		if err != nil {
			return classify(err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO movie_list (list_id, movie_id) VALUES ($1,$2)`, created.ID, params.MovieID); err != nil {
			return classify(err)
		}
		list = created
		return nil
	})
	if err != nil {
		return domain.List{}, err
	}
	return list, nil
}

// GetByID loads a list header with its author's username.
func (r *ListsRepository) GetByID(ctx context.Context, listID int64) (domain.List, error) {
	const query = `
        SELECT l.id, l.user_id, l.title, l.description, u.username, l.created_at
        FROM lists l
        JOIN users u ON u.id = l.user_id
        WHERE l.id = $1
    `
	list, err := scanList(r.pool.QueryRow(ctx, query, listID))
	if err != nil {
		return domain.List{}, classify(err)
	}
	return list, nil
}

// AddMovie appends a movie to a list. Adding it twice yields ErrDuplicate.
func (r *ListsRepository) AddMovie(ctx context.Context, listID, movieID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO movie_list (list_id, movie_id) VALUES ($1,$2)`, listID, movieID)
	return classify(err)
}

// RemoveMovie drops a movie from a list.
func (r *ListsRepository) RemoveMovie(ctx context.Context, listID, movieID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movie_list WHERE list_id = $1 AND movie_id = $2`, listID, movieID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPage returns the list header and one page of its movies in insertion
// order. Pages start at 1; a page past the end has no movies.
func (r *ListsRepository) GetPage(ctx context.Context, listID int64, page, perPage int) (domain.ListPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultListPageSize
	}
	if page > math.MaxInt32/perPage {
		page = math.MaxInt32 / perPage
	}

	list, err := r.GetByID(ctx, listID)
	if err != nil {
		return domain.ListPage{}, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movie_list WHERE list_id = $1`, listID).Scan(&total); err != nil {
		return domain.ListPage{}, fmt.Errorf("count list movies: %w", err)
	}

	const query = `
        SELECT m.id, m.title, m.release_date, m.poster_path, m.created_at
        FROM movie_list ml
        JOIN movies m ON m.id = ml.movie_id
        WHERE ml.list_id = $1
        ORDER BY ml.created_at ASC, m.id ASC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, query, listID, perPage, (page-1)*perPage)
	if err != nil {
		return domain.ListPage{}, err
	}
	defer rows.Close()

	movies := make([]domain.Movie, 0, perPage)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return domain.ListPage{}, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return domain.ListPage{}, err
	}

	return domain.ListPage{
		List:         list,
		Page:         page,
		Movies:       movies,
		TotalPages:   (total + perPage - 1) / perPage,
		TotalResults: total,
	}, nil
}

// Update applies a partial update to the list header.
func (r *ListsRepository) Update(ctx context.Context, listID int64, params ListUpdateParams) (domain.List, error) {
	const query = `
        WITH updated AS (
            UPDATE lists
            SET title = COALESCE($2, title),
                description = COALESCE($3, description)
            WHERE id = $1
            RETURNING id, user_id, title, description, created_at
        )
        SELECT l.id, l.user_id, l.title, l.description, u.username, l.created_at
        FROM updated l
        JOIN users u ON u.id = l.user_id
    `
	list, err := scanList(r.pool.QueryRow(ctx, query, listID, params.Title, params.Description))
	if err != nil {
		return domain.List{}, classify(err)
	}
	return list, nil
}

// Delete removes a list and, through the cascade, its entries.
func (r *ListsRepository) Delete(ctx context.Context, listID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, listID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanList(row pgx.Row) (domain.List, error) {
	var list domain.List
	err := row.Scan(
		&list.ID,
		&list.UserID,
		&list.Title,
		&list.Description,
		&list.Author,
		&list.CreatedAt,
	)
	return list, err
}
