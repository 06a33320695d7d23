package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("repository: duplicate entry")

	// ErrConstraint indicates a foreign key, check or not-null violation.
	ErrConstraint = errors.New("repository: constraint violation")
)

// Postgres SQLSTATE codes the repositories classify.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Movies    *MoviesRepository
	Favorites *MarksRepository
	Watched   *MarksRepository
	Reviews   *ReviewsRepository
	Lists     *ListsRepository
	Users     *UsersRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Movies:    &MoviesRepository{pool: pool},
		Favorites: &MarksRepository{pool: pool, table: "movie_fav"},
		Watched:   &MarksRepository{pool: pool, table: "movie_watched"},
		Reviews:   &ReviewsRepository{pool: pool},
		Lists:     &ListsRepository{pool: pool},
		Users:     &UsersRepository{pool: pool},
	}
}

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		}
	}
	return err
}
