package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielog/internal/domain"
)

// UsersRepository reads accounts owned by the identity service. Create exists
// for seeding and tests.
type UsersRepository struct {
	pool *pgxpool.Pool
}

func (r *UsersRepository) Create(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1) RETURNING id, username, created_at`,
		username,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		return domain.User{}, classify(err)
	}
	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		return domain.User{}, classify(err)
	}
	return user, nil
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		return domain.User{}, classify(err)
	}
	return user, nil
}
