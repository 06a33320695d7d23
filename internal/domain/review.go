package domain

import "time"

// Review is a user's rating and optional text for a movie.
type Review struct {
	ID        int64
	UserID    int64
	MovieID   int64
	Rating    float32
	Content   string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate provides average and count for a movie's reviews.
type RatingAggregate struct {
	Average float32
	Count   int64
}
