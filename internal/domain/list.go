package domain

import "time"

// List is a user-curated movie list.
type List struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	Author      string
	CreatedAt   time.Time
}

// ListPage is a list with one page of its movies.
type ListPage struct {
	List
	Page         int
	Movies       []Movie
	TotalPages   int
	TotalResults int
}

// User is the subset of an account this service reads.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}
