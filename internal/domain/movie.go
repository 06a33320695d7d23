package domain

import "time"

// Movie is the locally persisted movie row. Its ID is the upstream
// identifier and never changes once created.
type Movie struct {
	ID          int64
	Title       string
	ReleaseDate *time.Time
	PosterPath  *string
	CreatedAt   time.Time
}

// MovieCard is the compact representation used by collections. Score is the
// favorite count or average rating when the collection is computed locally.
type MovieCard struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// Card converts a stored movie into its card form.
func (m Movie) Card() MovieCard {
	card := MovieCard{ID: m.ID, Title: m.Title}
	if m.ReleaseDate != nil {
		card.ReleaseDate = m.ReleaseDate.Format("2006-01-02")
	}
	if m.PosterPath != nil {
		card.PosterPath = *m.PosterPath
	}
	return card
}

// MovieMark records that a user favorited or watched a movie.
type MovieMark struct {
	UserID    int64
	MovieID   int64
	CreatedAt time.Time
}
