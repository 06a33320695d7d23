package metadata

// CollectionName identifies one of the fixed movie collections.
type CollectionName string

const (
	CollectionNowPlaying CollectionName = "now_playing"
	CollectionPopular    CollectionName = "popular"
	CollectionTopRated   CollectionName = "top_rated"
	CollectionUpcoming   CollectionName = "upcoming"
)

// ParseCollection maps a requested name onto a known collection, defaulting
// to now_playing.
func ParseCollection(name string) CollectionName {
	switch c := CollectionName(name); c {
	case CollectionNowPlaying, CollectionPopular, CollectionTopRated, CollectionUpcoming:
		return c
	default:
		return CollectionNowPlaying
	}
}
