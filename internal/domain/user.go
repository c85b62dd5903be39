package domain

// DefaultAvatar is assigned to accounts that never uploaded one.
const DefaultAvatar = "/images/default-avatar.png"

// ReadingStats holds per-user aggregate activity counters shown on profiles.
type ReadingStats struct {
	BooksReviewed int     `json:"books_reviewed"`
	TotalRatings  int     `json:"total_ratings"`
	AverageRating float64 `json:"average_rating"`
}

// User represents a registered account. Username and Email are unique across
// the system; lookups against either are case-insensitive.
type User struct {
	Base
	Username       string       `json:"username"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Avatar         string       `json:"avatar,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	FavoriteGenres []string     `json:"favorite_genres,omitempty"`
	Stats          ReadingStats `json:"reading_stats"`
}

// Public returns a copy safe to serialize to clients, with the credential
// hash stripped.
func (u *User) Public() *User {
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
