package domain

import (
	"math"
	"slices"
)

// Rating bounds accepted on any book.
const (
	MinRating = 1
	MaxRating = 5
)

// Rating is a single user's rating of a book. A book holds at most one
// rating per user; position in the slice is preserved across re-rates.
type Rating struct {
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

// CommunityStats holds the denormalized aggregate fields derived from a
// book's ratings and likes.
//
// AverageRating and TotalReviews are always recomputed from Ratings via
// RecomputeCommunityStats. TotalLikes tracks len(Likes) and is maintained
// by ToggleLike. TotalVotes is carried from external catalog data and is
// not touched by either.
type CommunityStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	TotalVotes    int     `json:"total_votes"`
	TotalLikes    int     `json:"total_likes"`
}

// Book represents a catalog record with its embedded community data.
//
// A book is addressable by three key spaces: the store-assigned ID, the
// ISBN-13, and the external catalog ID. The latter two are unique across
// the catalog and usable interchangeably for lookup.
type Book struct {
	Base
	OwnerID       string         `json:"owner_id"`
	PrimaryISBN13 string         `json:"primary_isbn13"`
	CatalogID     string         `json:"catalog_id"`
	Title         string         `json:"title"`
	Author        string         `json:"author"`
	Description   string         `json:"description,omitempty"`
	CoverURL      string         `json:"cover_url,omitempty"`
	ProductURL    string         `json:"product_url,omitempty"`
	Publisher     string         `json:"publisher,omitempty"`
	Rank          int            `json:"rank,omitempty"`
	WeeksOnList   int            `json:"weeks_on_list,omitempty"`
	Stats         CommunityStats `json:"community_stats"`
	Ratings       []Rating       `json:"ratings"`
	Likes         []string       `json:"likes"`
}

// RatingByUser returns the user's rating entry, or nil if the user has not
// rated this book. Absence is not an error condition.
func (b *Book) RatingByUser(userID string) *Rating {
	for i := range b.Ratings {
		if b.Ratings[i].UserID == userID {
			return &b.Ratings[i]
		}
	}
	return nil
}

// SetRating records a user's rating. An existing entry is overwritten in
// place, preserving its position; otherwise a new entry is appended.
// Callers must invoke RecomputeCommunityStats before persisting.
func (b *Book) SetRating(userID string, rating int) {
	if existing := b.RatingByUser(userID); existing != nil {
		existing.Rating = rating
		return
	}
	b.Ratings = append(b.Ratings, Rating{UserID: userID, Rating: rating})
}

// RemoveRating deletes the user's rating entry.
// Returns false if the user had no rating on this book.
func (b *Book) RemoveRating(userID string) bool {
	for i := range b.Ratings {
		if b.Ratings[i].UserID == userID {
			b.Ratings = slices.Delete(b.Ratings, i, i+1)
			return true
		}
	}
	return false
}

// RecomputeCommunityStats rederives AverageRating and TotalReviews from the
// current ratings. The average is rounded half-away-from-zero to one decimal
// place; an empty ratings list yields 0/0. TotalVotes and TotalLikes are
// maintained elsewhere and left untouched.
func (b *Book) RecomputeCommunityStats() {
	if len(b.Ratings) == 0 {
		b.Stats.AverageRating = 0
		b.Stats.TotalReviews = 0
		return
	}

	sum := 0
	for _, r := range b.Ratings {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(b.Ratings))

	b.Stats.AverageRating = math.Round(mean*10) / 10
	b.Stats.TotalReviews = len(b.Ratings)
}

// ToggleLike flips the user's membership in the likers list and keeps the
// denormalized TotalLikes counter in sync. The counter is floored at zero on
// removal to guard against drift from concurrent lost updates.
// Returns true when the user now likes the book, false after an unlike.
func (b *Book) ToggleLike(userID string) bool {
	likes, added := toggleMembership(b.Likes, userID)
	b.Likes = likes

	if added {
		b.Stats.TotalLikes++
	} else {
		b.Stats.TotalLikes = max(0, b.Stats.TotalLikes-1)
	}
	return added
}

// IsLikedBy reports whether the user is in the likers list.
func (b *Book) IsLikedBy(userID string) bool {
	return slices.Contains(b.Likes, userID)
}
