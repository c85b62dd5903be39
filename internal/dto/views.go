// Package dto provides Data Transfer Objects for API responses.
//
// DTOs contain denormalized fields for immediate client rendering while
// preserving normalized IDs for relationships. Clients never need a second
// round trip to display a comment thread or ratings list.
package dto

import (
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// UserRef is the denormalized author attribution attached to ratings,
// comments, and replies.
type UserRef struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// RatingView is a single rating with its author resolved for display.
type RatingView struct {
	UserRef
	Rating int `json:"rating"`
}

// ReplyView is a reply with its author resolved. Index is the reply's
// position in the thread, which clients use to address deletes.
type ReplyView struct {
	UserRef
	Index     int       `json:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is the client-facing representation of a comment thread.
type CommentView struct {
	*domain.Comment

	Author  UserRef     `json:"author"`
	Replies []ReplyView `json:"replies"`
}

// LikedBook is the compact projection returned when listing a user's liked
// books. Ratings and likers are omitted; only display fields and aggregate
// stats survive.
type LikedBook struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	CoverURL      string  `json:"cover_url,omitempty"`
	PrimaryISBN13 string  `json:"primary_isbn13,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	TotalLikes    int     `json:"total_likes"`
}

// NewLikedBook projects a book into its liked-list form.
func NewLikedBook(b *domain.Book) LikedBook {
	return LikedBook{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		CoverURL:      b.CoverURL,
		PrimaryISBN13: b.PrimaryISBN13,
		AverageRating: b.Stats.AverageRating,
		TotalReviews:  b.Stats.TotalReviews,
		TotalLikes:    b.Stats.TotalLikes,
	}
}

// NewLikedBooks projects a book list, preserving order.
func NewLikedBooks(books []*domain.Book) []LikedBook {
	out := make([]LikedBook, len(books))
	for i, b := range books {
		out[i] = NewLikedBook(b)
	}
	return out
}
