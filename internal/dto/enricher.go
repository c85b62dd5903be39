package dto

import (
	"context"
	"fmt"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// Store defines the interface for fetching related entities during enrichment.
// This allows Enricher to remain testable and independent of concrete store implementation.
type Store interface {
	GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
}

// Enricher denormalizes domain models for client consumption.
//
// Design philosophy:
//   - Batch fetching: one user query per request, not per comment
//   - Graceful degradation: deleted accounts render as empty attribution,
//     never as errors
//   - Idempotent: safe to enrich the same entity multiple times
type Enricher struct {
	store Store
}

// NewEnricher creates a new enricher.
func NewEnricher(store Store) *Enricher {
	return &Enricher{store: store}
}

// EnrichRatings resolves the author of every rating on a book.
// Ratings from deleted accounts keep their score with blank attribution.
func (e *Enricher) EnrichRatings(ctx context.Context, ratings []domain.Rating) ([]RatingView, error) {
	if len(ratings) == 0 {
		return []RatingView{}, nil
	}

	userIDs := make([]string, 0, len(ratings))
	for _, r := range ratings {
		userIDs = append(userIDs, r.UserID)
	}

	users, err := e.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch rating authors: %w", err)
	}

	views := make([]RatingView, len(ratings))
	for i, r := range ratings {
		views[i] = RatingView{
			UserRef: userRef(r.UserID, users),
			Rating:  r.Rating,
		}
	}
	return views, nil
}

// EnrichComment denormalizes a single comment thread.
func (e *Enricher) EnrichComment(ctx context.Context, comment *domain.Comment) (*CommentView, error) {
	views, err := e.EnrichComments(ctx, []*domain.Comment{comment})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// EnrichComments denormalizes comment threads efficiently.
//
// All author IDs across comments and their replies are collected first, so
// the store sees a single batch lookup regardless of thread depth.
func (e *Enricher) EnrichComments(ctx context.Context, comments []*domain.Comment) ([]*CommentView, error) {
	if len(comments) == 0 {
		return []*CommentView{}, nil
	}

	idSet := make(map[string]bool)
	for _, c := range comments {
		idSet[c.UserID] = true
		for _, r := range c.Replies {
			idSet[r.UserID] = true
		}
	}

	userIDs := make([]string, 0, len(idSet))
	for id := range idSet {
		userIDs = append(userIDs, id)
	}

	users, err := e.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch comment authors: %w", err)
	}

	views := make([]*CommentView, len(comments))
	for i, c := range comments {
		view := &CommentView{
			Comment: c,
			Author:  userRef(c.UserID, users),
			Replies: make([]ReplyView, len(c.Replies)),
		}
		for j, r := range c.Replies {
			view.Replies[j] = ReplyView{
				UserRef:   userRef(r.UserID, users),
				Index:     j,
				Content:   r.Content,
				CreatedAt: r.CreatedAt,
			}
		}
		views[i] = view
	}
	return views, nil
}

// userRef builds the attribution for a user ID, degrading to an ID-only ref
// when the account no longer exists.
func userRef(userID string, users map[string]*domain.User) UserRef {
	ref := UserRef{UserID: userID}
	if u, ok := users[userID]; ok {
		ref.Username = u.Username
		ref.Avatar = u.Avatar
	}
	return ref
}
