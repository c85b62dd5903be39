package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// Comment Operations

// CreateComment creates a new comment.
func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) error {
	if err := s.Comments.Create(ctx, comment.ID, comment); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "comment created",
			slog.String("id", comment.ID),
			slog.String("user_id", comment.UserID),
			slog.String("book_ref", comment.BookRef),
		)
	}
	return nil
}

// GetComment retrieves a comment by ID.
func (s *Store) GetComment(ctx context.Context, commentID string) (*domain.Comment, error) {
	comment, err := s.Comments.Get(ctx, commentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("comment not found")
		}
		return nil, err
	}
	return comment, nil
}

// UpdateComment persists a modified comment.
func (s *Store) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	comment.Touch()
	if err := s.Comments.Update(ctx, comment.ID, comment); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("comment not found")
		}
		return err
	}
	return nil
}

// DeleteComment removes a comment. Idempotent.
func (s *Store) DeleteComment(ctx context.Context, commentID string) error {
	return s.Comments.Delete(ctx, commentID)
}

// ListCommentsByBook returns all comments filed under the given raw book
// identifier, newest first.
func (s *Store) ListCommentsByBook(ctx context.Context, bookRef string) ([]*domain.Comment, error) {
	comments, err := s.Comments.ListByIndex(ctx, indexCommentBook, bookRef)
	if err != nil {
		return nil, err
	}
	sortCommentsNewestFirst(comments)
	return comments, nil
}

// ListCommentsByUser returns all comments authored by the user, newest first.
func (s *Store) ListCommentsByUser(ctx context.Context, userID string) ([]*domain.Comment, error) {
	comments, err := s.Comments.ListByIndex(ctx, indexCommentUser, userID)
	if err != nil {
		return nil, err
	}
	sortCommentsNewestFirst(comments)
	return comments, nil
}

func sortCommentsNewestFirst(comments []*domain.Comment) {
	slices.SortFunc(comments, func(a, b *domain.Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
