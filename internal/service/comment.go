package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

// CommentService owns comment threads: creation, owner-checked mutation,
// likes, and positionally indexed replies.
type CommentService struct {
	store     *store.Store
	enricher  *dto.Enricher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCommentService creates a new comment service.
func NewCommentService(
	store *store.Store,
	enricher *dto.Enricher,
	validator *validation.Validator,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		store:     store,
		enricher:  enricher,
		validator: validator,
		logger:    logger,
	}
}

// CreateCommentRequest contains a new comment. BookRef is stored as given;
// it does not have to resolve to a catalog record.
type CreateCommentRequest struct {
	BookRef string `json:"book_ref" validate:"required,max=100"`
	Content string `json:"content" validate:"required,max=2000"`
}

// UpdateCommentRequest is the allow-listed patch for a comment. Only the
// content is writable; likes and replies are managed by their own
// operations and cannot be replaced wholesale.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// ReplyRequest contains a new reply on a comment.
type ReplyRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// ListByBook returns every comment whose BookRef matches the given
// identifier string exactly, newest first, with authors resolved.
func (s *CommentService) ListByBook(ctx context.Context, bookRef string) ([]*dto.CommentView, error) {
	comments, err := s.store.ListCommentsByBook(ctx, bookRef)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.enricher.EnrichComments(ctx, comments)
}

// ListByUser returns the user's comments, newest first, with authors resolved.
func (s *CommentService) ListByUser(ctx context.Context, userID string) ([]*dto.CommentView, error) {
	comments, err := s.store.ListCommentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.enricher.EnrichComments(ctx, comments)
}

// Create adds a comment authored by userID.
func (s *CommentService) Create(ctx context.Context, userID string, req CreateCommentRequest) (*dto.CommentView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	commentID, err := id.Generate(id.PrefixComment)
	if err != nil {
		return nil, fmt.Errorf("generate comment ID: %w", err)
	}

	comment := &domain.Comment{
		UserID:  userID,
		BookRef: req.BookRef,
		Content: req.Content,
		Likes:   []string{},
		Replies: []domain.Reply{},
	}
	comment.ID = commentID
	comment.InitTimestamps()

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Comment created", "comment_id", commentID, "book_ref", req.BookRef)
	}
	return s.enricher.EnrichComment(ctx, comment)
}

// Update patches a comment's content. Only the author may update; a missing
// comment reports NotFound before any ownership check.
func (s *CommentService) Update(ctx context.Context, commentID, userID string, req UpdateCommentRequest) (*dto.CommentView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.IsOwnedBy(userID) {
		return nil, domainerrors.Unauthorized("not authorized to update this comment")
	}

	comment.Content = req.Content
	comment.Touch()

	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.enricher.EnrichComment(ctx, comment)
}

// Delete removes a comment. Only the author may delete; a missing comment
// reports NotFound before any ownership check.
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !comment.IsOwnedBy(userID) {
		return domainerrors.Unauthorized("not authorized to delete this comment")
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Comment deleted", "comment_id", commentID)
	}
	return nil
}

// ToggleLike flips the caller's like on a comment. Open to any
// authenticated user, not just the author.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID string) (*dto.CommentView, bool, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, false, err
	}

	liked := comment.ToggleLike(userID)
	comment.Touch()

	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, false, fmt.Errorf("update comment: %w", err)
	}

	view, err := s.enricher.EnrichComment(ctx, comment)
	if err != nil {
		return nil, false, err
	}
	return view, liked, nil
}

// AddReply appends a reply to a comment. Open to any authenticated user.
func (s *CommentService) AddReply(ctx context.Context, commentID, userID string, req ReplyRequest) (*dto.CommentView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	comment.AddReply(userID, req.Content)
	comment.Touch()

	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.enricher.EnrichComment(ctx, comment)
}

// DeleteReply removes the reply at the given position. Bounds are checked
// before authorship: an out-of-range index is NotFound, a foreign reply is
// Unauthorized. Deletion shifts later indices down.
func (s *CommentService) DeleteReply(ctx context.Context, commentID string, index int, userID string) (*dto.CommentView, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	reply := comment.ReplyAt(index)
	if reply == nil {
		return nil, domainerrors.NotFound("reply not found")
	}
	if reply.UserID != userID {
		return nil, domainerrors.Unauthorized("not authorized to delete this reply")
	}

	comment.RemoveReplyAt(index)
	comment.Touch()

	if err := s.store.UpdateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return s.enricher.EnrichComment(ctx, comment)
}
