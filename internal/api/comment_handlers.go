package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerCommentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/comments",
		Summary:     "List comments for a book",
		Description: "Returns comments filed under the given book reference, newest first",
		Tags:        []string{"Comments"},
	}, s.handleListBookComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "createComment",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments",
		Summary:     "Create comment",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleCreateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyComments",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/comments",
		Summary:     "List own comments",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleListMyComments)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateComment",
		Method:      http.MethodPatch,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Update comment",
		Description: "Replaces the comment text. Only the author may update; likes and replies are untouched.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleUpdateComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteComment",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}",
		Summary:     "Delete comment",
		Description: "Removes a comment and its replies. Only the author may delete.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleDeleteComment)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleCommentLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/like",
		Summary:     "Toggle comment like",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleToggleCommentLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "addReply",
		Method:      http.MethodPost,
		Path:        "/api/v1/comments/{id}/replies",
		Summary:     "Add reply",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleAddReply)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReply",
		Method:      http.MethodDelete,
		Path:        "/api/v1/comments/{id}/replies/{index}",
		Summary:     "Delete reply",
		Description: "Removes a reply by position. Only the reply's author may delete; later replies shift down.",
		Tags:        []string{"Comments"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleDeleteReply)
}

// === DTOs ===

// ListCommentsInput selects comments by book reference.
type ListCommentsInput struct {
	BookRef string `query:"book_ref" required:"true" maxLength:"100" doc:"Book reference the comments were filed under"`
}

// CommentIDInput carries a comment ID path parameter.
type CommentIDInput struct {
	ID string `path:"id" maxLength:"100"`
}

// CreateCommentInput wraps the create request for Huma.
type CreateCommentInput struct {
	Body service.CreateCommentRequest
}

// UpdateCommentInput wraps the update request for Huma.
type UpdateCommentInput struct {
	ID   string `path:"id" maxLength:"100"`
	Body service.UpdateCommentRequest
}

// ReplyInput wraps an add-reply request for Huma.
type ReplyInput struct {
	ID   string `path:"id" maxLength:"100"`
	Body service.ReplyRequest
}

// DeleteReplyInput identifies a reply by comment and position.
type DeleteReplyInput struct {
	ID    string `path:"id" maxLength:"100"`
	Index int    `path:"index" minimum:"0" doc:"Zero-based reply position"`
}

// CommentOutput wraps a single enriched comment for Huma.
type CommentOutput struct {
	Body *dto.CommentView
}

// CommentListOutput wraps enriched comments for Huma.
type CommentListOutput struct {
	Body []*dto.CommentView
}

// CommentLikeOutput reports a comment like toggle outcome.
type CommentLikeOutput struct {
	Body struct {
		Comment *dto.CommentView `json:"comment" doc:"Updated comment"`
		Liked   bool             `json:"liked" doc:"Whether the caller now likes the comment"`
	}
}

// === Handlers ===

func (s *Server) handleListBookComments(ctx context.Context, input *ListCommentsInput) (*CommentListOutput, error) {
	comments, err := s.services.Comment.ListByBook(ctx, input.BookRef)
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: comments}, nil
}

func (s *Server) handleCreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleListMyComments(ctx context.Context, _ *struct{}) (*CommentListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comments, err := s.services.Comment.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CommentListOutput{Body: comments}, nil
}

func (s *Server) handleUpdateComment(ctx context.Context, input *UpdateCommentInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.Update(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleDeleteComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Comment.Delete(ctx, input.ID, userID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Comment deleted"}}, nil
}

func (s *Server) handleToggleCommentLike(ctx context.Context, input *CommentIDInput) (*CommentLikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, liked, err := s.services.Comment.ToggleLike(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	out := &CommentLikeOutput{}
	out.Body.Comment = comment
	out.Body.Liked = liked
	return out, nil
}

func (s *Server) handleAddReply(ctx context.Context, input *ReplyInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.AddReply(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}

func (s *Server) handleDeleteReply(ctx context.Context, input *DeleteReplyInput) (*CommentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	comment, err := s.services.Comment.DeleteReply(ctx, input.ID, input.Index, userID)
	if err != nil {
		return nil, err
	}
	return &CommentOutput{Body: comment}, nil
}
