package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

func createComment(t *testing.T, svc *service.CommentService, userID, bookRef, content string) *dto.CommentView {
	t.Helper()
	view, err := svc.Create(context.Background(), userID, service.CreateCommentRequest{
		BookRef: bookRef,
		Content: content,
	})
	require.NoError(t, err)
	return view
}

func TestCommentService_CreateAndListByBook(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	createComment(t, svc, alice.ID, "9780000000001", "first")
	createComment(t, svc, alice.ID, "9780000000001", "second")
	createComment(t, svc, alice.ID, "9780000000099", "other book")

	views, err := svc.ListByBook(ctx, "9780000000001")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "alice", views[0].Author.Username)

	// BookRef matching is exact-string; an unknown ref just lists empty.
	views, err = svc.ListByBook(ctx, "never-commented")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCommentService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)

	_, err := svc.Create(context.Background(), "user-a", service.CreateCommentRequest{
		BookRef: "book-x",
		Content: strings.Repeat("a", 2001),
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.Create(context.Background(), "user-a", service.CreateCommentRequest{
		Content: "missing book ref",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestCommentService_Update_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	comment := createComment(t, svc, alice.ID, "book-ref", "original")

	// A missing comment is NotFound even for a wrong caller.
	_, err := svc.Update(ctx, "cmt-missing", "user-stranger", service.UpdateCommentRequest{Content: "x"})
	assert.True(t, errors.Is(err, store.ErrNotFound))

	// Wrong caller on an existing comment is Unauthorized.
	_, err = svc.Update(ctx, comment.ID, "user-stranger", service.UpdateCommentRequest{Content: "x"})
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))

	updated, err := svc.Update(ctx, comment.ID, alice.ID, service.UpdateCommentRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestCommentService_Update_PatchIsAllowListed(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	comment := createComment(t, svc, alice.ID, "book-ref", "original")

	_, _, err := svc.ToggleLike(ctx, comment.ID, "user-fan")
	require.NoError(t, err)
	_, err = svc.AddReply(ctx, comment.ID, "user-fan", service.ReplyRequest{Content: "nice"})
	require.NoError(t, err)

	// A content patch must not clobber likes or replies.
	updated, err := svc.Update(ctx, comment.ID, alice.ID, service.UpdateCommentRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, []string{"user-fan"}, updated.Likes)
	require.Len(t, updated.Replies, 1)
	assert.Equal(t, "nice", updated.Replies[0].Content)
}

func TestCommentService_Delete_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	comment := createComment(t, svc, alice.ID, "book-ref", "to delete")

	err := svc.Delete(ctx, comment.ID, "user-stranger")
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))

	require.NoError(t, svc.Delete(ctx, comment.ID, alice.ID))

	err = svc.Delete(ctx, comment.ID, alice.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestCommentService_ToggleLike(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")

	comment := createComment(t, svc, alice.ID, "book-ref", "likeable")

	view, liked, err := svc.ToggleLike(ctx, comment.ID, "user-fan")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Contains(t, view.Likes, "user-fan")

	view, liked, err = svc.ToggleLike(ctx, comment.ID, "user-fan")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, view.Likes)
}

func TestCommentService_Replies(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")

	comment := createComment(t, svc, alice.ID, "book-ref", "thread root")

	// Anyone may reply, not just the comment author.
	view, err := svc.AddReply(ctx, comment.ID, bob.ID, service.ReplyRequest{Content: "reply 0"})
	require.NoError(t, err)
	view, err = svc.AddReply(ctx, comment.ID, alice.ID, service.ReplyRequest{Content: "reply 1"})
	require.NoError(t, err)
	require.Len(t, view.Replies, 2)
	assert.Equal(t, "bob", view.Replies[0].Username)

	_, err = svc.AddReply(ctx, comment.ID, bob.ID, service.ReplyRequest{Content: strings.Repeat("b", 1001)})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestCommentService_DeleteReply(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")

	comment := createComment(t, svc, alice.ID, "book-ref", "thread root")
	_, err := svc.AddReply(ctx, comment.ID, bob.ID, service.ReplyRequest{Content: "reply 0"})
	require.NoError(t, err)
	_, err = svc.AddReply(ctx, comment.ID, alice.ID, service.ReplyRequest{Content: "reply 1"})
	require.NoError(t, err)

	// Out-of-range index is NotFound, checked before authorship.
	_, err = svc.DeleteReply(ctx, comment.ID, 5, bob.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
	_, err = svc.DeleteReply(ctx, comment.ID, -1, bob.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	// Only the reply's author may delete it; the comment owner cannot.
	_, err = svc.DeleteReply(ctx, comment.ID, 0, alice.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrUnauthorized))

	view, err := svc.DeleteReply(ctx, comment.ID, 0, bob.ID)
	require.NoError(t, err)
	require.Len(t, view.Replies, 1)
	// Deletion shifts later replies down.
	assert.Equal(t, "reply 1", view.Replies[0].Content)
	assert.Equal(t, 0, view.Replies[0].Index)
}

func TestCommentService_ListByUser(t *testing.T) {
	env := newTestEnv(t)
	svc := env.commentService(t)
	ctx := context.Background()
	alice := seedUser(t, env, "alice")
	bob := seedUser(t, env, "bob")

	createComment(t, svc, alice.ID, "book-1", "mine")
	createComment(t, svc, bob.ID, "book-1", "not mine")

	views, err := svc.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "mine", views[0].Content)
}
