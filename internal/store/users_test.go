package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

func newTestUser(t *testing.T, username, email string) *domain.User {
	t.Helper()

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "hash",
		Avatar:       domain.DefaultAvatar,
	}
	user.ID = id.MustGenerate(id.PrefixUser)
	user.InitTimestamps()
	return user
}

func TestStore_GetUserByEmail_CaseInsensitive(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, "bookworm", "reader@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	found, err := s.GetUserByEmail(ctx, "Reader@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = s.GetUserByUsername(ctx, "BookWorm")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestStore_CreateUser_DuplicateEmailDiffersOnlyByCase(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, newTestUser(t, "first", "reader@example.com")))

	err := s.CreateUser(ctx, newTestUser(t, "second", "READER@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestStore_GetUsersByIDs_SkipsDangling(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, "bookworm", "reader@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	users, err := s.GetUsersByIDs(ctx, []string{user.ID, "user-gone", user.ID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bookworm", users[user.ID].Username)
}
