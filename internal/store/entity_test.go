package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

type testEntity struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Tags  []string `json:"tags"`
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestEntity(s *store.Store) *store.Entity[testEntity] {
	return store.NewEntity(s, "test:", func(e *testEntity) string { return e.ID }).
		WithUniqueIndex("email", func(e *testEntity) []string {
			return []string{e.Email}
		}).
		WithMultiIndex("tag", func(e *testEntity) []string {
			return e.Tags
		})
}

func TestEntity_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	stored := &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"go"}}
	require.NoError(t, entity.Create(ctx, "1", stored))

	retrieved, err := entity.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, stored, retrieved)
}

func TestEntity_Create_AlreadyExists(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))

	err := entity.Create(ctx, "1", &testEntity{ID: "1", Email: "b@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Create_UniqueIndexConflict(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))

	err := entity.Create(ctx, "2", &testEntity{ID: "2", Email: "a@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	_, err := entity.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_GetByIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))

	found, err := entity.GetByIndex(ctx, "email", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", found.ID)

	_, err = entity.GetByIndex(ctx, "email", "missing@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_ListByIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"go", "db"}}))
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "b@example.com", Tags: []string{"go"}}))
	require.NoError(t, entity.Create(ctx, "3", &testEntity{ID: "3", Email: "c@example.com"}))

	tagged, err := entity.ListByIndex(ctx, "tag", "go")
	require.NoError(t, err)
	require.Len(t, tagged, 2)

	tagged, err = entity.ListByIndex(ctx, "tag", "db")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "1", tagged[0].ID)

	tagged, err = entity.ListByIndex(ctx, "tag", "none")
	require.NoError(t, err)
	assert.Empty(t, tagged)
}

func TestEntity_Update_RewritesIndexes(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"go"}}))

	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Email: "new@example.com", Tags: []string{"db"}}))

	// Old index entries are gone.
	_, err := entity.GetByIndex(ctx, "email", "a@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	old, err := entity.ListByIndex(ctx, "tag", "go")
	require.NoError(t, err)
	assert.Empty(t, old)

	// New entries resolve.
	found, err := entity.GetByIndex(ctx, "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", found.ID)

	tagged, err := entity.ListByIndex(ctx, "tag", "db")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Update(context.Background(), "missing", &testEntity{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_UniqueConflictWithOtherEntity(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "b@example.com"}))

	err := entity.Update(ctx, "2", &testEntity{ID: "2", Email: "a@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// Keeping your own unique value is not a conflict.
	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"x"}}))
}

func TestEntity_Delete_RemovesIndexes(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"go"}}))
	require.NoError(t, entity.Delete(ctx, "1"))

	_, err := entity.Get(ctx, "1")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = entity.GetByIndex(ctx, "email", "a@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	tagged, err := entity.ListByIndex(ctx, "tag", "go")
	require.NoError(t, err)
	assert.Empty(t, tagged)

	// Deleting again is a no-op.
	require.NoError(t, entity.Delete(ctx, "1"))
}

func TestEntity_List(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com", Tags: []string{"go"}}))
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "b@example.com"}))

	var ids []string
	for e, err := range entity.List(ctx) {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	// Index entries must not leak into the listing.
	assert.ElementsMatch(t, []string{"1", "2"}, ids)
}
