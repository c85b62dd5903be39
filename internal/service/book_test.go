package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

func seedUser(t *testing.T, env *testEnv, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	u.ID = id.MustGenerate(id.PrefixUser)
	u.InitTimestamps()
	require.NoError(t, env.store.CreateUser(context.Background(), u))
	return u
}

func seedBook(t *testing.T, env *testEnv, isbn, catalogID string) *domain.Book {
	t.Helper()
	b := &domain.Book{
		PrimaryISBN13: isbn,
		CatalogID:     catalogID,
		Title:         "Seeded Book",
		Author:        "Seed Author",
		Ratings:       []domain.Rating{},
		Likes:         []string{},
	}
	b.ID = id.MustGenerate(id.PrefixBook)
	b.InitTimestamps()
	require.NoError(t, env.store.CreateBook(context.Background(), b))
	return b
}

func TestBookService_CreateBook(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, "user-owner", service.CreateBookRequest{
		Title:         "The Overstory",
		Author:        "Richard Powers",
		PrimaryISBN13: "9780393356687",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-owner", book.OwnerID)
	assert.NotEmpty(t, book.ID)
	assert.Empty(t, book.Ratings)

	// Duplicate external key is a conflict.
	_, err = svc.CreateBook(ctx, "user-other", service.CreateBookRequest{
		Title:         "Duplicate",
		Author:        "Someone",
		PrimaryISBN13: "9780393356687",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))
}

func TestBookService_CreateBook_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)

	_, err := svc.CreateBook(context.Background(), "user-owner", service.CreateBookRequest{
		Author: "No Title",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.CreateBook(context.Background(), "user-owner", service.CreateBookRequest{
		Title:         "Bad ISBN",
		Author:        "Someone",
		PrimaryISBN13: "12345",
	})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))
}

func TestBookService_RateBook_UpsertAndAverage(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000001", "cat-1")

	_, err := svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 4})
	require.NoError(t, err)
	_, err = svc.RateBook(ctx, book.ID, "user-b", service.RateBookRequest{Rating: 5})
	require.NoError(t, err)
	_, err = svc.RateBook(ctx, book.ID, "user-c", service.RateBookRequest{Rating: 4})
	require.NoError(t, err)

	// (4+5+4)/3 = 4.333... rounds to 4.3
	got, err := env.store.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, got.Stats.AverageRating)
	assert.Equal(t, 3, got.Stats.TotalReviews)

	// Re-rating replaces in place, count unchanged.
	updated, err := svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stats.TotalReviews)
	assert.Equal(t, "user-a", updated.Ratings[0].UserID)
	assert.Equal(t, 1, updated.Ratings[0].Rating)
}

func TestBookService_RateBook_BoundsAndMissing(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000002", "cat-2")

	_, err := svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 6})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 0})
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.RateBook(ctx, "no-such-book", "user-a", service.RateBookRequest{Rating: 3})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestBookService_UserRating_NilWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000003", "cat-3")

	rating, err := svc.UserRating(ctx, book.ID, "user-a")
	require.NoError(t, err)
	assert.Nil(t, rating)

	_, err = svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 2})
	require.NoError(t, err)

	rating, err = svc.UserRating(ctx, book.PrimaryISBN13, "user-a")
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 2, rating.Rating)
}

func TestBookService_DeleteRating(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000004", "cat-4")

	// Deleting a rating that was never set is NotFound.
	_, err := svc.DeleteRating(ctx, book.ID, "user-a")
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	_, err = svc.RateBook(ctx, book.ID, "user-a", service.RateBookRequest{Rating: 5})
	require.NoError(t, err)

	updated, err := svc.DeleteRating(ctx, book.ID, "user-a")
	require.NoError(t, err)
	assert.Zero(t, updated.Stats.AverageRating)
	assert.Zero(t, updated.Stats.TotalReviews)
	assert.Empty(t, updated.Ratings)
}

func TestBookService_BookRatings_Enriched(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000005", "cat-5")
	alice := seedUser(t, env, "alice")

	_, err := svc.RateBook(ctx, book.ID, alice.ID, service.RateBookRequest{Rating: 5})
	require.NoError(t, err)
	_, err = svc.RateBook(ctx, book.ID, "user-deleted", service.RateBookRequest{Rating: 3})
	require.NoError(t, err)

	views, err := svc.BookRatings(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "alice", views[0].Username)
	assert.Equal(t, 5, views[0].Rating)
	assert.Empty(t, views[1].Username, "deleted account keeps its score without attribution")
}

func TestBookService_ToggleLike_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000006", "cat-6")

	res, err := svc.ToggleLike(ctx, book.ID, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Book.Stats.TotalLikes)

	res, err = svc.ToggleLike(ctx, book.CatalogID, "user-a")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, 0, res.Book.Stats.TotalLikes)

	_, err = svc.ToggleLike(ctx, "unknown-book", "user-a")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestBookService_LikeWithCreate_Placeholder(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	res, err := svc.LikeWithCreate(ctx, "mystery-id", "user-a", nil)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, "Book mystery-id", res.Book.Title)
	assert.Equal(t, "Unknown Author", res.Book.Author)
	assert.Equal(t, "No description available", res.Book.Description)
	assert.Equal(t, "mystery-id", res.Book.PrimaryISBN13)
	assert.Equal(t, "mystery-id", res.Book.CatalogID)
	assert.Equal(t, "user-a", res.Book.OwnerID)
	assert.Equal(t, 1, res.Book.Stats.TotalLikes)

	// A second like on the same identifier resolves the created record
	// instead of synthesizing another.
	res2, err := svc.LikeWithCreate(ctx, "mystery-id", "user-b", nil)
	require.NoError(t, err)
	assert.Equal(t, res.Book.ID, res2.Book.ID)
	assert.Equal(t, 2, res2.Book.Stats.TotalLikes)
}

func TestBookService_LikeWithCreate_Metadata(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	res, err := svc.LikeWithCreate(ctx, "nyt-777", "user-a", &service.BookMetadata{
		Title:         "Project Hail Mary",
		Author:        "Andy Weir",
		PrimaryISBN13: "9780593135204",
		Publisher:     "Ballantine",
		Rank:          2,
		WeeksOnList:   40,
	})
	require.NoError(t, err)
	assert.Equal(t, "Project Hail Mary", res.Book.Title)
	assert.Equal(t, "9780593135204", res.Book.PrimaryISBN13)
	assert.Equal(t, "9780593135204", res.Book.CatalogID)
	assert.Equal(t, 40, res.Book.WeeksOnList)
}

func TestBookService_LikeWithCreate_MetadataISBNWinsOverIdentifier(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	// Even when the identifier itself looks like an ISBN, the metadata's
	// ISBN keys both external identifiers.
	res, err := svc.LikeWithCreate(ctx, "9999999999999", "user-a", &service.BookMetadata{
		Title:         "Catalog Truth",
		PrimaryISBN13: "9780000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, "9780000000001", res.Book.PrimaryISBN13)
	assert.Equal(t, "9780000000001", res.Book.CatalogID)
}

func TestBookService_LikeWithCreate_MetadataGapsGetPlaceholders(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	res, err := svc.LikeWithCreate(ctx, "nyt-42", "user-a", &service.BookMetadata{
		Publisher: "Somebody",
	})
	require.NoError(t, err)
	assert.Equal(t, "Book nyt-42", res.Book.Title)
	assert.Equal(t, "Unknown Author", res.Book.Author)
	assert.Equal(t, "No description available", res.Book.Description)
	assert.Equal(t, "Somebody", res.Book.Publisher)
	assert.Equal(t, "nyt-42", res.Book.PrimaryISBN13)
	assert.Equal(t, "nyt-42", res.Book.CatalogID)
}

func TestBookService_LikeWithCreate_ThirteenDigitIdentifier(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()

	res, err := svc.LikeWithCreate(ctx, "9781234567890", "user-a", nil)
	require.NoError(t, err)
	assert.Equal(t, "9781234567890", res.Book.PrimaryISBN13)
	assert.Equal(t, "Book 9781234567890", res.Book.Title)

	// The record is now resolvable by ISBN.
	got, err := svc.GetBookByISBN(ctx, "9781234567890")
	require.NoError(t, err)
	assert.Equal(t, res.Book.ID, got.ID)
}

func TestBookService_LikeWithCreate_ExistingBookUntouched(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000007", "cat-7")

	res, err := svc.LikeWithCreate(ctx, "9780000000007", "user-a", &service.BookMetadata{
		Title: "Should Not Overwrite",
	})
	require.NoError(t, err)
	assert.Equal(t, book.ID, res.Book.ID)
	assert.Equal(t, "Seeded Book", res.Book.Title, "existing records keep their metadata")
	assert.True(t, res.Liked)
}

func TestBookService_IsBookLiked(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	book := seedBook(t, env, "9780000000008", "cat-8")

	liked, err := svc.IsBookLiked(ctx, book.ID, "user-a")
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = svc.ToggleLike(ctx, book.ID, "user-a")
	require.NoError(t, err)

	liked, err = svc.IsBookLiked(ctx, book.ID, "user-a")
	require.NoError(t, err)
	assert.True(t, liked)

	// Missing book reads as not liked, not as an error.
	liked, err = svc.IsBookLiked(ctx, "ghost-book", "user-a")
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestBookService_LikedBooks_Projection(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookService(t)
	ctx := context.Background()
	b1 := seedBook(t, env, "9780000000009", "cat-9")
	b2 := seedBook(t, env, "9780000000010", "cat-10")

	_, err := svc.ToggleLike(ctx, b1.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, b2.ID, "user-a")
	require.NoError(t, err)
	_, err = svc.ToggleLike(ctx, b2.ID, "user-b")
	require.NoError(t, err)

	books, err := svc.LikedBooks(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, books, 2)
	for _, b := range books {
		assert.NotEmpty(t, b.Title)
	}

	// Unliking removes the book from the projection.
	_, err = svc.ToggleLike(ctx, b1.ID, "user-a")
	require.NoError(t, err)
	books, err = svc.LikedBooks(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, b2.ID, books[0].ID)
}
