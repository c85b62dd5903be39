package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_RecomputeCommunityStats(t *testing.T) {
	tests := []struct {
		name        string
		ratings     []Rating
		wantAverage float64
		wantReviews int
	}{
		{
			name:        "empty ratings zero out",
			ratings:     nil,
			wantAverage: 0,
			wantReviews: 0,
		},
		{
			name:        "single rating",
			ratings:     []Rating{{UserID: "user-a", Rating: 4}},
			wantAverage: 4,
			wantReviews: 1,
		},
		{
			name: "mean rounds half away from zero",
			ratings: []Rating{
				{UserID: "user-a", Rating: 4},
				{UserID: "user-b", Rating: 3},
			},
			wantAverage: 3.5,
			wantReviews: 2,
		},
		{
			name: "one decimal place",
			ratings: []Rating{
				{UserID: "user-a", Rating: 5},
				{UserID: "user-b", Rating: 4},
				{UserID: "user-c", Rating: 4},
			},
			wantAverage: 4.3,
			wantReviews: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := &Book{Ratings: tt.ratings}
			// Stale values must be overwritten, not merged.
			book.Stats.AverageRating = 99
			book.Stats.TotalReviews = 99

			book.RecomputeCommunityStats()

			assert.Equal(t, tt.wantAverage, book.Stats.AverageRating)
			assert.Equal(t, tt.wantReviews, book.Stats.TotalReviews)
		})
	}
}

func TestBook_RecomputeCommunityStats_LeavesOtherCountersAlone(t *testing.T) {
	book := &Book{
		Stats:   CommunityStats{TotalVotes: 120, TotalLikes: 7},
		Ratings: []Rating{{UserID: "user-a", Rating: 2}},
	}

	book.RecomputeCommunityStats()

	assert.Equal(t, 120, book.Stats.TotalVotes)
	assert.Equal(t, 7, book.Stats.TotalLikes)
}

func TestBook_SetRating_UpsertsByUser(t *testing.T) {
	book := &Book{}

	book.SetRating("user-a", 3)
	book.SetRating("user-b", 5)
	require.Len(t, book.Ratings, 2)

	// Re-rating overwrites in place, preserving position.
	book.SetRating("user-a", 1)
	require.Len(t, book.Ratings, 2)
	assert.Equal(t, "user-a", book.Ratings[0].UserID)
	assert.Equal(t, 1, book.Ratings[0].Rating)
	assert.Equal(t, "user-b", book.Ratings[1].UserID)
}

func TestBook_RatingByUser(t *testing.T) {
	book := &Book{Ratings: []Rating{{UserID: "user-a", Rating: 2}}}

	found := book.RatingByUser("user-a")
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Rating)

	assert.Nil(t, book.RatingByUser("user-b"))
}

func TestBook_RemoveRating(t *testing.T) {
	book := &Book{Ratings: []Rating{
		{UserID: "user-a", Rating: 2},
		{UserID: "user-b", Rating: 4},
	}}

	assert.True(t, book.RemoveRating("user-a"))
	require.Len(t, book.Ratings, 1)
	assert.Equal(t, "user-b", book.Ratings[0].UserID)

	assert.False(t, book.RemoveRating("user-a"))
}

func TestBook_ToggleLike_RoundTrip(t *testing.T) {
	book := &Book{}

	added := book.ToggleLike("user-a")
	assert.True(t, added)
	assert.Equal(t, []string{"user-a"}, book.Likes)
	assert.Equal(t, 1, book.Stats.TotalLikes)

	added = book.ToggleLike("user-a")
	assert.False(t, added)
	assert.Empty(t, book.Likes)
	assert.Equal(t, 0, book.Stats.TotalLikes)
}

func TestBook_ToggleLike_CounterNeverNegative(t *testing.T) {
	// Simulates counter drift from a lost update: membership present but
	// counter already at zero.
	book := &Book{Likes: []string{"user-a"}, Stats: CommunityStats{TotalLikes: 0}}

	book.ToggleLike("user-a")

	assert.Equal(t, 0, book.Stats.TotalLikes)
	assert.Empty(t, book.Likes)
}

func TestBook_ToggleLike_PreservesOtherLikers(t *testing.T) {
	book := &Book{Likes: []string{"user-a", "user-b", "user-c"}, Stats: CommunityStats{TotalLikes: 3}}

	book.ToggleLike("user-b")

	assert.Equal(t, []string{"user-a", "user-c"}, book.Likes)
	assert.Equal(t, 2, book.Stats.TotalLikes)
	assert.True(t, book.IsLikedBy("user-a"))
	assert.False(t, book.IsLikedBy("user-b"))
}
