package domain

import (
	"slices"
	"time"
)

// Content length limits enforced on comments and replies.
const (
	MaxCommentLength = 2000
	MaxReplyLength   = 1000
)

// Reply is a nested response on a comment. Replies are append-only and
// positionally indexed; deleting one shifts the indices of those after it.
type Reply struct {
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a user's comment on a book. BookRef holds the raw book
// identifier the client supplied (internal ID, ISBN-13, or catalog ID) and
// is not required to resolve to a stored book.
type Comment struct {
	Base
	UserID  string   `json:"user_id"`
	BookRef string   `json:"book_ref"`
	Content string   `json:"content"`
	Likes   []string `json:"likes"`
	Replies []Reply  `json:"replies"`
}

// IsOwnedBy reports whether the given user authored this comment.
// Only the author may mutate or delete it.
func (c *Comment) IsOwnedBy(userID string) bool {
	return c.UserID == userID
}

// ToggleLike flips the user's membership in the likers list.
// Comments carry no denormalized like counter.
// Returns true when the user now likes the comment.
func (c *Comment) ToggleLike(userID string) bool {
	likes, added := toggleMembership(c.Likes, userID)
	c.Likes = likes
	return added
}

// AddReply appends a reply authored by userID with the current time.
func (c *Comment) AddReply(userID, content string) {
	c.Replies = append(c.Replies, Reply{
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// ReplyAt returns the reply at the given position, or nil when the index is
// out of bounds.
func (c *Comment) ReplyAt(index int) *Reply {
	if index < 0 || index >= len(c.Replies) {
		return nil
	}
	return &c.Replies[index]
}

// RemoveReplyAt deletes the reply at the given position, shifting subsequent
// replies down. Returns false when the index is out of bounds.
func (c *Comment) RemoveReplyAt(index int) bool {
	if index < 0 || index >= len(c.Replies) {
		return false
	}
	c.Replies = slices.Delete(c.Replies, index, index+1)
	return true
}
