// Package store implements the persistent document store on top of Badger.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/util"
)

// Index names used by the typed accessors.
const (
	indexBookISBN    = "isbn13"
	indexBookCatalog = "catalog"
	indexBookLikedBy = "liked_by"

	indexUserEmail    = "email"
	indexUserUsername = "username"

	indexCommentBook = "book"
	indexCommentUser = "user"

	indexSessionToken = "token"
	indexSessionUser  = "user"
)

// Store wraps a Badger database instance.
//
// Every document write is a single Badger transaction; the store offers no
// cross-document transactions, matching the consistency model the services
// are written against.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users    *Entity[domain.User]
	Books    *Entity[domain.Book]
	Comments *Entity[domain.Comment]
	Sessions *Entity[domain.Session]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initUsers()
	s.initBooks()
	s.initComments()
	s.initSessions()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping verifies the database is responsive.
// Used by the health endpoint; runs a no-op read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(_ *badger.Txn) error { return nil })
}

// initUsers initializes the Users entity.
// Email and username are unique, case-insensitive via key normalization.
func (s *Store) initUsers() {
	s.Users = NewEntity(s, "user:", func(u *domain.User) string { return u.ID }).
		WithUniqueIndexTransform(indexUserEmail,
			func(u *domain.User) []string {
				return []string{util.NormalizeKey(u.Email)}
			},
			util.NormalizeKey,
		).
		WithUniqueIndexTransform(indexUserUsername,
			func(u *domain.User) []string {
				return []string{util.NormalizeKey(u.Username)}
			},
			util.NormalizeKey,
		)
}

// initBooks initializes the Books entity.
// ISBN-13 and catalog ID are unique external keys; the liked_by index lets
// "books a user likes" avoid a full catalog scan.
func (s *Store) initBooks() {
	s.Books = NewEntity(s, "book:", func(b *domain.Book) string { return b.ID }).
		WithUniqueIndex(indexBookISBN, func(b *domain.Book) []string {
			return []string{b.PrimaryISBN13}
		}).
		WithUniqueIndex(indexBookCatalog, func(b *domain.Book) []string {
			return []string{b.CatalogID}
		}).
		WithMultiIndex(indexBookLikedBy, func(b *domain.Book) []string {
			return b.Likes
		})
}

// initComments initializes the Comments entity, grouped by the raw book
// identifier the comment was filed under and by author.
func (s *Store) initComments() {
	s.Comments = NewEntity(s, "cmt:", func(c *domain.Comment) string { return c.ID }).
		WithMultiIndex(indexCommentBook, func(c *domain.Comment) []string {
			return []string{c.BookRef}
		}).
		WithMultiIndex(indexCommentUser, func(c *domain.Comment) []string {
			return []string{c.UserID}
		})
}

// initSessions initializes the Sessions entity.
// Sessions resolve by token hash on every authenticated request; the user
// index supports revoking all of a user's sessions.
func (s *Store) initSessions() {
	s.Sessions = NewEntity(s, "sess:", func(sn *domain.Session) string { return sn.ID }).
		WithUniqueIndex(indexSessionToken, func(sn *domain.Session) []string {
			return []string{sn.TokenHash}
		}).
		WithMultiIndex(indexSessionUser, func(sn *domain.Session) []string {
			return []string{sn.UserID}
		})
}
