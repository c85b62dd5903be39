package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
)

// Book Operations

// CreateBook creates a new book.
// Returns ErrAlreadyExists if the ID or either external key is taken.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("isbn13", book.PrimaryISBN13),
		)
	}
	return nil
}

// GetBook retrieves a book by internal ID.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.Books.Get(ctx, bookID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	return book, nil
}

// GetBookByISBN retrieves a book by its ISBN-13.
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	book, err := s.Books.GetByIndex(ctx, indexBookISBN, isbn)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	return book, nil
}

// GetBookByCatalogID retrieves a book by its external catalog ID.
func (s *Store) GetBookByCatalogID(ctx context.Context, catalogID string) (*domain.Book, error) {
	book, err := s.Books.GetByIndex(ctx, indexBookCatalog, catalogID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	return book, nil
}

// ResolveBook maps an opaque book identifier to its record, trying in strict
// order: internal ID (when the identifier is syntactically one), then
// ISBN-13, then catalog ID. The internal ID wins on a textual collision with
// an external key. Read-only.
func (s *Store) ResolveBook(ctx context.Context, identifier string) (*domain.Book, error) {
	if id.HasPrefix(id.PrefixBook, identifier) {
		book, err := s.Books.Get(ctx, identifier)
		if err == nil {
			return book, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Fall through to the external key spaces.
	}

	book, err := s.Books.GetByIndex(ctx, indexBookISBN, identifier)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	book, err = s.Books.GetByIndex(ctx, indexBookCatalog, identifier)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	return nil, ErrNotFound.WithMessage("book not found")
}

// UpdateBook persists a modified book and refreshes its index entries.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	book.Touch()
	if err := s.Books.Update(ctx, book.ID, book); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("book not found")
		}
		return err
	}
	return nil
}

// ListBooks returns all books sorted by creation time, newest first.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	slices.SortFunc(books, func(a, b *domain.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return books, nil
}

// GetBooksLikedBy returns every book the user has liked, newest first.
func (s *Store) GetBooksLikedBy(ctx context.Context, userID string) ([]*domain.Book, error) {
	books, err := s.Books.ListByIndex(ctx, indexBookLikedBy, userID)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(books, func(a, b *domain.Book) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return books, nil
}
