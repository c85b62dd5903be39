package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

// BookService owns the catalog: identifier resolution, ratings, community
// stats, and like toggles.
type BookService struct {
	store     *store.Store
	enricher  *dto.Enricher
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(
	store *store.Store,
	enricher *dto.Enricher,
	validator *validation.Validator,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:     store,
		enricher:  enricher,
		validator: validator,
		logger:    logger,
	}
}

// CreateBookRequest contains the fields a user supplies when adding a book.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"required,max=200"`
	PrimaryISBN13 string `json:"primary_isbn13,omitempty" validate:"omitempty,len=13,numeric"`
	CatalogID     string `json:"catalog_id,omitempty" validate:"omitempty,max=100"`
	Description   string `json:"description,omitempty" validate:"omitempty,max=5000"`
	CoverURL      string `json:"cover_url,omitempty" validate:"omitempty,url"`
	ProductURL    string `json:"product_url,omitempty" validate:"omitempty,url"`
	Publisher     string `json:"publisher,omitempty" validate:"omitempty,max=200"`
	Rank          int    `json:"rank,omitempty" validate:"omitempty,gte=0"`
	WeeksOnList   int    `json:"weeks_on_list,omitempty" validate:"omitempty,gte=0"`
}

// BookMetadata is optional external catalog data supplied with a
// like-with-create request. All fields are optional; the identifier alone is
// enough to synthesize a placeholder.
type BookMetadata struct {
	Title         string `json:"title,omitempty" validate:"omitempty,max=500"`
	Author        string `json:"author,omitempty" validate:"omitempty,max=200"`
	PrimaryISBN13 string `json:"primary_isbn13,omitempty" validate:"omitempty,len=13,numeric"`
	Description   string `json:"description,omitempty" validate:"omitempty,max=5000"`
	CoverURL      string `json:"cover_url,omitempty" validate:"omitempty,url"`
	ProductURL    string `json:"product_url,omitempty" validate:"omitempty,url"`
	Publisher     string `json:"publisher,omitempty" validate:"omitempty,max=200"`
	Rank          int    `json:"rank,omitempty" validate:"omitempty,gte=0"`
	WeeksOnList   int    `json:"weeks_on_list,omitempty" validate:"omitempty,gte=0"`
}

// RateBookRequest carries a rating mutation.
type RateBookRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	Book  *domain.Book `json:"book"`
	Liked bool         `json:"liked"`
}

// ListBooks returns the catalog, newest first.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// GetBook resolves an opaque identifier (internal ID, ISBN-13, or catalog ID)
// to its book.
func (s *BookService) GetBook(ctx context.Context, identifier string) (*domain.Book, error) {
	return s.store.ResolveBook(ctx, identifier)
}

// GetBookByISBN looks a book up by ISBN-13 only.
func (s *BookService) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	return s.store.GetBookByISBN(ctx, isbn)
}

// GetBookByCatalogID looks a book up by external catalog ID only.
func (s *BookService) GetBookByCatalogID(ctx context.Context, catalogID string) (*domain.Book, error) {
	return s.store.GetBookByCatalogID(ctx, catalogID)
}

// CreateBook adds a catalog record owned by the caller.
func (s *BookService) CreateBook(ctx context.Context, ownerID string, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		OwnerID:       ownerID,
		PrimaryISBN13: req.PrimaryISBN13,
		CatalogID:     req.CatalogID,
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		CoverURL:      req.CoverURL,
		ProductURL:    req.ProductURL,
		Publisher:     req.Publisher,
		Rank:          req.Rank,
		WeeksOnList:   req.WeeksOnList,
		Ratings:       []domain.Rating{},
		Likes:         []string{},
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("a book with this ISBN or catalog ID already exists")
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// RateBook records the caller's rating (1..5) on a book, replacing any
// earlier one, and re-derives the community stats before persisting.
func (s *BookService) RateBook(ctx context.Context, identifier, userID string, req RateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		return nil, err
	}

	book.SetRating(userID, req.Rating)
	book.RecomputeCommunityStats()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// UserRating returns the caller's rating on a book, or nil when the caller
// has not rated it. Absence is not an error.
func (s *BookService) UserRating(ctx context.Context, identifier, userID string) (*domain.Rating, error) {
	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return book.RatingByUser(userID), nil
}

// DeleteRating removes the caller's rating and re-derives community stats.
// Returns NotFound when the caller has no rating on the book.
func (s *BookService) DeleteRating(ctx context.Context, identifier, userID string) (*domain.Book, error) {
	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if !book.RemoveRating(userID) {
		return nil, domainerrors.NotFound("rating not found")
	}
	book.RecomputeCommunityStats()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// BookRatings returns every rating on a book with authors resolved.
func (s *BookService) BookRatings(ctx context.Context, identifier string) ([]dto.RatingView, error) {
	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.enricher.EnrichRatings(ctx, book.Ratings)
}

// ToggleLike flips the caller's like on an existing book.
func (s *BookService) ToggleLike(ctx context.Context, identifier, userID string) (*LikeResult, error) {
	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.applyLike(ctx, book, userID)
}

// LikeWithCreate flips the caller's like, synthesizing the book first when
// the identifier is unknown. Optional metadata fills the new record;
// otherwise a named placeholder is created with both external keys set to the
// identifier.
func (s *BookService) LikeWithCreate(ctx context.Context, identifier, userID string, meta *BookMetadata) (*LikeResult, error) {
	if meta != nil {
		if err := s.validator.Validate(*meta); err != nil {
			return nil, err
		}
	}

	book, err := s.store.ResolveBook(ctx, identifier)
	if err == nil {
		return s.applyLike(ctx, book, userID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Unknown identifier: NotFound here is control flow, not a failure.
	book, err = s.createFromIdentifier(ctx, identifier, userID, meta)
	if err != nil {
		return nil, err
	}
	return s.applyLike(ctx, book, userID)
}

// createFromIdentifier synthesizes a book for a like on an unknown
// identifier. A re-check on both external keys runs just before the insert so
// a concurrent auto-create of the same identifier reuses the winner's record
// (best effort; the unique index rejects true ties).
func (s *BookService) createFromIdentifier(ctx context.Context, identifier, userID string, meta *BookMetadata) (*domain.Book, error) {
	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		OwnerID: userID,
		Ratings: []domain.Rating{},
		Likes:   []string{},
	}
	book.ID = bookID
	book.InitTimestamps()

	// Placeholders fill any gap the metadata leaves.
	book.Title = "Book " + identifier
	book.Author = "Unknown Author"
	book.Description = "No description available"

	if meta != nil {
		key := meta.PrimaryISBN13
		if key == "" {
			key = identifier
		}
		book.PrimaryISBN13 = key
		book.CatalogID = key
		if meta.Title != "" {
			book.Title = meta.Title
		}
		if meta.Author != "" {
			book.Author = meta.Author
		}
		if meta.Description != "" {
			book.Description = meta.Description
		}
		book.CoverURL = meta.CoverURL
		book.ProductURL = meta.ProductURL
		book.Publisher = meta.Publisher
		book.Rank = meta.Rank
		book.WeeksOnList = meta.WeeksOnList
	} else {
		book.PrimaryISBN13 = identifier
		book.CatalogID = identifier
		if isThirteenDigits(identifier) {
			book.PrimaryISBN13 = identifier
		}
	}

	// Re-check both key spaces right before inserting.
	if existing, err := s.store.GetBookByISBN(ctx, book.PrimaryISBN13); err == nil {
		return existing, nil
	}
	if existing, err := s.store.GetBookByCatalogID(ctx, book.CatalogID); err == nil {
		return existing, nil
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the race; the winner's record is the one to like.
			return s.store.ResolveBook(ctx, identifier)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Book auto-created from like", "book_id", book.ID, "identifier", identifier)
	}
	return book, nil
}

// applyLike toggles membership, keeps the counter in sync, and persists.
func (s *BookService) applyLike(ctx context.Context, book *domain.Book, userID string) (*LikeResult, error) {
	liked := book.ToggleLike(userID)
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	return &LikeResult{Book: book, Liked: liked}, nil
}

// IsBookLiked reports whether the caller likes the identified book.
// A missing book reads as not liked rather than an error; the mismatch is
// logged for observability.
func (s *BookService) IsBookLiked(ctx context.Context, identifier, userID string) (bool, error) {
	book, err := s.store.ResolveBook(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			if s.logger != nil {
				s.logger.Debug("Like status requested for unknown book", "identifier", identifier)
			}
			return false, nil
		}
		return false, err
	}
	return book.IsLikedBy(userID), nil
}

// LikedBooks returns the caller's liked books as compact projections,
// newest first.
func (s *BookService) LikedBooks(ctx context.Context, userID string) ([]dto.LikedBook, error) {
	books, err := s.store.GetBooksLikedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked books: %w", err)
	}
	return dto.NewLikedBooks(books), nil
}

// isThirteenDigits reports whether s looks like a bare ISBN-13.
func isThirteenDigits(s string) bool {
	if len(s) != 13 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
