package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the catalog, newest first",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Adds a book to the catalog. ISBN-13 and catalog ID must be unique.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Resolves a book by internal ID, ISBN-13, or external catalog ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookByISBN",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/isbn/{isbn}",
		Summary:     "Get book by ISBN",
		Tags:        []string{"Books"},
	}, s.handleGetBookByISBN)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookByCatalogID",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/catalog/{catalogID}",
		Summary:     "Get book by catalog ID",
		Tags:        []string{"Books"},
	}, s.handleGetBookByCatalogID)

	huma.Register(s.api, huma.Operation{
		OperationID: "rateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Rate book",
		Description: "Sets or updates the caller's rating (1-5) and recomputes community stats",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleRateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserRating",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Get own rating",
		Description: "Returns the caller's rating for the book, or null if unrated",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleGetUserRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRating",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Delete own rating",
		Tags:        []string{"Ratings"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleDeleteRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/ratings",
		Summary:     "List book ratings",
		Description: "Returns all ratings with author attribution",
		Tags:        []string{"Ratings"},
	}, s.handleListBookRatings)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleBookLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/like",
		Summary:     "Toggle like",
		Description: "Likes the book if not liked, unlikes it otherwise",
		Tags:        []string{"Likes"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleToggleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookLikeStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/like",
		Summary:     "Get like status",
		Description: "Reports whether the caller likes the book. Unknown books read as not liked.",
		Tags:        []string{"Likes"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleGetLikeStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/like",
		Summary:     "Like with create",
		Description: "Likes a book by any identifier, creating a catalog entry from the supplied metadata when none exists",
		Tags:        []string{"Likes"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleLikeWithCreate)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLikedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/likes",
		Summary:     "List liked books",
		Description: "Returns compact projections of the caller's liked books",
		Tags:        []string{"Likes"},
		Security:    []map[string][]string{{"bearer": {}}, {"cookie": {}}},
	}, s.handleListLikedBooks)
}

// === DTOs ===

// BookIDInput carries a book identifier path parameter.
type BookIDInput struct {
	ID string `path:"id" maxLength:"100" doc:"Internal ID, ISBN-13, or catalog ID"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// BookListOutput wraps a book list for Huma.
type BookListOutput struct {
	Body []*domain.Book
}

// CreateBookInput wraps the create request for Huma.
type CreateBookInput struct {
	Body service.CreateBookRequest
}

// RateBookInput carries a rating mutation.
type RateBookInput struct {
	ID   string `path:"id" maxLength:"100"`
	Body service.RateBookRequest
}

// RatingOutput wraps the caller's rating; Body.Rating is null when unrated.
type RatingOutput struct {
	Body struct {
		Rating *domain.Rating `json:"rating" doc:"Caller's rating, null if unrated"`
	}
}

// RatingListOutput wraps enriched ratings for Huma.
type RatingListOutput struct {
	Body []dto.RatingView
}

// LikeOutput reports a like toggle outcome.
type LikeOutput struct {
	Body service.LikeResult
}

// LikeStatusOutput reports whether the caller likes a book.
type LikeStatusOutput struct {
	Body struct {
		Liked bool `json:"liked" doc:"Whether the caller likes the book"`
	}
}

// LikeWithCreateRequest identifies a book to like, with optional metadata
// used when the book is not in the catalog yet.
type LikeWithCreateRequest struct {
	Identifier string                `json:"identifier" minLength:"1" maxLength:"100" doc:"Internal ID, ISBN-13, or catalog ID"`
	Metadata   *service.BookMetadata `json:"metadata,omitempty" doc:"Catalog data for auto-created entries"`
}

// LikeWithCreateInput wraps the like-with-create request for Huma.
type LikeWithCreateInput struct {
	Body LikeWithCreateRequest
}

// LikedBooksOutput wraps liked book projections for Huma.
type LikedBooksOutput struct {
	Body []dto.LikedBook
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*BookListOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: books}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.CreateBook(ctx, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBookByISBN(ctx context.Context, input *struct {
	ISBN string `path:"isbn" maxLength:"13"`
}) (*BookOutput, error) {
	book, err := s.services.Book.GetBookByISBN(ctx, input.ISBN)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBookByCatalogID(ctx context.Context, input *struct {
	CatalogID string `path:"catalogID" maxLength:"100"`
}) (*BookOutput, error) {
	book, err := s.services.Book.GetBookByCatalogID(ctx, input.CatalogID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleRateBook(ctx context.Context, input *RateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.RateBook(ctx, input.ID, userID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetUserRating(ctx context.Context, input *BookIDInput) (*RatingOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	rating, err := s.services.Book.UserRating(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	out := &RatingOutput{}
	out.Body.Rating = rating
	return out, nil
}

func (s *Server) handleDeleteRating(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.DeleteRating(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleListBookRatings(ctx context.Context, input *BookIDInput) (*RatingListOutput, error) {
	ratings, err := s.services.Book.BookRatings(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RatingListOutput{Body: ratings}, nil
}

func (s *Server) handleToggleLike(ctx context.Context, input *BookIDInput) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Book.ToggleLike(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: *result}, nil
}

func (s *Server) handleGetLikeStatus(ctx context.Context, input *BookIDInput) (*LikeStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	liked, err := s.services.Book.IsBookLiked(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	out := &LikeStatusOutput{}
	out.Body.Liked = liked
	return out, nil
}

func (s *Server) handleLikeWithCreate(ctx context.Context, input *LikeWithCreateInput) (*LikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Book.LikeWithCreate(ctx, input.Body.Identifier, userID, input.Body.Metadata)
	if err != nil {
		return nil, err
	}
	return &LikeOutput{Body: *result}, nil
}

func (s *Server) handleListLikedBooks(ctx context.Context, _ *struct{}) (*LikedBooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Book.LikedBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LikedBooksOutput{Body: books}, nil
}
