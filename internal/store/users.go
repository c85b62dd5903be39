package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// User Operations

// CreateUser creates a new user.
// Returns ErrAlreadyExists when the email or username is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "user created",
			slog.String("id", user.ID),
			slog.String("username", user.Username),
		)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("user not found")
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, indexUserEmail, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("user not found")
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.Users.GetByIndex(ctx, indexUserUsername, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("user not found")
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser persists a modified user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.Touch()
	if err := s.Users.Update(ctx, user.ID, user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound.WithMessage("user not found")
		}
		return err
	}
	return nil
}

// DeleteUser removes a user account. Sessions and content referencing the
// user are left in place; readers degrade to an ID-only attribution.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := s.Users.Delete(ctx, userID); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "user deleted",
			slog.String("id", userID),
		)
	}
	return nil
}

// GetUsersByIDs fetches the given users, skipping IDs that no longer
// resolve. Used for response enrichment where a dangling weak reference
// should degrade gracefully rather than fail the request.
func (s *Store) GetUsersByIDs(ctx context.Context, userIDs []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(userIDs))
	for _, userID := range userIDs {
		if _, ok := users[userID]; ok {
			continue
		}
		user, err := s.Users.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		users[userID] = user
	}
	return users, nil
}
