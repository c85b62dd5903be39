package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// Session Operations

// CreateSession creates a new login session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	return s.Sessions.Create(ctx, session.ID, session)
}

// GetSessionByTokenHash resolves a session from the hash of its cookie token.
func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	session, err := s.Sessions.GetByIndex(ctx, indexSessionToken, tokenHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("session not found")
		}
		return nil, err
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound.WithMessage("session not found")
		}
		return nil, err
	}
	return session, nil
}

// UpdateSession persists session metadata changes (last-seen bumps).
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	session.Touch()
	return s.Sessions.Update(ctx, session.ID, session)
}

// DeleteSession removes a session. Idempotent.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// DeleteSessionsForUser revokes every session belonging to the user.
// Used after password changes.
func (s *Store) DeleteSessionsForUser(ctx context.Context, userID string) error {
	sessions, err := s.Sessions.ListByIndex(ctx, indexSessionUser, userID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if err := s.Sessions.Delete(ctx, session.ID); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExpiredSessions deletes sessions whose expiry is before now.
// Returns the number of sessions removed. Run periodically by the cleanup
// job.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	var expired []string
	for session, err := range s.Sessions.List(ctx) {
		if err != nil {
			return 0, err
		}
		if session.ExpiresAt.Before(now) {
			expired = append(expired, session.ID)
		}
	}

	for _, sessionID := range expired {
		if err := s.Sessions.Delete(ctx, sessionID); err != nil {
			return 0, err
		}
	}

	if len(expired) > 0 && s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "purged expired sessions",
			slog.Int("count", len(expired)),
		)
	}
	return len(expired), nil
}
