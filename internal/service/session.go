package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// lastSeenResolution throttles LastSeenAt writes; a session row is only
// rewritten when its timestamp is at least this stale.
const lastSeenResolution = time.Minute

// SessionService manages server-side sessions backing the sid cookie, plus
// the PASETO access tokens handed out alongside them.
type SessionService struct {
	store           *store.Store
	tokenService    *auth.TokenService
	sessionDuration time.Duration
	logger          *slog.Logger
}

// NewSessionService creates a new session management service.
func NewSessionService(
	store *store.Store,
	tokenService *auth.TokenService,
	sessionDuration time.Duration,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		store:           store,
		tokenService:    tokenService,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

// SessionResponse contains session credentials and metadata.
//
// SessionToken is the opaque value set as the sid cookie; it is returned in
// the body too so non-browser clients can store it themselves. AccessToken is
// a PASETO alternative for Bearer auth.
type SessionResponse struct {
	SessionToken string    `json:"session_token"`
	SessionID    string    `json:"session_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"` // Seconds until access token expires
}

// CreateSession mints a session for an authenticated user.
// Only the SHA-256 of the session token is stored.
func (s *SessionService) CreateSession(
	ctx context.Context,
	user *domain.User,
	ipAddress, userAgent string,
) (*SessionResponse, error) {
	sessionToken, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	accessToken, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now()
	session := &domain.Session{
		UserID:     user.ID,
		TokenHash:  auth.HashSessionToken(sessionToken),
		ExpiresAt:  now.Add(s.sessionDuration),
		LastSeenAt: now,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	session.ID = sessionID
	session.InitTimestamps()

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &SessionResponse{
		SessionToken: sessionToken,
		SessionID:    sessionID,
		ExpiresAt:    session.ExpiresAt,
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
	}, nil
}

// ValidateSession resolves a session token to its user. Expired sessions are
// deleted on sight and reported as expired; sessions whose user was deleted
// are cleaned up the same way.
func (s *SessionService) ValidateSession(ctx context.Context, sessionToken string) (*domain.User, *domain.Session, error) {
	tokenHash := auth.HashSessionToken(sessionToken)
	session, err := s.store.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}

	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.ErrSessionExpired
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}

	s.touchSession(ctx, session)

	return user, session, nil
}

// touchSession bumps LastSeenAt, at most once per lastSeenResolution.
// Failures are logged and swallowed; an unbumped timestamp never blocks a
// request.
func (s *SessionService) touchSession(ctx context.Context, session *domain.Session) {
	now := time.Now()
	if now.Sub(session.LastSeenAt) < lastSeenResolution {
		return
	}

	session.LastSeenAt = now
	session.Touch()
	if err := s.store.UpdateSession(ctx, session); err != nil && s.logger != nil {
		s.logger.Warn("Failed to update session last seen", "session_id", session.ID, "error", err)
	}
}

// RevokeSession ends a single session (logout).
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Session revoked", "session_id", sessionID)
	}
	return nil
}

// RevokeSessionByToken ends the session identified by its opaque cookie
// token. Missing sessions are not an error; logout is idempotent.
func (s *SessionService) RevokeSessionByToken(ctx context.Context, sessionToken string) error {
	tokenHash := auth.HashSessionToken(sessionToken)
	session, err := s.store.GetSessionByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup session: %w", err)
	}
	return s.RevokeSession(ctx, session.ID)
}

// RevokeUserSessions ends every session for a user. Used after password
// changes so stolen cookies stop working.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	if err := s.store.DeleteSessionsForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("All sessions revoked", "user_id", userID)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.PurgeExpiredSessions(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}

	if s.logger != nil && count > 0 {
		s.logger.Info("Deleted expired sessions", "count", count)
	}
	return count, nil
}
