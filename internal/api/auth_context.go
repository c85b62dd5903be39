package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/service"
)

// sessionCookieName is the cookie carrying the opaque session token.
const sessionCookieName = "sid"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	sessionIDKey ctxKey = "sessionID"
)

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// GetSessionID returns the current session ID from context, or empty when
// the request authenticated with a bearer token instead of a cookie.
func GetSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}

func setUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func setSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// authMiddleware resolves the caller from the sid cookie or a Bearer token
// and stores the user ID in context. An absent or invalid credential is not
// rejected here; handlers use GetUserID to enforce authentication.
func authMiddleware(auth *service.AuthService, sessions *service.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				user, session, err := sessions.ValidateSession(r.Context(), cookie.Value)
				if err == nil {
					ctx := setUserID(r.Context(), user.ID)
					ctx = setSessionID(ctx, session.ID)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				user, _, err := auth.VerifyAccessToken(r.Context(), authHeader[7:])
				if err == nil {
					next.ServeHTTP(w, r.WithContext(setUserID(r.Context(), user.ID)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
