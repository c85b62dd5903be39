package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

type testServer struct {
	*Server
	api humatest.TestAPI
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	validator := validation.New()
	enricher := dto.NewEnricher(st)

	sessions := service.NewSessionService(st, tokens, 720*time.Hour, logger)
	services := &Services{
		Auth:    service.NewAuthService(st, tokens, sessions, validator, logger),
		Session: sessions,
		Book:    service.NewBookService(st, enricher, validator, logger),
		Comment: service.NewCommentService(st, enricher, validator, logger),
	}

	s := NewServer(st, services, Options{
		Name:       "Shelfmark",
		CORSOrigin: "http://localhost:3000",
	}, logger)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api)}
}

// envelope mirrors the wire shape every endpoint responds with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
}

func decodeEnvelope(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	env := decodeEnvelope(t, body)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "data: %s", env.Data)
	return out
}

// register creates an account and returns its auth payload.
func (ts *testServer) register(t *testing.T, username, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, "register failed: %s", resp.Body.String())

	return decodeData[AuthResponse](t, resp.Body.Bytes())
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
}

func TestServer_UnknownRouteReturns404(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
