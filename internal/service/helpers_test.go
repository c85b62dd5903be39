package service_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/auth"
	"github.com/shelfmarkapp/shelfmark-server/internal/dto"
	"github.com/shelfmarkapp/shelfmark-server/internal/service"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

// testEnv bundles the real collaborators services run against in tests:
// a temp-dir badger store and the shared validator and enricher.
type testEnv struct {
	store     *store.Store
	validator *validation.Validator
	enricher  *dto.Enricher
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	return &testEnv{
		store:     st,
		validator: validation.New(),
		enricher:  dto.NewEnricher(st),
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (e *testEnv) bookService(t *testing.T) *service.BookService {
	t.Helper()
	return service.NewBookService(e.store, e.enricher, e.validator, e.logger)
}

func (e *testEnv) commentService(t *testing.T) *service.CommentService {
	t.Helper()
	return service.NewCommentService(e.store, e.enricher, e.validator, e.logger)
}

func (e *testEnv) authServices(t *testing.T) (*service.AuthService, *service.SessionService) {
	t.Helper()

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute)
	require.NoError(t, err)

	sessions := service.NewSessionService(e.store, tokens, 720*time.Hour, e.logger)
	return service.NewAuthService(e.store, tokens, sessions, e.validator, e.logger), sessions
}
