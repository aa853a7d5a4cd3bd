package api

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/http/response"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/playback"
	"github.com/fablesound/fable-server/internal/service"
	"github.com/fablesound/fable-server/internal/sse"
)

type testServer struct {
	server  *Server
	session *identity.Session
	auth    *service.AuthService
	catalog *service.CatalogService
}

// setupTestServer wires a server over an in-memory store with a null
// transport and no search index.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := docstore.NewMemoryStore()
	session := identity.NewSession()

	tokenService, err := auth.NewTokenService(bytes.Repeat([]byte{0x42}, 32), 15*time.Minute)
	require.NoError(t, err)

	authService := service.NewAuthService(store, tokenService, session, logger)
	catalogService := service.NewCatalogService(store, nil, "media.test", "legacy.test", logger)
	bookmarkService := service.NewBookmarkService(store, logger)
	positionService := service.NewPositionService(store, logger)
	playlistService := service.NewPlaylistService(store, logger)
	recentService := service.NewRecentService(store, logger)

	session.Subscribe(bookmarkService.OnIdentityChange)
	session.Subscribe(positionService.OnIdentityChange)
	session.Subscribe(playlistService.OnIdentityChange)
	session.Subscribe(recentService.OnIdentityChange)

	coordinator := playback.NewCoordinator(
		playback.NewNullTransport(), catalogService, positionService, recentService, nil, logger)
	t.Cleanup(func() { coordinator.Close() })

	manager := sse.NewManager(logger)
	streamCtx, cancelStream := context.WithCancel(context.Background())
	go manager.Start(streamCtx)
	t.Cleanup(cancelStream)
	streamHandler := sse.NewHandler(manager, logger)

	server := NewServer(
		authService, catalogService, bookmarkService, positionService,
		playlistService, recentService, coordinator, session, streamHandler, logger)

	return &testServer{
		server:  server,
		session: session,
		auth:    authService,
		catalog: catalogService,
	}
}

func (ts *testServer) request(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.ServeHTTP(w, req)
	return w
}

func (ts *testServer) registerUser(t *testing.T, email string) *service.AuthResponse {
	t.Helper()
	resp, err := ts.auth.Register(context.Background(), service.RegisterRequest{
		DisplayName: "Test User",
		Email:       email,
		Password:    "correct-horse",
	})
	require.NoError(t, err)
	return resp
}

func (ts *testServer) seedBook(t *testing.T, id, title string) {
	t.Helper()
	_, err := ts.catalog.UpsertBook(context.Background(), service.UpsertBookRequest{
		ID:     id,
		Title:  title,
		Author: "Author",
	})
	require.NoError(t, err)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)
}
