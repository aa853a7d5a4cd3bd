package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/service"
)

func TestRegisterEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	body := `{"display_name":"Test User","email":"user@example.com","password":"correct-horse"}`
	w := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp service.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.User.PasswordHash)

	// Registration makes the account the active identity.
	assert.Equal(t, resp.User.ID, ts.session.Current())
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "user@example.com")

	body := `{"display_name":"Other","email":"user@example.com","password":"correct-horse"}`
	w := ts.request(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "user@example.com")
	ts.session.Clear()

	body := `{"email":"user@example.com","password":"correct-horse"}`
	w := ts.request(t, http.MethodPost, "/api/v1/auth/login", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp service.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "user@example.com")

	body := `{"email":"user@example.com","password":"wrong-password"}`
	w := ts.request(t, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "user@example.com")

	w := ts.request(t, http.MethodPost, "/api/v1/auth/logout", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, identity.Anonymous, ts.session.Current())
}

func TestUpdateProfileEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.registerUser(t, "user@example.com")

	body := `{"display_name":"Renamed"}`
	w := ts.request(t, http.MethodPatch, "/api/v1/auth/profile", user.AccessToken, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Without a token the update is refused.
	w = ts.request(t, http.MethodPatch, "/api/v1/auth/profile", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestPasswordResetEndpoint_UnknownEmail(t *testing.T) {
	ts := setupTestServer(t)

	// Unknown accounts are indistinguishable from known ones.
	w := ts.request(t, http.MethodPost, "/api/v1/auth/reset", "", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}
