package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/domain"
)

func TestListBooks_Public(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "bk-1", "Treasure Island")

	w := ts.request(t, http.MethodGet, "/api/v1/books", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	require.True(t, env.Success)

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	var books []domain.Book
	require.NoError(t, json.Unmarshal(data, &books))
	require.Len(t, books, 1)
	assert.Equal(t, "https://media.test/covers/bk-1.jpg", books[0].CoverImageURL)
}

func TestGetBook_AbsentReturnsNullData(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.request(t, http.MethodGet, "/api/v1/books/missing", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)
}

func TestUpsertBook_RequiresAuth(t *testing.T) {
	ts := setupTestServer(t)

	body := `{"id":"bk-1","title":"New","author":"A"}`
	w := ts.request(t, http.MethodPost, "/api/v1/admin/books", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpsertBook_WithToken(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.registerUser(t, "admin@example.com")

	body := `{"id":"bk-1","title":"New Book","author":"Author"}`
	w := ts.request(t, http.MethodPost, "/api/v1/admin/books", user.AccessToken, body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/books/bk-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.NotNil(t, env.Data)
}

func TestUpsertBook_ValidationError(t *testing.T) {
	ts := setupTestServer(t)
	user := ts.registerUser(t, "admin@example.com")

	w := ts.request(t, http.MethodPost, "/api/v1/admin/books", user.AccessToken, `{"id":"bk-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteBook_WithToken(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "bk-1", "Doomed")
	user := ts.registerUser(t, "admin@example.com")

	w := ts.request(t, http.MethodDelete, "/api/v1/admin/books/bk-1", user.AccessToken, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.request(t, http.MethodGet, "/api/v1/books/bk-1", "", "")
	env := decodeEnvelope(t, w)
	assert.Nil(t, env.Data)
}

func TestSearchBooks_NoIndex(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedBook(t, "bk-1", "Treasure Island")

	// Without a search index the endpoint degrades to an empty result.
	w := ts.request(t, http.MethodGet, "/api/v1/books/search?q=treasure", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
}
