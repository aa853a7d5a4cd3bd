package service

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/docstore"
)

func setupTestPlaylists(t *testing.T) (*PlaylistService, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	svc := NewPlaylistService(store, slog.New(slog.DiscardHandler))
	return svc, store
}

func TestPlaylistCreate_TrimsName(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("  My List  ", "book1")
	require.NoError(t, err)
	assert.Equal(t, "My List", p.Name)
	assert.Equal(t, []string{"book1"}, p.BookIDs)
}

func TestPlaylistCreate_RejectsBlankName(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	_, err := svc.Create("", "")
	assert.Error(t, err)

	_, err = svc.Create("   ", "")
	assert.Error(t, err)
	assert.Empty(t, svc.All())
}

func TestPlaylistCreate_WithoutInitialBook(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("Empty", "")
	require.NoError(t, err)
	assert.Empty(t, p.BookIDs)
}

func TestPlaylistAddBook_Idempotent(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("My List", "book1")
	require.NoError(t, err)

	require.NoError(t, svc.AddBook(p.ID, "book2"))
	require.NoError(t, svc.AddBook(p.ID, "book2"))

	got, ok := svc.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"book1", "book2"}, got.BookIDs)
}

func TestPlaylistRemoveBook(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("My List", "book1")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBook(p.ID, "book1"))
	require.NoError(t, svc.RemoveBook(p.ID, "book1"))

	got, ok := svc.Get(p.ID)
	require.True(t, ok)
	assert.Empty(t, got.BookIDs)
}

func TestPlaylistRename(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("Old Name", "")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(p.ID, "  New Name  "))
	got, ok := svc.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, "New Name", got.Name)

	assert.Error(t, svc.Rename(p.ID, "   "))
}

func TestPlaylistMutate_UnknownPlaylist(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	assert.Error(t, svc.AddBook("missing", "book1"))
	assert.Error(t, svc.Rename("missing", "Name"))
	assert.Error(t, svc.Delete("missing"))
}

func TestPlaylistDelete(t *testing.T) {
	svc, _ := setupTestPlaylists(t)

	p, err := svc.Create("Doomed", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(p.ID))
	_, ok := svc.Get(p.ID)
	assert.False(t, ok)
}

func TestPlaylists_AuthenticatedPersistsOnlyChangedPlaylist(t *testing.T) {
	svc, store := setupTestPlaylists(t)

	svc.OnIdentityChange("usr-a")

	p1, err := svc.Create("One", "")
	require.NoError(t, err)
	_, err = svc.Create("Two", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return store.Len() == 2
	}, time.Second, 10*time.Millisecond)

	// A no-op mutation does not rewrite anything.
	require.NoError(t, svc.RemoveBook(p1.ID, "absent"))
	assert.Equal(t, 2, store.Len())
}

func TestPlaylists_IdentitySwitchRestoresCache(t *testing.T) {
	svc, store := setupTestPlaylists(t)
	store.FailWith(errors.New("offline"))

	svc.OnIdentityChange("usr-a")
	_, err := svc.Create("Mine", "book1")
	require.NoError(t, err)

	svc.OnIdentityChange("usr-b")
	assert.Empty(t, svc.All())

	svc.OnIdentityChange("usr-a")
	all := svc.All()
	require.Len(t, all, 1)
	assert.Equal(t, "Mine", all[0].Name)
}
