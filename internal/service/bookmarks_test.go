package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
)

func setupTestBookmarks(t *testing.T) (*BookmarkService, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	svc := NewBookmarkService(store, slog.New(slog.DiscardHandler))
	return svc, store
}

func TestBookmarkAdd_SortedAscendingByPosition(t *testing.T) {
	svc, _ := setupTestBookmarks(t)

	for _, pos := range []int64{5000, 1000, 3000} {
		require.NotNil(t, svc.Add("book1", pos, ""))
	}

	all := svc.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(1000), all[0].PositionMs)
	assert.Equal(t, int64(3000), all[1].PositionMs)
	assert.Equal(t, int64(5000), all[2].PositionMs)
}

func TestBookmarkAdd_RejectsInvalidInput(t *testing.T) {
	svc, _ := setupTestBookmarks(t)

	assert.Nil(t, svc.Add("", 1000, ""))
	assert.Nil(t, svc.Add("book1", -1, ""))
	assert.Empty(t, svc.All())
}

func TestBookmarkAdd_DefaultLabel(t *testing.T) {
	svc, _ := setupTestBookmarks(t)

	b := svc.Add("book1", 5_025_000, "")
	require.NotNil(t, b)
	assert.Equal(t, "Bookmark at 1:23:45", b.Label)

	b = svc.Add("book1", 1000, "My note")
	require.NotNil(t, b)
	assert.Equal(t, "My note", b.Label)
}

func TestBookmarkDelete(t *testing.T) {
	svc, _ := setupTestBookmarks(t)

	b := svc.Add("book1", 1000, "")
	require.NotNil(t, b)

	svc.Delete(b.ID)
	assert.Empty(t, svc.All())

	// Unknown IDs are a no-op.
	svc.Delete("nope")
	assert.Empty(t, svc.All())
}

func TestBookmarkForBook(t *testing.T) {
	svc, _ := setupTestBookmarks(t)

	svc.Add("book1", 1000, "")
	svc.Add("book2", 2000, "")
	svc.Add("book1", 3000, "")

	forBook := svc.ForBook("book1")
	require.Len(t, forBook, 2)
	assert.Equal(t, int64(1000), forBook[0].PositionMs)
	assert.Equal(t, int64(3000), forBook[1].PositionMs)
}

func TestBookmarks_AnonymousNeverPersists(t *testing.T) {
	svc, store := setupTestBookmarks(t)

	svc.Add("book1", 1000, "")
	svc.Add("book1", 2000, "")
	assert.Zero(t, store.Len())
}

func TestBookmarks_AuthenticatedPersists(t *testing.T) {
	svc, store := setupTestBookmarks(t)

	svc.OnIdentityChange("usr-a")
	svc.Add("book1", 1000, "")

	assert.Eventually(t, func() bool {
		return store.Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBookmarks_IdentitySwitchRestoresCachedSlice(t *testing.T) {
	svc, store := setupTestBookmarks(t)
	// A failing remote keeps every slice purely in memory, so switches are
	// deterministic.
	store.FailWith(errors.New("offline"))

	svc.OnIdentityChange("usr-a")
	svc.Add("book1", 1000, "")
	svc.Add("book1", 2000, "")
	require.Len(t, svc.All(), 2)

	svc.OnIdentityChange("usr-b")
	assert.Empty(t, svc.All())
	svc.Add("book2", 500, "")
	require.Len(t, svc.All(), 1)

	svc.OnIdentityChange("usr-a")
	all := svc.All()
	require.Len(t, all, 2)
	assert.Equal(t, "book1", all[0].BookID)
}

func TestBookmarks_ReloadFromRemote(t *testing.T) {
	svc, store := setupTestBookmarks(t)
	ctx := context.Background()

	stored := []domain.Bookmark{
		{ID: "bmk-2", BookID: "book1", PositionMs: 5000},
		{ID: "bmk-1", BookID: "book1", PositionMs: 1000},
	}
	for _, b := range stored {
		require.NoError(t, store.Set(ctx, docstore.BookmarkPath("usr-a", b.ID), b))
	}

	svc.OnIdentityChange("usr-a")

	require.Eventually(t, func() bool {
		return len(svc.All()) == 2
	}, time.Second, 10*time.Millisecond)

	all := svc.All()
	assert.Equal(t, int64(1000), all[0].PositionMs)
	assert.Equal(t, int64(5000), all[1].PositionMs)
}

func TestBookmarks_RedundantIdentityChangeAbsorbed(t *testing.T) {
	svc, store := setupTestBookmarks(t)
	store.FailWith(errors.New("offline"))

	var publishes int
	svc.Observe().Subscribe(func([]domain.Bookmark) { publishes++ })

	svc.OnIdentityChange("usr-a")
	svc.OnIdentityChange("usr-a")
	svc.OnIdentityChange("usr-a")

	assert.Equal(t, 1, publishes)
}
