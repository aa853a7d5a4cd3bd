package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name string `json:"name"`
}

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "catalog/bk-1", testDoc{Name: "one"}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "catalog/bk-1", &got))
	assert.Equal(t, "one", got.Name)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	var got testDoc
	err := store.Get(context.Background(), "catalog/missing", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "catalog/bk-1", testDoc{Name: "one"}))
	require.NoError(t, store.Delete(ctx, "catalog/bk-1"))

	var got testDoc
	assert.ErrorIs(t, store.Get(ctx, "catalog/bk-1", &got), ErrNotFound)

	// Deleting a missing document is not an error.
	assert.NoError(t, store.Delete(ctx, "catalog/bk-1"))
}

func TestMemoryStore_ListByPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "catalog/bk-b", testDoc{Name: "b"}))
	require.NoError(t, store.Set(ctx, "catalog/bk-a", testDoc{Name: "a"}))
	require.NoError(t, store.Set(ctx, "users/u1/profile", testDoc{Name: "p"}))

	docs, err := store.List(ctx, "catalog")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Path order, deterministic.
	assert.Equal(t, "catalog/bk-a", docs[0].Path)
	assert.Equal(t, "catalog/bk-b", docs[1].Path)

	decoded, err := DecodeAll[testDoc](docs)
	require.NoError(t, err)
	assert.Equal(t, "a", decoded[0].Name)
}

func TestMemoryStore_ListPrefixDoesNotMatchSiblings(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "users/u1/bookmarks/b1", testDoc{Name: "x"}))
	require.NoError(t, store.Set(ctx, "users/u10/bookmarks/b1", testDoc{Name: "y"}))

	docs, err := store.List(ctx, "users/u1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "users/u1/bookmarks/b1", docs[0].Path)
}

func TestMemoryStore_FailWith(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("offline")

	store.FailWith(boom)
	assert.ErrorIs(t, store.Set(ctx, "catalog/bk-1", testDoc{}), boom)
	_, err := store.List(ctx, "catalog")
	assert.ErrorIs(t, err, boom)

	store.FailWith(nil)
	assert.NoError(t, store.Set(ctx, "catalog/bk-1", testDoc{}))
}
