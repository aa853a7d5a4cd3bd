// Package docstore provides document-tree CRUD over slash-separated paths,
// the durable backing for the catalog and all per-user state.
//
// Layout mirrors the sync tree:
//
//	catalog/{bookId}
//	users/{userId}/bookmarks/{id}
//	users/{userId}/playbackPositions/{bookId}
//	users/{userId}/playlists/{id}
//	users/{userId}/userData/recentlyPlayed
//
// The store is treated as eventually consistent and best effort by its
// callers: in-memory state is authoritative once loaded, and writes are
// fire-and-forget.
package docstore

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document does not exist at the given path.
var ErrNotFound = errors.New("document not found")

// Document is a raw document returned from List.
type Document struct {
	Path string
	Data []byte
}

// Decode unmarshals the document body into dest.
func (d Document) Decode(dest any) error {
	if err := json.Unmarshal(d.Data, dest); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Path, err)
	}
	return nil
}

// Client is the document store interface consumed by every service.
type Client interface {
	// Get reads the document at path into dest. Returns ErrNotFound if absent.
	Get(ctx context.Context, path string, dest any) error
	// Set writes value at path, creating or replacing the document.
	Set(ctx context.Context, path string, value any) error
	// Delete removes the document at path. Deleting an absent path is not an error.
	Delete(ctx context.Context, path string) error
	// List returns all documents whose path starts with prefix + "/".
	List(ctx context.Context, prefix string) ([]Document, error)
}

// DecodeAll unmarshals every listed document into a slice of T.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
