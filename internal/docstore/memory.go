package docstore

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Client for tests and guest-only deployments.
// The optional failure toggle simulates a flaky remote.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
	err  error
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// FailWith makes every subsequent operation return err. Pass nil to heal.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get implements Client.
func (s *MemoryStore) Get(ctx context.Context, path string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return s.err
	}
	data, ok := s.docs[path]
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode document %s: %w", path, err)
	}
	return nil
}

// Set implements Client.
func (s *MemoryStore) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.docs[path] = data
	return nil
}

// Delete implements Client.
func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.docs, path)
	return nil
}

// List implements Client. Documents are returned in path order for
// deterministic tests.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}

	var docs []Document
	for path, data := range s.docs {
		if strings.HasPrefix(path, prefix+"/") {
			docs = append(docs, Document{Path: path, Data: append([]byte(nil), data...)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}
