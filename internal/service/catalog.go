package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/search"
)

// CatalogService manages the public book catalog.
//
// Reads always re-fetch from the document store; there is no local catalog
// cache. Cover URLs pointing at the legacy media host are rewritten to the
// current host on every read path.
type CatalogService struct {
	store       docstore.Client
	index       *search.Index
	currentHost string
	legacyHost  string
	logger      *slog.Logger
}

// NewCatalogService creates a catalog service. index may be nil when search
// is disabled.
func NewCatalogService(store docstore.Client, index *search.Index, currentHost, legacyHost string, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:       store,
		index:       index,
		currentHost: currentHost,
		legacyHost:  legacyHost,
		logger:      logger,
	}
}

// UpsertBookRequest contains the administrative fields of a catalog write.
// Cover and audio URLs are never accepted from callers; they are derived
// from the book ID.
type UpsertBookRequest struct {
	ID         string   `json:"id" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Author     string   `json:"author" validate:"required"`
	Categories []string `json:"categories,omitempty"`
}

// ListBooks fetches the full catalog, normalized. Every call re-fetches from
// the store so the listing order is always the store's current order.
func (s *CatalogService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	docs, err := s.store.List(ctx, docstore.CatalogPrefix)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	books, err := docstore.DecodeAll[domain.Book](docs)
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range books {
		books[i].CoverImageURL = s.NormalizeCoverURL(books[i].CoverImageURL)
	}
	return books, nil
}

// GetBook fetches a single catalog entry, normalized. An absent book is not
// an error; it returns (nil, nil).
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	var book domain.Book
	err := s.store.Get(ctx, docstore.CatalogPath(bookID), &book)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book %s: %w", bookID, err)
	}
	book.CoverImageURL = s.NormalizeCoverURL(book.CoverImageURL)
	return &book, nil
}

// UpsertBook writes one catalog entry, deriving its cover and audio URLs from
// the book ID against the current media host.
func (s *CatalogService) UpsertBook(ctx context.Context, req UpsertBookRequest) (*domain.Book, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	book := domain.Book{
		ID:            req.ID,
		Title:         req.Title,
		Author:        req.Author,
		CoverImageURL: fmt.Sprintf("https://%s/covers/%s.jpg", s.currentHost, req.ID),
		AudioURL:      fmt.Sprintf("storage://%s/audios/%s.mp3", s.currentHost, req.ID),
		Categories:    req.Categories,
	}

	if err := s.store.Set(ctx, docstore.CatalogPath(book.ID), book); err != nil {
		return nil, fmt.Errorf("upsert book %s: %w", book.ID, err)
	}
	if s.index != nil {
		if err := s.index.IndexBook(ctx, book); err != nil {
			s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
		}
	}
	return &book, nil
}

// UpsertBooks writes a batch of catalog entries. The first failing write
// aborts the batch; earlier writes stand (each is an independent upsert).
func (s *CatalogService) UpsertBooks(ctx context.Context, reqs []UpsertBookRequest) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(reqs))
	for _, req := range reqs {
		book, err := s.UpsertBook(ctx, req)
		if err != nil {
			return books, err
		}
		books = append(books, *book)
	}
	return books, nil
}

// DeleteBook removes a catalog entry and its search document.
func (s *CatalogService) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.Delete(ctx, docstore.CatalogPath(bookID)); err != nil {
		return fmt.Errorf("delete book %s: %w", bookID, err)
	}
	if s.index != nil {
		if err := s.index.DeleteBook(ctx, bookID); err != nil {
			s.logger.Warn("failed to deindex book", "book_id", bookID, "error", err)
		}
	}
	return nil
}

// SearchBooks returns catalog entries matching query, best match first.
func (s *CatalogService) SearchBooks(ctx context.Context, query string, limit int) ([]domain.Book, error) {
	if s.index == nil {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	ids, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	books := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		book, err := s.GetBook(ctx, id)
		if err != nil {
			return nil, err
		}
		if book == nil {
			// Index lagging behind a delete. Skip the ghost.
			continue
		}
		books = append(books, *book)
	}
	return books, nil
}

// SeedIfEmpty loads the built-in catalog when the catalog holds no entries.
// Safe to call repeatedly since seed writes are upserts keyed by fixed IDs.
func (s *CatalogService) SeedIfEmpty(ctx context.Context) (int, error) {
	docs, err := s.store.List(ctx, docstore.CatalogPrefix)
	if err != nil {
		return 0, fmt.Errorf("check catalog: %w", err)
	}
	if len(docs) > 0 {
		return 0, nil
	}

	start := time.Now()
	books, err := s.UpsertBooks(ctx, seedCatalog())
	if err != nil {
		return len(books), fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.Info("seeded built-in catalog", "books", len(books), "duration", time.Since(start))
	return len(books), nil
}

// NormalizeCoverURL rewrites the legacy media host to the current one. URLs
// already on the current host, or on an unrelated host, pass through
// unchanged, so the rewrite is idempotent.
func (s *CatalogService) NormalizeCoverURL(url string) string {
	if s.legacyHost == "" || !strings.Contains(url, s.legacyHost) {
		return url
	}
	return strings.ReplaceAll(url, s.legacyHost, s.currentHost)
}
