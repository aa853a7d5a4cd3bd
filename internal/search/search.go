// Package search provides full-text catalog search using Bleve.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/fablesound/fable-server/internal/domain"
)

// BookDocument is the indexed representation of a catalog entry.
type BookDocument struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Categories []string `json:"categories,omitempty"`
}

// Index wraps a Bleve index with catalog-specific operations.
// All public methods are safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// Open creates or opens the catalog search index under dataPath.
// A corrupted index is removed and recreated; search degrades to a cold
// index rather than failing startup.
func Open(dataPath string, logger *slog.Logger) (*Index, error) {
	indexPath := filepath.Join(dataPath, "catalog.bleve")

	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
		if logger != nil {
			logger.Info("search index created", "path", indexPath)
		}
	}

	return &Index{index: index, logger: logger}, nil
}

// OpenInMemory creates an ephemeral index. Used in tests and when no data
// path is configured.
func OpenInMemory(logger *slog.Logger) (*Index, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory search index: %w", err)
	}
	return &Index{index: index, logger: logger}, nil
}

// Close releases the underlying index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

// IndexBook adds or replaces a catalog entry in the index.
func (i *Index) IndexBook(_ context.Context, book domain.Book) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	doc := BookDocument{
		ID:         book.ID,
		Title:      book.Title,
		Author:     book.Author,
		Categories: book.Categories,
	}
	if err := i.index.Index(book.ID, doc); err != nil {
		return fmt.Errorf("index book %s: %w", book.ID, err)
	}
	return nil
}

// DeleteBook removes a catalog entry from the index.
func (i *Index) DeleteBook(_ context.Context, bookID string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := i.index.Delete(bookID); err != nil {
		return fmt.Errorf("delete book %s from index: %w", bookID, err)
	}
	return nil
}

// Search returns the IDs of catalog entries matching query, best first.
func (i *Index) Search(_ context.Context, query string, limit int) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = 25
	}

	title := bleve.NewMatchQuery(query)
	title.SetField("title")
	title.SetBoost(2.0)

	author := bleve.NewMatchQuery(query)
	author.SetField("author")
	author.SetBoost(1.5)

	categories := bleve.NewMatchQuery(query)
	categories.SetField("categories")

	prefix := bleve.NewPrefixQuery(query)
	prefix.SetField("title")

	combined := bleve.NewDisjunctionQuery(title, author, categories, prefix)

	req := bleve.NewSearchRequestOptions(combined, limit, 0, false)
	result, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// buildMapping creates the Bleve index mapping for catalog documents.
func buildMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	docMapping.AddFieldMappingsAt("author", authorField)

	categoriesField := bleve.NewTextFieldMapping()
	categoriesField.Analyzer = en.AnalyzerName
	docMapping.AddFieldMappingsAt("categories", categoriesField)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
