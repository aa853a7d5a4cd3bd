package service

import (
	"encoding/json/v2"
	"fmt"
	"os"
)

// seedCatalog returns the built-in starter catalog. IDs are fixed so repeated
// seeding upserts the same documents instead of duplicating them.
func seedCatalog() []UpsertBookRequest {
	return []UpsertBookRequest{
		{ID: "bk-treasure-island", Title: "Treasure Island", Author: "Robert Louis Stevenson", Categories: []string{"Adventure", "Classics"}},
		{ID: "bk-dracula", Title: "Dracula", Author: "Bram Stoker", Categories: []string{"Horror", "Classics"}},
		{ID: "bk-pride-and-prejudice", Title: "Pride and Prejudice", Author: "Jane Austen", Categories: []string{"Romance", "Classics"}},
		{ID: "bk-moby-dick", Title: "Moby-Dick", Author: "Herman Melville", Categories: []string{"Adventure", "Classics"}},
		{ID: "bk-sherlock-holmes", Title: "The Adventures of Sherlock Holmes", Author: "Arthur Conan Doyle", Categories: []string{"Mystery", "Classics"}},
		{ID: "bk-time-machine", Title: "The Time Machine", Author: "H. G. Wells", Categories: []string{"Science Fiction", "Classics"}},
		{ID: "bk-jane-eyre", Title: "Jane Eyre", Author: "Charlotte Brontë", Categories: []string{"Romance", "Classics"}},
		{ID: "bk-call-of-the-wild", Title: "The Call of the Wild", Author: "Jack London", Categories: []string{"Adventure"}},
		{ID: "bk-frankenstein", Title: "Frankenstein", Author: "Mary Shelley", Categories: []string{"Horror", "Science Fiction"}},
		{ID: "bk-art-of-war", Title: "The Art of War", Author: "Sun Tzu", Categories: []string{"Philosophy", "Nonfiction"}},
	}
}

// LoadSeedFile reads catalog entries from a JSON file. The file holds an
// array of objects with id, title, author, and optional categories.
func LoadSeedFile(path string) ([]UpsertBookRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var reqs []UpsertBookRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return reqs, nil
}
