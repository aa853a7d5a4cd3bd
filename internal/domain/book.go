// Package domain contains the core business entities and domain logic for the Fable audiobook service.
package domain

// Book represents a catalog entry.
//
// Books are immutable values once loaded; they change only by re-fetching the
// catalog. AudioURL may be a storage reference (storage://bucket/path) that
// needs resolution before playback, and CoverImageURL may still point at the
// legacy media host until normalized on the read path.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	CoverImageURL string   `json:"coverImageUrl"`
	AudioURL      string   `json:"audioUrl"`
	Categories    []string `json:"categories,omitempty"`
}
