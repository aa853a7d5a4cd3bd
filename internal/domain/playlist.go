package domain

import "slices"

// Playlist is a named, ordered set of book IDs.
//
// Membership is set-like: adding an ID that is already present and removing an
// ID that is absent are both no-ops. Insertion order is preserved.
type Playlist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	BookIDs []string `json:"bookIds"`
}

// Clone returns a copy whose BookIDs slice does not alias the original.
func (p *Playlist) Clone() *Playlist {
	out := *p
	out.BookIDs = slices.Clone(p.BookIDs)
	return &out
}

// AddBook appends bookID if not already present. Returns true if the playlist changed.
func (p *Playlist) AddBook(bookID string) bool {
	if slices.Contains(p.BookIDs, bookID) {
		return false
	}
	p.BookIDs = append(p.BookIDs, bookID)
	return true
}

// RemoveBook removes bookID if present. Returns true if the playlist changed.
func (p *Playlist) RemoveBook(bookID string) bool {
	idx := slices.Index(p.BookIDs, bookID)
	if idx < 0 {
		return false
	}
	p.BookIDs = slices.Delete(p.BookIDs, idx, idx+1)
	return true
}
