package domain

// PlaybackPosition is the last saved playhead for one (user, book) pair.
// Saves replace the previous entry wholesale; entries are never merged.
type PlaybackPosition struct {
	BookID     string `json:"bookId"`
	PositionMs int64  `json:"positionMs"`
	DurationMs int64  `json:"durationMs"`
	UpdatedAt  int64  `json:"updatedAt"`
}

// Resumable reports whether the position is worth persisting or seeking to.
// A zero or unknown duration must never overwrite a good saved one.
func (p PlaybackPosition) Resumable() bool {
	return p.PositionMs > 0 && p.DurationMs > 0
}
