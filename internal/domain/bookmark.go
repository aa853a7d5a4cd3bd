package domain

import (
	"fmt"
	"slices"
)

// Bookmark marks a position within a book, created by user action during playback.
type Bookmark struct {
	ID         string `json:"id"`
	BookID     string `json:"bookId"`
	PositionMs int64  `json:"positionMs"`
	Label      string `json:"label"`
	CreatedAt  int64  `json:"createdAt"`
}

// InsertBookmark inserts b into list keeping it sorted ascending by position.
func InsertBookmark(list []Bookmark, b Bookmark) []Bookmark {
	idx, _ := slices.BinarySearchFunc(list, b, func(a, t Bookmark) int {
		switch {
		case a.PositionMs < t.PositionMs:
			return -1
		case a.PositionMs > t.PositionMs:
			return 1
		default:
			return 0
		}
	})
	return slices.Insert(list, idx, b)
}

// FormatPosition renders a millisecond offset as h:mm:ss, or m:ss under an hour.
// Used for default bookmark labels.
func FormatPosition(positionMs int64) string {
	totalSeconds := positionMs / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
