package domain

// RecentLimit caps the recently played list.
const RecentLimit = 5

// RecentlyPlayed is the single per-user document storing the most recent book IDs.
type RecentlyPlayed struct {
	BookIDs   []string `json:"bookIds"`
	UpdatedAt int64    `json:"updatedAt"`
}

// PushRecent returns list with bookID moved or inserted at the front,
// deduplicated and truncated to RecentLimit. The input slice is not modified.
func PushRecent(list []string, bookID string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, bookID)
	for _, id := range list {
		if id != bookID {
			out = append(out, id)
		}
	}
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out
}
