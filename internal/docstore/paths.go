package docstore

// Path builders for the document tree. Keeping these in one place guards the
// layout against drift between readers and writers.

// CatalogPrefix is the collection holding the public book catalog.
const CatalogPrefix = "catalog"

// CatalogPath returns the document path for one catalog entry.
func CatalogPath(bookID string) string {
	return CatalogPrefix + "/" + bookID
}

// UserProfilePath returns the document path for an account record.
func UserProfilePath(userID string) string {
	return "users/" + userID + "/profile"
}

// EmailIndexPath maps a login email to its user ID.
func EmailIndexPath(email string) string {
	return "index/usersByEmail/" + email
}

// BookmarksPrefix returns the collection of one user's bookmarks.
func BookmarksPrefix(userID string) string {
	return "users/" + userID + "/bookmarks"
}

// BookmarkPath returns the document path for one bookmark.
func BookmarkPath(userID, bookmarkID string) string {
	return BookmarksPrefix(userID) + "/" + bookmarkID
}

// PositionsPrefix returns the collection of one user's playback positions.
func PositionsPrefix(userID string) string {
	return "users/" + userID + "/playbackPositions"
}

// PositionPath returns the document path for one book's saved position.
func PositionPath(userID, bookID string) string {
	return PositionsPrefix(userID) + "/" + bookID
}

// PlaylistsPrefix returns the collection of one user's playlists.
func PlaylistsPrefix(userID string) string {
	return "users/" + userID + "/playlists"
}

// PlaylistPath returns the document path for one playlist.
func PlaylistPath(userID, playlistID string) string {
	return PlaylistsPrefix(userID) + "/" + playlistID
}

// PasswordResetPath maps a reset token to its pending reset record.
func PasswordResetPath(token string) string {
	return "index/passwordResets/" + token
}

// RecentlyPlayedPath returns the single document holding a user's recently
// played list.
func RecentlyPlayedPath(userID string) string {
	return "users/" + userID + "/userData/recentlyPlayed"
}
