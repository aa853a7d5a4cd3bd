package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fablesound/fable-server/internal/http/response"
)

// Handlers for the per-user stores. All of these act on the active session
// identity; mutations return immediately after the local apply, remote
// persistence is best effort in the background.

// === Bookmarks ===

// AddBookmarkRequest creates a bookmark at a playback position.
type AddBookmarkRequest struct {
	BookID     string `json:"bookId"`
	PositionMs int64  `json:"positionMs"`
	Label      string `json:"label,omitempty"`
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	if bookID := r.URL.Query().Get("bookId"); bookID != "" {
		response.Success(w, s.bookmarkService.ForBook(bookID), s.logger)
		return
	}
	response.Success(w, s.bookmarkService.All(), s.logger)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req AddBookmarkRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	bookmark := s.bookmarkService.Add(req.BookID, req.PositionMs, req.Label)
	if bookmark == nil {
		response.BadRequest(w, "bookId is required and positionMs must not be negative", s.logger)
		return
	}
	response.Created(w, bookmark, s.logger)
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	s.bookmarkService.Delete(chi.URLParam(r, "id"))
	response.NoContent(w)
}

// === Playback positions ===

// SavePositionRequest records the playhead for a book.
type SavePositionRequest struct {
	PositionMs int64 `json:"positionMs"`
	DurationMs int64 `json:"durationMs"`
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	position, ok := s.positionService.Get(chi.URLParam(r, "bookId"))
	if !ok {
		// No saved position is an empty success, same as catalog lookups.
		response.Success(w, nil, s.logger)
		return
	}
	response.Success(w, position, s.logger)
}

func (s *Server) handleSavePosition(w http.ResponseWriter, r *http.Request) {
	var req SavePositionRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	// Invalid samples are dropped by the store, not reported; the saved
	// position must never regress to a bad sample.
	s.positionService.Save(chi.URLParam(r, "bookId"), req.PositionMs, req.DurationMs)
	response.NoContent(w)
}

// === Playlists ===

// CreatePlaylistRequest creates a named playlist, optionally with a first
// member.
type CreatePlaylistRequest struct {
	Name          string `json:"name"`
	InitialBookID string `json:"initialBookId,omitempty"`
}

// RenamePlaylistRequest renames a playlist.
type RenamePlaylistRequest struct {
	Name string `json:"name"`
}

// PlaylistBookRequest adds a book to a playlist.
type PlaylistBookRequest struct {
	BookID string `json:"bookId"`
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	response.Success(w, s.playlistService.All(), s.logger)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.playlistService.Get(chi.URLParam(r, "id"))
	if !ok {
		response.NotFound(w, "Playlist not found", s.logger)
		return
	}
	response.Success(w, playlist, s.logger)
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	playlist, err := s.playlistService.Create(req.Name, req.InitialBookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, playlist, s.logger)
}

func (s *Server) handleRenamePlaylist(w http.ResponseWriter, r *http.Request) {
	var req RenamePlaylistRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.playlistService.Rename(chi.URLParam(r, "id"), req.Name); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.playlistService.Delete(chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleAddPlaylistBook(w http.ResponseWriter, r *http.Request) {
	var req PlaylistBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.BookID == "" {
		response.BadRequest(w, "bookId is required", s.logger)
		return
	}

	if err := s.playlistService.AddBook(chi.URLParam(r, "id"), req.BookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleRemovePlaylistBook(w http.ResponseWriter, r *http.Request) {
	if err := s.playlistService.RemoveBook(chi.URLParam(r, "id"), chi.URLParam(r, "bookId")); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

// === Recently played ===

func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	response.Success(w, s.recentService.List(), s.logger)
}
