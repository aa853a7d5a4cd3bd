package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fablesound/fable-server/internal/http/response"
	"github.com/fablesound/fable-server/internal/service"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalogService.ListBooks(r.Context())
	if err != nil {
		s.logger.Error("Failed to list books", "error", err)
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

// handleGetBook returns the book, or a successful null payload when the ID
// is unknown. Absence is not an error on single-entity catalog lookups.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	book, err := s.catalogService.GetBook(r.Context(), bookID)
	if err != nil {
		s.logger.Error("Failed to get book", "error", err, "book_id", bookID)
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, book, s.logger)
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	books, err := s.catalogService.SearchBooks(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", query)
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, books, s.logger)
}

func (s *Server) handleUpsertBook(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.catalogService.UpsertBook(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Created(w, book, s.logger)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if err := s.catalogService.DeleteBook(r.Context(), bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	seeded, err := s.catalogService.SeedIfEmpty(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]int{"seeded": seeded}, s.logger)
}
