package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/fablesound/fable-server/internal/http/response"
)

// PlayRequest starts playback of a catalog book.
type PlayRequest struct {
	BookID string `json:"bookId"`
}

// SeekRequest moves the playhead to an absolute position.
type SeekRequest struct {
	PositionMs int64 `json:"positionMs"`
}

// SleepRequest starts the sleep timer.
type SleepRequest struct {
	Minutes int `json:"minutes"`
}

func (s *Server) handlePlayerSnapshot(w http.ResponseWriter, r *http.Request) {
	response.Success(w, s.coordinator.Observe().Get(), s.logger)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.BookID == "" {
		response.BadRequest(w, "bookId is required", s.logger)
		return
	}

	if err := s.coordinator.Play(r.Context(), req.BookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.coordinator.Observe().Get(), s.logger)
}

func (s *Server) handlePlayPause(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.PlayPause(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.coordinator.Observe().Get(), s.logger)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}
	if req.PositionMs < 0 {
		response.BadRequest(w, "positionMs must not be negative", s.logger)
		return
	}

	if err := s.coordinator.Seek(r.Context(), req.PositionMs); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleRewind(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.Rewind(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleFastForward(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.FastForward(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleSkipNext(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.SkipNext(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.coordinator.Observe().Get(), s.logger)
}

func (s *Server) handleSkipPrevious(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.SkipPrevious(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, s.coordinator.Observe().Get(), s.logger)
}

func (s *Server) handleCycleMode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.coordinator.CycleMode(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]string{"mode": mode.String()}, s.logger)
}

func (s *Server) handleCycleSpeed(w http.ResponseWriter, r *http.Request) {
	speed, err := s.coordinator.CycleSpeed(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]float64{"speed": speed}, s.logger)
}

func (s *Server) handleSetSleepTimer(w http.ResponseWriter, r *http.Request) {
	var req SleepRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	if err := s.coordinator.SetSleepTimer(req.Minutes); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.NoContent(w)
}

func (s *Server) handleClearSleepTimer(w http.ResponseWriter, r *http.Request) {
	s.coordinator.ClearSleepTimer()
	response.NoContent(w)
}
