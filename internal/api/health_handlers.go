package api

import (
	"net/http"

	"github.com/fablesound/fable-server/internal/http/response"
)

// healthResponse is the health check payload.
type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, healthResponse{Status: "ok"}, s.logger)
}
