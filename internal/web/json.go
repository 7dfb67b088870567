package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/propdraft/internal/domain"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes. The remote save message is
// passed through for inline display; everything else gets a generic body so
// internals stay out of responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var remoteErr *domain.RemoteSaveError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.As(err, &remoteErr):
		s.logger.Error("remote save failed", "op", remoteErr.Op, "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: remoteErr.Message})
	default:
		s.logger.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
