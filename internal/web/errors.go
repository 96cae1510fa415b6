package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/logistic/internal/logging"
	"github.com/JonMunkholm/logistic/internal/store"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errBadRequest marks errors caused by invalid request input.
var errBadRequest = errors.New("bad request")

// respondError logs err with the request ID and writes a sanitized JSON
// error. The status is derived from err.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)

	log := logging.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		log.Error("request error", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	s.writeJSON(w, status, resp)
}

func classify(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "log entry not found", Code: "NOT_FOUND"}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"}
	}
}
