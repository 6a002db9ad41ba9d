package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/patchbay-io/patchbay/pkg/document"
	"github.com/patchbay-io/patchbay/pkg/domain"
)

// errorResponse is the uniform error body. Validation failures carry the
// individual issues so a client can mark every problem at once.
type errorResponse struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	for _, issue := range document.Issues(err) {
		resp.Issues = append(resp.Issues, issue.String())
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("invalid request body", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}

// statusFor maps domain sentinels onto HTTP statuses. Anything unmapped is
// a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrConnectionNotFound),
		errors.Is(err, domain.ErrPortNotFound),
		errors.Is(err, domain.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateConnection),
		errors.Is(err, domain.ErrDefinitionExists),
		errors.Is(err, domain.ErrCyclicDefinition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSameRole),
		errors.Is(err, domain.ErrNoActiveDrag),
		errors.Is(err, domain.ErrNotAGroup),
		errors.Is(err, domain.ErrEmptyGroup),
		errors.Is(err, domain.ErrNotAComponent):
		return http.StatusUnprocessableEntity
	}
	var ve *document.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
