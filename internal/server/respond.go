package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/apperr"
)

// errorBody is the uniform wire shape for every failure.
type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Solution    string `json:"solution,omitempty"`
	Detail      any    `json:"detail,omitempty"`
}

// writeJSON serialises v with the given status. Encoding failures are logged
// and abandoned; headers are already out.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", zap.Error(err))
	}
}

// writeRaw sends pre-encoded JSON as-is.
func (s *Server) writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(raw); err != nil {
		s.log.Error("response write failed", zap.Error(err))
	}
}

// writeError maps any error onto the uniform shape and status. Internal
// errors are logged with their cause; business errors pass through.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	ae := apperr.From(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{
		Code:        ae.Code,
		Description: ae.Description,
		Solution:    ae.Solution,
		Detail:      ae.Detail,
	})
}

// decodeBody parses a JSON request body into v, surfacing a validation error
// on malformed input.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("malformed request body: %s", err.Error())
	}
	return nil
}

// successBody is the fixed acknowledgement for mutations with no entity to
// return.
var successBody = map[string]bool{"success": true}
