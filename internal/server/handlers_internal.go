package server

import (
	"net/http"
	"strconv"

	"github.com/blueprintlab/studio/internal/apperr"
)

func queryProjectID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("project_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("malformed project_id %q", raw)
	}
	return id, nil
}

// handleHealth reports liveness plus database reachability. Public route.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	database := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		database = err.Error()
		code = http.StatusInternalServerError
	}
	s.writeJSON(w, code, map[string]string{"status": status, "database": database})
}

// handleApplicationDetail serves the machine-facing context assembly. No
// authentication: the auth filter passes the internal prefix through.
func (s *Server) handleApplicationDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.trees.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}
