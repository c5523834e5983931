package server

import (
	"io"
	"net/http"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/audit"
	"github.com/blueprintlab/studio/internal/reqctx"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/validate"
)

// handleGetDocument returns the document content itself as the body.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	content, err := s.docs.Content(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, http.StatusOK, content)
}

// handlePatchDocument applies the RFC 6902 patch carried in the body and
// acknowledges with {success: true}.
func (s *Server) handlePatchDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, apperr.Validation("cannot read request body"))
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	if _, err := s.docs.Patch(r.Context(), id, patch, caller.UserID, caller.UserName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successBody)
}

type dictionaryForm struct {
	ProjectID  int64  `json:"project_id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

func (f *dictionaryForm) validate() error {
	if err := validate.Term(f.Term); err != nil {
		return err
	}
	return validate.Definition(f.Definition)
}

func (s *Server) handleListDictionary(w http.ResponseWriter, r *http.Request) {
	projectID, err := queryProjectID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.store.ListDictionary(r.Context(), projectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]store.DictionaryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToJSON())
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateDictionary(w http.ResponseWriter, r *http.Request) {
	var form dictionaryForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	entry := &store.DictionaryEntry{
		ProjectID:  form.ProjectID,
		Term:       form.Term,
		Definition: form.Definition,
	}
	err := s.store.CreateDictionaryEntry(r.Context(), entry)
	audit.Event("dictionary:create", "create").
		Actor(caller.UserID, caller.UserName).Project(form.ProjectID).
		Detail("term", form.Term).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, entry.ToJSON())
}

func (s *Server) handleUpdateDictionary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var form dictionaryForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	entry, err := s.store.UpdateDictionaryEntry(r.Context(), id, form.Term, form.Definition)
	audit.Event("dictionary:update", "update").
		Actor(caller.UserID, caller.UserName).Detail("term", form.Term).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entry.ToJSON())
}

func (s *Server) handleDeleteDictionary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	caller := reqctx.IdentityFrom(r.Context())
	err = s.store.DeleteDictionaryEntry(r.Context(), id)
	audit.Event("dictionary:delete", "delete").
		Actor(caller.UserID, caller.UserName).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successBody)
}
