package server

import (
	"net/http"
	"strconv"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/audit"
	"github.com/blueprintlab/studio/internal/reqctx"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/validate"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("malformed id %q", r.PathValue("id"))
	}
	return id, nil
}

type projectForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (f *projectForm) validate() error {
	if err := validate.ProjectName(f.Name); err != nil {
		return err
	}
	return validate.ProjectDescription(f.Description)
}

// projectUpdateForm carries a partial update: absent fields are left
// untouched.
type projectUpdateForm struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (f *projectUpdateForm) validate() error {
	if f.Name != nil {
		if err := validate.ProjectName(*f.Name); err != nil {
			return err
		}
	}
	if f.Description != nil {
		return validate.ProjectDescription(*f.Description)
	}
	return nil
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context(), r.URL.Query().Get("creator_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]store.ProjectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ToJSON())
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var form projectForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := reqctx.IdentityFrom(r.Context())
	p := &store.Project{
		Name:        form.Name,
		Description: form.Description,
		CreatorID:   id.UserID,
		CreatorName: id.UserName,
	}
	err := s.store.CreateProject(r.Context(), p)
	audit.Event("project:create", "create").
		Actor(id.UserID, id.UserName).Project(p.ID).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p.ToJSON())
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.ToJSON())
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var form projectUpdateForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := form.validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	p, err := s.store.UpdateProject(r.Context(), id, form.Name, form.Description,
		caller.UserID, caller.UserName)
	audit.Event("project:update", "update").
		Actor(caller.UserID, caller.UserName).Project(id).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p.ToJSON())
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	caller := reqctx.IdentityFrom(r.Context())
	err = s.store.DeleteProject(r.Context(), id)
	audit.Event("project:delete", "delete").
		Actor(caller.UserID, caller.UserName).Project(id).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successBody)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	root, err := s.trees.Tree(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, root)
}
