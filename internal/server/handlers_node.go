package server

import (
	"net/http"

	"github.com/blueprintlab/studio/internal/audit"
	"github.com/blueprintlab/studio/internal/reqctx"
	"github.com/blueprintlab/studio/internal/store"
)

type nodeCreateForm struct {
	ProjectID   int64   `json:"project_id"`
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// handleCreateNode returns the creation handler for one node type. The three
// routes share a body shape; application nodes ignore parent_id.
func (s *Server) handleCreateNode(typ store.NodeType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form nodeCreateForm
		if err := decodeBody(r, &form); err != nil {
			s.writeError(w, r, err)
			return
		}
		parentID := form.ParentID
		if typ == store.NodeTypeApplication {
			parentID = nil
		}

		caller := reqctx.IdentityFrom(r.Context())
		n, err := s.trees.CreateNode(r.Context(), form.ProjectID, parentID, typ,
			form.Name, form.Description, caller.UserID, caller.UserName)

		ev := audit.Event("node:create", "create").
			Actor(caller.UserID, caller.UserName).
			Detail("node_type", string(typ))
		if n != nil {
			ev.Project(n.ProjectID).Node(n.ID)
		}
		ev.Write(err)

		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, n.ToJSON())
	}
}

// nodeUpdateForm carries a partial update: absent fields are left untouched.
type nodeUpdateForm struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var form nodeUpdateForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	n, err := s.trees.UpdateNode(r.Context(), id, form.Name, form.Description,
		caller.UserID, caller.UserName)
	audit.Event("node:update", "update").
		Actor(caller.UserID, caller.UserName).Node(id).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

type nodeMoveForm struct {
	NewParentID   *string `json:"new_parent_id"`
	PredecessorID *string `json:"predecessor_id"`
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var form nodeMoveForm
	if err := decodeBody(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller := reqctx.IdentityFrom(r.Context())
	n, err := s.trees.MoveNode(r.Context(), id, form.NewParentID, form.PredecessorID,
		caller.UserID, caller.UserName)

	ev := audit.Event("node:move", "move").
		Actor(caller.UserID, caller.UserName).Node(id)
	if form.NewParentID != nil {
		ev.Detail("new_parent_id", *form.NewParentID)
	}
	ev.Write(err)

	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, n.ToJSON())
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	caller := reqctx.IdentityFrom(r.Context())
	err := s.trees.DeleteNode(r.Context(), id, caller.UserID, caller.UserName)
	audit.Event("node:delete", "delete").
		Actor(caller.UserID, caller.UserName).Node(id).Write(err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, successBody)
}
