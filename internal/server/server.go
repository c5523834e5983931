// Package server is the HTTP transport: route registration, the auth
// filter, identity plumbing into the request context, and the uniform error
// shape. Handlers stay thin; behaviour lives in the tree and document
// services.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/config"
	"github.com/blueprintlab/studio/internal/document"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/tree"
)

// Server wires the services to HTTP routes.
type Server struct {
	cfg   *config.Config
	store *store.Store
	trees *tree.Service
	docs  *document.Service
	log   *zap.Logger

	http *http.Server
}

// New builds a server over the given services.
func New(cfg *config.Config, st *store.Store, trees *tree.Service, docs *document.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, store: st, trees: trees, docs: docs, log: logger}
}

// Handler returns the full route table wrapped in logging and auth
// middleware. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("GET /projects/{id}/nodes/tree", s.handleTree)

	mux.HandleFunc("POST /nodes/application", s.handleCreateNode(store.NodeTypeApplication))
	mux.HandleFunc("POST /nodes/page", s.handleCreateNode(store.NodeTypePage))
	mux.HandleFunc("POST /nodes/function", s.handleCreateNode(store.NodeTypeFunction))
	mux.HandleFunc("PUT /nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("POST /nodes/{id}/move", s.handleMoveNode)
	mux.HandleFunc("DELETE /nodes/{id}", s.handleDeleteNode)

	mux.HandleFunc("GET /dictionary", s.handleListDictionary)
	mux.HandleFunc("POST /dictionary", s.handleCreateDictionary)
	mux.HandleFunc("PUT /dictionary/{id}", s.handleUpdateDictionary)
	mux.HandleFunc("DELETE /dictionary/{id}", s.handleDeleteDictionary)

	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("PUT /documents/{id}", s.handlePatchDocument)

	mux.HandleFunc("GET /internal/nodes/{id}/application-detail", s.handleApplicationDetail)

	return s.logRequests(s.authenticate(mux))
}

// Start begins serving on the configured address and blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := s.cfg.Addr()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("listening", zap.String("addr", addr))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
