// Package document exposes design-document operations: reading content,
// applying RFC 6902 patches, and initialising documents for function nodes
// that predate automatic creation.
package document

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/audit"
	"github.com/blueprintlab/studio/internal/store"
)

// Service provides document operations for one store.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// New builds a document service.
func New(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, log: logger}
}

// Get returns a document's metadata.
func (s *Service) Get(ctx context.Context, documentID int64) (*store.FunctionDocument, error) {
	return s.store.GetDocument(ctx, documentID)
}

// Content returns a document's JSON content. Documents start as the empty
// object.
func (s *Service) Content(ctx context.Context, documentID int64) (json.RawMessage, error) {
	return s.store.GetContent(ctx, documentID)
}

// Patch applies an RFC 6902 patch to a document and returns the new content.
// The store serialises the read-apply-write cycle, so concurrent patches
// resolve last-writer-wins.
func (s *Service) Patch(ctx context.Context, documentID int64, patch json.RawMessage, userID, userName string) (json.RawMessage, error) {
	before, err := s.store.GetContent(ctx, documentID)
	if err != nil {
		return nil, err
	}
	after, err := s.store.PatchContent(ctx, documentID, patch, userID, userName)

	ev := audit.Event("document:patch", "patch").
		Actor(userID, userName).
		Document(documentID)
	if err == nil {
		ev.ContentChange(before, after)
	}
	ev.Write(err)

	if err != nil {
		return nil, err
	}
	s.log.Debug("document patched",
		zap.Int64("document_id", documentID), zap.String("editor", userID))
	return after, nil
}

// Replace sets a document's content wholesale.
func (s *Service) Replace(ctx context.Context, documentID int64, content json.RawMessage, userID, userName string) error {
	before, err := s.store.GetContent(ctx, documentID)
	if err != nil {
		return err
	}
	err = s.store.SetContent(ctx, documentID, content, userID, userName)

	ev := audit.Event("document:replace", "write").
		Actor(userID, userName).
		Document(documentID)
	if err == nil {
		ev.ContentChange(before, content)
	}
	ev.Write(err)
	return err
}

// Init ensures a function node has a document, creating an empty one when
// missing. Idempotent.
func (s *Service) Init(ctx context.Context, nodeID, userID, userName string) (*store.FunctionDocument, error) {
	return s.store.InitDocument(ctx, nodeID, userID, userName)
}
