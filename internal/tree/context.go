package tree

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/render"
	"github.com/blueprintlab/studio/internal/store"
)

// ContextEntry pairs a node with its design document, both as raw JSON and
// as readable text for coding agents. Nodes without a document carry nulls.
type ContextEntry struct {
	Node         store.NodeInfo  `json:"node"`
	Document     json.RawMessage `json:"document"`
	DocumentText *string         `json:"document_text"`
}

// ApplicationDetail is the assembled context for one node: the ancestor
// chain as background (root first) and the node itself plus all descendants
// as the content to develop.
type ApplicationDetail struct {
	Context          []ContextEntry `json:"context"`
	ContentToDevelop []ContextEntry `json:"content_to_develop"`
}

// Detail assembles the application detail for a node. Ancestors are walked
// parent by parent up to the root; a broken link ends the chain rather than
// failing the whole request.
func (s *Service) Detail(ctx context.Context, nodeID string) (*ApplicationDetail, error) {
	node, err := s.store.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	var ancestors []*store.Node
	currentID := node.ParentID
	for currentID != nil {
		anc, err := s.store.GetNode(ctx, *currentID)
		if err != nil {
			s.log.Warn("ancestor chain broken",
				zap.String("node_id", nodeID), zap.String("missing", *currentID))
			break
		}
		ancestors = append(ancestors, anc)
		currentID = anc.ParentID
	}
	// Root first.
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}

	background := make([]ContextEntry, 0, len(ancestors))
	for _, anc := range ancestors {
		entry, err := s.entryFor(ctx, anc)
		if err != nil {
			return nil, err
		}
		background = append(background, entry)
	}

	descendants, err := s.store.Descendants(ctx, node)
	if err != nil {
		return nil, err
	}
	develop := make([]ContextEntry, 0, len(descendants)+1)
	for _, n := range append([]*store.Node{node}, descendants...) {
		entry, err := s.entryFor(ctx, n)
		if err != nil {
			return nil, err
		}
		develop = append(develop, entry)
	}

	return &ApplicationDetail{Context: background, ContentToDevelop: develop}, nil
}

// entryFor builds one context entry, attaching the document content and its
// readable rendering when the node has one.
func (s *Service) entryFor(ctx context.Context, n *store.Node) (ContextEntry, error) {
	entry := ContextEntry{Node: n.ToInfo()}
	if n.DocumentID == nil {
		return entry, nil
	}
	content, err := s.store.GetContent(ctx, *n.DocumentID)
	if err != nil {
		return entry, err
	}
	entry.Document = content

	text, err := render.FromJSON(content)
	if err != nil {
		// Unrenderable content still ships as raw JSON.
		s.log.Warn("document render failed",
			zap.String("node_id", n.ID), zap.Int64("document_id", *n.DocumentID), zap.Error(err))
		return entry, nil
	}
	entry.DocumentText = &text
	return entry, nil
}
