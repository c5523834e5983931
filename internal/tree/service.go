// Package tree implements the node-tree operations on top of the store:
// typed node creation, renames, ordered moves, deletion, full-tree assembly,
// and context assembly for coding agents.
//
// The type grammar (which node types may sit under which parents) is loaded
// from the node_type table at startup; node types never change after
// creation, so the rules can be checked outside the store's transactions.
package tree

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/blueprintlab/studio/internal/apperr"
	"github.com/blueprintlab/studio/internal/store"
	"github.com/blueprintlab/studio/internal/validate"
)

// Service provides tree operations for one store.
type Service struct {
	store *store.Store
	rules map[store.NodeType]store.TypeRule
	log   *zap.Logger
}

// New builds a tree service, loading the type grammar from the store.
func New(ctx context.Context, st *store.Store, logger *zap.Logger) (*Service, error) {
	rules, err := st.TypeRules(ctx)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, rules: rules, log: logger}, nil
}

// checkParentType verifies the grammar: typ must be creatable under a parent
// of parentType (empty for a root position).
func (s *Service) checkParentType(typ store.NodeType, parentType store.NodeType) error {
	rule, ok := s.rules[typ]
	if !ok {
		return apperr.Validation("unknown node type %q", typ)
	}
	if parentType == "" {
		if len(rule.ParentAllow) != 0 {
			return apperr.Validation("%s nodes require a parent", typ)
		}
		return nil
	}
	for _, allowed := range rule.ParentAllow {
		if allowed == parentType {
			return nil
		}
	}
	return apperr.Validation("%s nodes cannot be created under a %s node", typ, parentType)
}

// CreateNode creates a typed node. Application nodes take no parent and are
// unique per project; pages go under the application; functions go under a
// page and get an empty design document atomically.
func (s *Service) CreateNode(ctx context.Context, projectID int64, parentID *string, typ store.NodeType, name, description, userID, userName string) (*store.Node, error) {
	if err := validate.NodeName(name); err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, apperr.Validation("unknown node type %q", typ)
	}

	var parentType store.NodeType
	if parentID != nil {
		parent, err := s.store.GetNode(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		parentType = parent.Type
		projectID = parent.ProjectID
	} else if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if err := s.checkParentType(typ, parentType); err != nil {
		return nil, err
	}

	n := &store.Node{
		ProjectID:   projectID,
		ParentID:    parentID,
		Type:        typ,
		Name:        name,
		Description: description,
		CreatorID:   userID,
		CreatorName: userName,
	}
	if typ == store.NodeTypeFunction {
		if _, err := s.store.CreateFunctionNode(ctx, n); err != nil {
			return nil, err
		}
		return n, nil
	}
	if err := s.store.CreateNode(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNode returns a node by ID.
func (s *Service) GetNode(ctx context.Context, id string) (*store.Node, error) {
	return s.store.GetNode(ctx, id)
}

// UpdateNode applies the supplied fields to a node; nil fields are left
// untouched.
func (s *Service) UpdateNode(ctx context.Context, id string, name, description *string, userID, userName string) (*store.Node, error) {
	if name != nil {
		if err := validate.NodeName(*name); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateNode(ctx, id, name, description, userID, userName)
}

// MoveNode relocates a node under newParentID, placed directly after the
// sibling afterID (first when nil). Application nodes are fixed; the target
// parent's type must admit the moved node's type.
func (s *Service) MoveNode(ctx context.Context, nodeID string, newParentID, afterID *string, userID, userName string) (*store.Node, error) {
	n, err := s.store.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if n.Type == store.NodeTypeApplication {
		return nil, apperr.Validation("the application node cannot be moved")
	}
	var parentType store.NodeType
	if newParentID != nil {
		parent, err := s.store.GetNode(ctx, *newParentID)
		if err != nil {
			return nil, err
		}
		parentType = parent.Type
	}
	if err := s.checkParentType(n.Type, parentType); err != nil {
		return nil, err
	}
	return s.store.MoveNode(ctx, nodeID, newParentID, afterID, userID, userName)
}

// DeleteNode removes a leaf node; a function node's document goes with it.
func (s *Service) DeleteNode(ctx context.Context, id, userID, userName string) error {
	return s.store.DeleteNode(ctx, id, userID, userName)
}

// TreeNode is one node of the assembled tree with its children in sort
// order. Sort drives the ordering but is not part of the response.
type TreeNode struct {
	ID          string      `json:"id"`
	ProjectID   int64       `json:"project_id"`
	ParentID    *string     `json:"parent_id"`
	NodeType    string      `json:"node_type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path"`
	Status      int         `json:"status"`
	DocumentID  *int64      `json:"document_id"`
	Children    []*TreeNode `json:"children"`

	Sort int `json:"-"`
}

func toTreeNode(n *store.Node) *TreeNode {
	return &TreeNode{
		ID:          n.ID,
		ProjectID:   n.ProjectID,
		ParentID:    n.ParentID,
		NodeType:    string(n.Type),
		Name:        n.Name,
		Description: n.Description,
		Path:        n.Path,
		Status:      n.Status,
		DocumentID:  n.DocumentID,
		Children:    []*TreeNode{},
		Sort:        n.Sort,
	}
}

// Tree assembles a project's full node tree. A project without an
// application node yields nil.
func (s *Service) Tree(ctx context.Context, projectID int64) (*TreeNode, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	nodes, err := s.store.ListNodes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*TreeNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = toTreeNode(n)
	}
	var root *TreeNode
	for _, n := range nodes {
		tn := byID[n.ID]
		if n.ParentID == nil {
			root = tn
			continue
		}
		if parent, ok := byID[*n.ParentID]; ok {
			parent.Children = append(parent.Children, tn)
		}
	}
	for _, tn := range byID {
		sortChildren(tn.Children)
	}
	return root, nil
}

// sortChildren orders siblings by sort, then ID for stability.
func sortChildren(children []*TreeNode) {
	sort.Slice(children, func(i, j int) bool {
		if children[i].Sort != children[j].Sort {
			return children[i].Sort < children[j].Sort
		}
		return children[i].ID < children[j].ID
	})
}
