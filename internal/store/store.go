// Package store persists the project tree and its design documents in
// SQLite. One Store owns the connection pool; entity operations live in
// per-entity files (project.go, node.go, document.go, content.go,
// dictionary.go) and multi-statement operations run inside a single
// transaction via Tx.
package store

import (
	"encoding/json"
	"time"
)

// NodeType classifies a tree node. The parent grammar is seeded in the
// node_type table: application is the root, page sits under application,
// function sits under page.
type NodeType string

const (
	NodeTypeApplication NodeType = "application"
	NodeTypePage        NodeType = "page"
	NodeTypeFunction    NodeType = "function"
)

// Valid reports whether t is one of the three known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeApplication, NodeTypePage, NodeTypeFunction:
		return true
	}
	return false
}

// Project owns a node tree and a dictionary. Names are unique across the
// system.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatorID   string // opaque caller-supplied identifier
	CreatorName string
	CreatedAt   int64 // unix seconds
	EditorID    string
	EditorName  string
	EditedAt    int64
}

// Node is one row of the materialised-path tree. Path lists all ancestors
// including self as /node_<id> tokens; Sort orders siblings ascending.
// DocumentID is set only on function nodes.
type Node struct {
	ID          string // canonical UUID string
	ProjectID   int64
	ParentID    *string // nil only for the application root
	Type        NodeType
	Name        string
	Description string
	Path        string
	Sort        int
	Status      int // reserved
	DocumentID  *int64
	CreatorID   string
	CreatorName string
	CreatedAt   int64
	EditorID    string
	EditorName  string
	EditedAt    int64
}

// FunctionDocument is the metadata row for a function node's design
// document, 1:1 with the node. The payload itself lives in
// document_content keyed by this row's ID.
type FunctionDocument struct {
	ID             int64
	FunctionNodeID string
	CreatorID      string
	CreatorName    string
	CreatedAt      int64
	EditorID       string
	EditorName     string
	EditedAt       int64
}

// DictionaryEntry is a project-scoped term/definition pair. Terms are
// unique per project.
type DictionaryEntry struct {
	ID         int64
	ProjectID  int64
	Term       string
	Definition string
	CreatedAt  int64
}

// TypeRule is one row of the node_type reference table: the allowed parent
// types for a node type, empty for the root type.
type TypeRule struct {
	Code        NodeType
	Name        string
	ParentAllow []NodeType
}

// rfc3339 formats a unix timestamp for API output.
func rfc3339(ts int64) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

// ProjectJSON is the API representation of a Project.
type ProjectJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name,omitempty"`
	CreatedAt   string `json:"created_at"`
	EditorID    string `json:"editor_id,omitempty"`
	EditorName  string `json:"editor_name,omitempty"`
	EditedAt    string `json:"edited_at"`
}

// ToJSON converts a Project to its API representation.
func (p *Project) ToJSON() ProjectJSON {
	return ProjectJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatorID:   p.CreatorID,
		CreatorName: p.CreatorName,
		CreatedAt:   rfc3339(p.CreatedAt),
		EditorID:    p.EditorID,
		EditorName:  p.EditorName,
		EditedAt:    rfc3339(p.EditedAt),
	}
}

// NodeJSON is the API representation of a Node.
type NodeJSON struct {
	ID          string  `json:"id"`
	ProjectID   int64   `json:"project_id"`
	ParentID    *string `json:"parent_id"`
	NodeType    string  `json:"node_type"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Path        string  `json:"path"`
	Sort        int     `json:"sort"`
	Status      int     `json:"status"`
	DocumentID  *int64  `json:"document_id"`
	CreatorID   string  `json:"creator_id,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	EditorID    string  `json:"editor_id,omitempty"`
	EditedAt    string  `json:"edited_at,omitempty"`
}

// ToJSON converts a Node to its API representation.
func (n *Node) ToJSON() NodeJSON {
	return NodeJSON{
		ID:          n.ID,
		ProjectID:   n.ProjectID,
		ParentID:    n.ParentID,
		NodeType:    string(n.Type),
		Name:        n.Name,
		Description: n.Description,
		Path:        n.Path,
		Sort:        n.Sort,
		Status:      n.Status,
		DocumentID:  n.DocumentID,
		CreatorID:   n.CreatorID,
		CreatedAt:   rfc3339(n.CreatedAt),
		EditorID:    n.EditorID,
		EditedAt:    rfc3339(n.EditedAt),
	}
}

// NodeInfo is the compact node form embedded in context-assembly entries.
type NodeInfo struct {
	ID          string  `json:"id"`
	ProjectID   int64   `json:"project_id"`
	ParentID    *string `json:"parent_id"`
	NodeType    string  `json:"node_type"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Path        string  `json:"path"`
	Sort        int     `json:"sort"`
	DocumentID  *int64  `json:"document_id"`
}

// ToInfo converts a Node to its context-assembly form.
func (n *Node) ToInfo() NodeInfo {
	return NodeInfo{
		ID:          n.ID,
		ProjectID:   n.ProjectID,
		ParentID:    n.ParentID,
		NodeType:    string(n.Type),
		Name:        n.Name,
		Description: n.Description,
		Path:        n.Path,
		Sort:        n.Sort,
		DocumentID:  n.DocumentID,
	}
}

// DictionaryJSON is the API representation of a DictionaryEntry.
type DictionaryJSON struct {
	ID         int64  `json:"id"`
	ProjectID  int64  `json:"project_id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	CreatedAt  string `json:"created_at"`
}

// ToJSON converts a DictionaryEntry to its API representation.
func (d *DictionaryEntry) ToJSON() DictionaryJSON {
	return DictionaryJSON{
		ID:         d.ID,
		ProjectID:  d.ProjectID,
		Term:       d.Term,
		Definition: d.Definition,
		CreatedAt:  rfc3339(d.CreatedAt),
	}
}

// EmptyObject is the initial content of every design document.
var EmptyObject = json.RawMessage(`{}`)
