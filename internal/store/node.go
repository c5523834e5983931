package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blueprintlab/studio/internal/apperr"
)

// pathToken renders a node's segment in the materialised path. A node's full
// path is the concatenation of its ancestors' tokens followed by its own.
func pathToken(id string) string {
	return "/node_" + id
}

const nodeColumns = `id, project_id, parent_id, node_type, name, description,
	path, sort, status, document_id, creator_id, creator_name, created_at,
	editor_id, editor_name, edited_at`

// scanNode reads one node row in column order.
func scanNode(sc scanner) (*Node, error) {
	var n Node
	var parentID sql.NullString
	var desc sql.NullString
	var docID sql.NullInt64
	var nodeType string
	err := sc.Scan(&n.ID, &n.ProjectID, &parentID, &nodeType, &n.Name, &desc,
		&n.Path, &n.Sort, &n.Status, &docID, &n.CreatorID, &n.CreatorName,
		&n.CreatedAt, &n.EditorID, &n.EditorName, &n.EditedAt)
	if err != nil {
		return nil, err
	}
	n.Type = NodeType(nodeType)
	n.Description = desc.String
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	if docID.Valid {
		n.DocumentID = &docID.Int64
	}
	return &n, nil
}

func getNode(ctx context.Context, q dbtx, id string) (*Node, error) {
	n, err := scanNode(q.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM project_node WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("node %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}
	return n, nil
}

// GetNode returns a node by ID or a not-found error.
func (s *Store) GetNode(ctx context.Context, id string) (*Node, error) {
	return getNode(ctx, s.db, id)
}

// maxSort returns the highest sibling sort under parentID (nil for roots),
// or 0 when there are no siblings.
func maxSort(ctx context.Context, q dbtx, projectID int64, parentID *string) (int, error) {
	var query string
	var args []any
	if parentID == nil {
		query = `SELECT COALESCE(MAX(sort), 0) FROM project_node
			WHERE project_id = ? AND parent_id IS NULL`
		args = []any{projectID}
	} else {
		query = `SELECT COALESCE(MAX(sort), 0) FROM project_node WHERE parent_id = ?`
		args = []any{*parentID}
	}
	var max int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&max); err != nil {
		return 0, fmt.Errorf("max sort: %w", err)
	}
	return max, nil
}

// insertNode writes a fully-resolved node row.
func insertNode(ctx context.Context, q dbtx, n *Node) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO project_node (id, project_id, parent_id, node_type, name,
			description, path, sort, status, document_id, creator_id,
			creator_name, created_at, editor_id, editor_name, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProjectID, n.ParentID, string(n.Type), n.Name, n.Description,
		n.Path, n.Sort, n.Status, n.DocumentID, n.CreatorID, n.CreatorName,
		n.CreatedAt, n.EditorID, n.EditorName, n.EditedAt)
	if err != nil {
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

// resolveNewNode assigns the ID, path, sort, and timestamps for a node about
// to be inserted, reading the parent inside the surrounding transaction. A
// nil ParentID creates the project's application root; only one root may
// exist per project.
func resolveNewNode(ctx context.Context, tx *sql.Tx, n *Node, now int64) error {
	if n.ID == "" {
		n.ID = newNodeID()
	}
	if n.ParentID == nil {
		var existing string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM project_node
			WHERE project_id = ? AND parent_id IS NULL`, n.ProjectID).Scan(&existing)
		switch {
		case err == nil:
			return apperr.Conflict("project %d already has an application node", n.ProjectID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check application node: %w", err)
		}
		n.Path = pathToken(n.ID)
		n.Sort = 0
	} else {
		parent, err := getNode(ctx, tx, *n.ParentID)
		if err != nil {
			return err
		}
		if parent.ProjectID != n.ProjectID {
			return apperr.Validation("parent node %s belongs to another project", parent.ID)
		}
		n.Path = parent.Path + pathToken(n.ID)
	}
	if n.ParentID != nil {
		max, err := maxSort(ctx, tx, n.ProjectID, n.ParentID)
		if err != nil {
			return err
		}
		n.Sort = max + 1
	}
	if n.Status == 0 {
		n.Status = 1
	}
	n.CreatedAt = now
	n.EditorID = n.CreatorID
	n.EditorName = n.CreatorName
	n.EditedAt = now
	return nil
}

// CreateNode inserts an application or page node. The node's path and sort
// position are resolved from the parent inside one transaction; the new node
// is appended after its last sibling.
func (s *Store) CreateNode(ctx context.Context, n *Node) error {
	now := time.Now().Unix()
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if err := resolveNewNode(ctx, tx, n, now); err != nil {
			return err
		}
		if err := insertNode(ctx, tx, n); err != nil {
			return err
		}
		return touchProject(ctx, tx, n.ProjectID, n.CreatorID, n.CreatorName, now)
	})
}

// CreateFunctionNode inserts a function node together with its document:
// node row, document metadata, empty content, and the document_id backlink,
// all in one transaction. Either everything lands or nothing does.
func (s *Store) CreateFunctionNode(ctx context.Context, n *Node) (*FunctionDocument, error) {
	now := time.Now().Unix()
	var doc *FunctionDocument
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if err := resolveNewNode(ctx, tx, n, now); err != nil {
			return err
		}
		if err := insertNode(ctx, tx, n); err != nil {
			return err
		}
		var err error
		doc, err = createDocument(ctx, tx, n.ID, n.CreatorID, n.CreatorName, now)
		if err != nil {
			return err
		}
		if err := setContent(ctx, tx, doc.ID, EmptyObject, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE project_node SET document_id = ? WHERE id = ?`,
			doc.ID, n.ID); err != nil {
			return fmt.Errorf("link document to node: %w", err)
		}
		n.DocumentID = &doc.ID
		return touchProject(ctx, tx, n.ProjectID, n.CreatorID, n.CreatorName, now)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListNodes returns every node of a project ordered by path then sort,
// which yields a stable depth-first-compatible listing for tree assembly.
func (s *Store) ListNodes(ctx context.Context, projectID int64) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM project_node
		WHERE project_id = ? ORDER BY path, sort`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// GetRoot returns the application node of a project, or a not-found error
// when the project has no tree yet.
func (s *Store) GetRoot(ctx context.Context, projectID int64) (*Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx, `
		SELECT `+nodeColumns+` FROM project_node
		WHERE project_id = ? AND parent_id IS NULL`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("project %d has no application node", projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get root of project %d: %w", projectID, err)
	}
	return n, nil
}

// Children returns the direct children of a node ordered by sort.
func (s *Store) Children(ctx context.Context, parentID string) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM project_node
		WHERE parent_id = ? ORDER BY sort, id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", parentID, err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

// Descendants returns every node strictly below n, ordered by path then
// sort. The materialised path makes this a single prefix query.
func (s *Store) Descendants(ctx context.Context, n *Node) ([]*Node, error) {
	return descendants(ctx, s.db, n)
}

func descendants(ctx context.Context, q dbtx, n *Node) ([]*Node, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM project_node
		WHERE path LIKE ? AND id != ? ORDER BY path, sort`,
		n.Path+"/%", n.ID)
	if err != nil {
		return nil, fmt.Errorf("descendants of %s: %w", n.ID, err)
	}
	defer rows.Close()
	return collectNodes(rows)
}

func collectNodes(rows *sql.Rows) ([]*Node, error) {
	var out []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func hasChildren(ctx context.Context, q dbtx, id string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM project_node WHERE parent_id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count children of %s: %w", id, err)
	}
	return count > 0, nil
}

// HasChildren reports whether a node has at least one direct child.
func (s *Store) HasChildren(ctx context.Context, id string) (bool, error) {
	return hasChildren(ctx, s.db, id)
}

// UpdateNode applies the supplied fields to a node. Nil fields keep their
// stored values.
func (s *Store) UpdateNode(ctx context.Context, id string, name, description *string, editorID, editorName string) (*Node, error) {
	now := time.Now().Unix()
	var updated *Node
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, id)
		if err != nil {
			return err
		}
		newName, newDescription := n.Name, n.Description
		if name != nil {
			newName = *name
		}
		if description != nil {
			newDescription = *description
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE project_node
			SET name = ?, description = ?, editor_id = ?, editor_name = ?, edited_at = ?
			WHERE id = ?`,
			newName, newDescription, editorID, editorName, now, id)
		if err != nil {
			return fmt.Errorf("update node %s: %w", id, err)
		}
		if err := touchProject(ctx, tx, n.ProjectID, editorID, editorName, now); err != nil {
			return err
		}
		updated, err = getNode(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MoveNode relocates a node (and its whole subtree) under newParentID,
// positioned directly after the sibling afterID, or first when afterID is
// nil. Sibling sorts, the node's path, and every descendant path are
// rewritten in one transaction.
//
// Structural rules enforced here: the new parent must belong to the same
// project, must not lie inside the moved node's own subtree, and the
// predecessor must be a direct child of the new parent. Type compatibility
// is the caller's concern; node types never change after creation.
func (s *Store) MoveNode(ctx context.Context, nodeID string, newParentID, afterID *string, editorID, editorName string) (*Node, error) {
	now := time.Now().Unix()
	var moved *Node
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}

		var parentPath string
		if newParentID != nil {
			parent, err := getNode(ctx, tx, *newParentID)
			if err != nil {
				return err
			}
			if parent.ProjectID != n.ProjectID {
				return apperr.Validation("cannot move node across projects")
			}
			if parent.ID == n.ID || strings.HasPrefix(parent.Path, n.Path+"/") {
				return apperr.Validation("cannot move a node into its own subtree")
			}
			parentPath = parent.Path
		}

		newSort := 0
		if afterID != nil {
			if *afterID == n.ID {
				return apperr.Validation("a node cannot be positioned after itself")
			}
			pred, err := getNode(ctx, tx, *afterID)
			if err != nil {
				return err
			}
			if !sameParent(pred.ParentID, newParentID) || pred.ProjectID != n.ProjectID {
				return apperr.Validation("node %s is not a child of the target parent", pred.ID)
			}
			newSort = pred.Sort + 1
		}

		// Open a gap at the target position. The moved node is excluded so
		// a reposition among the same siblings doesn't shift itself.
		if newParentID != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE project_node SET sort = sort + 1
				WHERE parent_id = ? AND sort >= ? AND id != ?`,
				*newParentID, newSort, n.ID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE project_node SET sort = sort + 1
				WHERE project_id = ? AND parent_id IS NULL AND sort >= ? AND id != ?`,
				n.ProjectID, newSort, n.ID)
		}
		if err != nil {
			return fmt.Errorf("shift siblings: %w", err)
		}

		oldPath := n.Path
		newPath := parentPath + pathToken(n.ID)
		_, err = tx.ExecContext(ctx, `
			UPDATE project_node
			SET parent_id = ?, path = ?, sort = ?, editor_id = ?, editor_name = ?, edited_at = ?
			WHERE id = ?`,
			newParentID, newPath, newSort, editorID, editorName, now, n.ID)
		if err != nil {
			return fmt.Errorf("move node %s: %w", n.ID, err)
		}

		// Rewrite descendant paths by swapping the prefix in place.
		_, err = tx.ExecContext(ctx, `
			UPDATE project_node SET path = ? || substr(path, ?)
			WHERE path LIKE ? AND id != ?`,
			newPath, len(oldPath)+1, oldPath+"/%", n.ID)
		if err != nil {
			return fmt.Errorf("rewrite descendant paths: %w", err)
		}

		if err := touchProject(ctx, tx, n.ProjectID, editorID, editorName, now); err != nil {
			return err
		}
		moved, err = getNode(ctx, tx, n.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DeleteNode removes a leaf node. Nodes with children are rejected; a
// function node's document metadata and content go with it.
func (s *Store) DeleteNode(ctx context.Context, id string, editorID, editorName string) error {
	now := time.Now().Unix()
	return s.Tx(ctx, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, id)
		if err != nil {
			return err
		}
		children, err := hasChildren(ctx, tx, id)
		if err != nil {
			return err
		}
		if children {
			return apperr.Validation("node %s has children; delete them first", id)
		}
		if n.DocumentID != nil {
			if err := deleteContent(ctx, tx, *n.DocumentID); err != nil {
				return err
			}
			if err := deleteDocument(ctx, tx, *n.DocumentID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM project_node WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete node %s: %w", id, err)
		}
		return touchProject(ctx, tx, n.ProjectID, editorID, editorName, now)
	})
}

// TypeRules loads the node-type grammar seeded in the node_type table. The
// parent_allow column holds a comma-separated list of allowed parent types;
// NULL marks the root type.
func (s *Store) TypeRules(ctx context.Context) (map[NodeType]TypeRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, parent_allow FROM node_type`)
	if err != nil {
		return nil, fmt.Errorf("load node types: %w", err)
	}
	defer rows.Close()

	rules := make(map[NodeType]TypeRule)
	for rows.Next() {
		var code string
		var name, parentAllow sql.NullString
		if err := rows.Scan(&code, &name, &parentAllow); err != nil {
			return nil, fmt.Errorf("scan node type: %w", err)
		}
		rule := TypeRule{Code: NodeType(code), Name: name.String}
		if parentAllow.Valid {
			for _, p := range strings.Split(parentAllow.String, ",") {
				if p = strings.TrimSpace(p); p != "" {
					rule.ParentAllow = append(rule.ParentAllow, NodeType(p))
				}
			}
		}
		rules[rule.Code] = rule
	}
	return rules, rows.Err()
}
