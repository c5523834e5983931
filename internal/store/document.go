package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blueprintlab/studio/internal/apperr"
)

const documentColumns = `id, function_node_id, creator_id, creator_name,
	created_at, editor_id, editor_name, edited_at`

func scanDocument(sc scanner) (*FunctionDocument, error) {
	var d FunctionDocument
	err := sc.Scan(&d.ID, &d.FunctionNodeID, &d.CreatorID, &d.CreatorName,
		&d.CreatedAt, &d.EditorID, &d.EditorName, &d.EditedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// createDocument inserts a function document metadata row inside the
// caller's transaction.
func createDocument(ctx context.Context, q dbtx, nodeID, creatorID, creatorName string, now int64) (*FunctionDocument, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO function_document (function_node_id, creator_id,
			creator_name, created_at, editor_id, editor_name, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nodeID, creatorID, creatorName, now, creatorID, creatorName, now)
	if err != nil {
		return nil, fmt.Errorf("insert function document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("function document id: %w", err)
	}
	return &FunctionDocument{
		ID:             id,
		FunctionNodeID: nodeID,
		CreatorID:      creatorID,
		CreatorName:    creatorName,
		CreatedAt:      now,
		EditorID:       creatorID,
		EditorName:     creatorName,
		EditedAt:       now,
	}, nil
}

func getDocument(ctx context.Context, q dbtx, id int64) (*FunctionDocument, error) {
	d, err := scanDocument(q.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM function_document WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return d, nil
}

// GetDocument returns a function document's metadata by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*FunctionDocument, error) {
	return getDocument(ctx, s.db, id)
}

// GetDocumentByNode returns the document metadata for a function node, or
// nil when the node has no document yet.
func (s *Store) GetDocumentByNode(ctx context.Context, nodeID string) (*FunctionDocument, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM function_document WHERE function_node_id = ?`,
		nodeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("document for node %s: %w", nodeID, err)
	}
	return d, nil
}

// touchDocument bumps a document's editor and edited_at inside a content
// write.
func touchDocument(ctx context.Context, q dbtx, id int64, editorID, editorName string, now int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE function_document
		SET editor_id = ?, editor_name = ?, edited_at = ?
		WHERE id = ?`,
		editorID, editorName, now, id)
	if err != nil {
		return fmt.Errorf("touch document %d: %w", id, err)
	}
	return nil
}

func deleteDocument(ctx context.Context, q dbtx, id int64) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM function_document WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	return nil
}

// InitDocument creates the metadata and empty content for an existing
// function node that lacks a document, and links it back to the node.
// Idempotent: a node that already has a document gets its existing metadata
// back.
func (s *Store) InitDocument(ctx context.Context, nodeID, creatorID, creatorName string) (*FunctionDocument, error) {
	now := time.Now().Unix()
	var doc *FunctionDocument
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		n, err := getNode(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if n.Type != NodeTypeFunction {
			return apperr.Validation("node %s is not a function node", nodeID)
		}
		if n.DocumentID != nil {
			doc, err = getDocument(ctx, tx, *n.DocumentID)
			return err
		}
		doc, err = createDocument(ctx, tx, nodeID, creatorID, creatorName, now)
		if err != nil {
			return err
		}
		if err := setContent(ctx, tx, doc.ID, EmptyObject, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE project_node SET document_id = ? WHERE id = ?`,
			doc.ID, nodeID); err != nil {
			return fmt.Errorf("link document to node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
