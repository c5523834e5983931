package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/blueprintlab/studio/internal/apperr"
)

// getContent reads a document's content. A metadata row without content
// reads as the empty object, so callers never see SQL-level absence.
func getContent(ctx context.Context, q dbtx, documentID int64) (json.RawMessage, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT content FROM document_content WHERE document_id = ?`,
		documentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return EmptyObject, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content %d: %w", documentID, err)
	}
	return json.RawMessage(raw), nil
}

// GetContent returns a document's JSON content, defaulting to the empty
// object. The document metadata must exist.
func (s *Store) GetContent(ctx context.Context, documentID int64) (json.RawMessage, error) {
	if _, err := getDocument(ctx, s.db, documentID); err != nil {
		return nil, err
	}
	return getContent(ctx, s.db, documentID)
}

// setContent upserts a document's content row.
func setContent(ctx context.Context, q dbtx, documentID int64, content json.RawMessage, now int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO document_content (document_id, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (document_id) DO UPDATE SET content = excluded.content,
			updated_at = excluded.updated_at`,
		documentID, string(content), now)
	if err != nil {
		return fmt.Errorf("set content %d: %w", documentID, err)
	}
	return nil
}

// SetContent replaces a document's content wholesale. The content must be a
// JSON object.
func (s *Store) SetContent(ctx context.Context, documentID int64, content json.RawMessage, editorID, editorName string) error {
	if !isJSONObject(content) {
		return apperr.Validation("document content must be a JSON object")
	}
	now := time.Now().Unix()
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := getDocument(ctx, tx, documentID); err != nil {
			return err
		}
		if err := setContent(ctx, tx, documentID, content, now); err != nil {
			return err
		}
		return touchDocument(ctx, tx, documentID, editorID, editorName, now)
	})
}

// PatchContent applies an RFC 6902 patch to a document's content. Load,
// apply, and persist run in one transaction, so concurrent patches serialise
// into last-writer-wins with no interleaved state. The patched result must
// still be a JSON object.
func (s *Store) PatchContent(ctx context.Context, documentID int64, patch json.RawMessage, editorID, editorName string) (json.RawMessage, error) {
	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, apperr.Validation("invalid JSON patch: %s", err.Error())
	}
	now := time.Now().Unix()
	var result json.RawMessage
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := getDocument(ctx, tx, documentID); err != nil {
			return err
		}
		current, err := getContent(ctx, tx, documentID)
		if err != nil {
			return err
		}
		patched, err := decoded.Apply(current)
		if err != nil {
			return apperr.Validation("patch failed: %s", err.Error())
		}
		if !isJSONObject(patched) {
			return apperr.Validation("patched content must be a JSON object")
		}
		if err := setContent(ctx, tx, documentID, patched, now); err != nil {
			return err
		}
		if err := touchDocument(ctx, tx, documentID, editorID, editorName, now); err != nil {
			return err
		}
		result = patched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func deleteContent(ctx context.Context, q dbtx, documentID int64) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM document_content WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete content %d: %w", documentID, err)
	}
	return nil
}

// isJSONObject reports whether raw parses as a JSON object (not an array,
// scalar, or null).
func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
