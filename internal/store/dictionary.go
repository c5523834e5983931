package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blueprintlab/studio/internal/apperr"
)

func scanDictionary(sc scanner) (*DictionaryEntry, error) {
	var d DictionaryEntry
	if err := sc.Scan(&d.ID, &d.ProjectID, &d.Term, &d.Definition, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDictionary returns a project's dictionary entries ordered by term.
func (s *Store) ListDictionary(ctx context.Context, projectID int64) ([]*DictionaryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, term, definition, created_at
		FROM dictionary WHERE project_id = ? ORDER BY term`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list dictionary: %w", err)
	}
	defer rows.Close()

	var out []*DictionaryEntry
	for rows.Next() {
		d, err := scanDictionary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dictionary entry: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CreateDictionaryEntry adds a term to a project's dictionary. Terms are
// unique within a project.
func (s *Store) CreateDictionaryEntry(ctx context.Context, d *DictionaryEntry) error {
	now := time.Now().Unix()
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := getProject(ctx, tx, d.ProjectID); err != nil {
			return err
		}
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM dictionary WHERE project_id = ? AND term = ?`,
			d.ProjectID, d.Term).Scan(&existing)
		switch {
		case err == nil:
			return apperr.Conflict("term %q already defined in project %d", d.Term, d.ProjectID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check term: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO dictionary (project_id, term, definition, created_at)
			VALUES (?, ?, ?, ?)`,
			d.ProjectID, d.Term, d.Definition, now)
		if err != nil {
			return fmt.Errorf("insert dictionary entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("dictionary entry id: %w", err)
		}
		d.ID = id
		d.CreatedAt = now
		return nil
	})
}

// UpdateDictionaryEntry replaces an entry's term and definition. The new
// term must stay unique within the project.
func (s *Store) UpdateDictionaryEntry(ctx context.Context, id int64, term, definition string) (*DictionaryEntry, error) {
	var updated *DictionaryEntry
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		entry, err := scanDictionary(tx.QueryRowContext(ctx, `
			SELECT id, project_id, term, definition, created_at
			FROM dictionary WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("dictionary entry %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get dictionary entry %d: %w", id, err)
		}

		var other int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM dictionary WHERE project_id = ? AND term = ? AND id != ?`,
			entry.ProjectID, term, id).Scan(&other)
		switch {
		case err == nil:
			return apperr.Conflict("term %q already defined in project %d", term, entry.ProjectID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check term: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE dictionary SET term = ?, definition = ? WHERE id = ?`,
			term, definition, id); err != nil {
			return fmt.Errorf("update dictionary entry %d: %w", id, err)
		}
		entry.Term = term
		entry.Definition = definition
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDictionaryEntry removes an entry by ID.
func (s *Store) DeleteDictionaryEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dictionary WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dictionary entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dictionary entry %d: %w", id, err)
	}
	if n == 0 {
		return apperr.NotFound("dictionary entry %d not found", id)
	}
	return nil
}
