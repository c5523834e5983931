package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blueprintlab/studio/internal/apperr"
)

// scanProject reads one project row in column order.
func scanProject(sc scanner) (*Project, error) {
	var p Project
	var desc sql.NullString
	err := sc.Scan(&p.ID, &p.Name, &desc, &p.CreatorID, &p.CreatorName,
		&p.CreatedAt, &p.EditorID, &p.EditorName, &p.EditedAt)
	if err != nil {
		return nil, err
	}
	p.Description = desc.String
	return &p, nil
}

const projectColumns = `id, name, description, creator_id, creator_name,
	created_at, editor_id, editor_name, edited_at`

// CreateProject inserts a new project. Names are unique system-wide; a
// duplicate returns a conflict error. The creator is also recorded as the
// initial editor.
func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	now := time.Now().Unix()
	return s.Tx(ctx, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM project WHERE name = ?`, p.Name).Scan(&existing)
		switch {
		case err == nil:
			return apperr.Conflict("project name %q already exists", p.Name)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("check project name: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO project (name, description, creator_id, creator_name,
				created_at, editor_id, editor_name, edited_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Name, p.Description, p.CreatorID, p.CreatorName,
			now, p.CreatorID, p.CreatorName, now)
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		p.ID = id
		p.CreatedAt = now
		p.EditorID = p.CreatorID
		p.EditorName = p.CreatorName
		p.EditedAt = now
		return nil
	})
}

// GetProject returns a project by ID or a not-found error.
func (s *Store) GetProject(ctx context.Context, id int64) (*Project, error) {
	return getProject(ctx, s.db, id)
}

func getProject(ctx context.Context, q dbtx, id int64) (*Project, error) {
	p, err := scanProject(q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM project WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("project %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns projects ordered by last edit, newest first. A
// non-empty creatorID restricts the listing to that creator.
func (s *Store) ListProjects(ctx context.Context, creatorID string) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project`
	var args []any
	if creatorID != "" {
		query += ` WHERE creator_id = ?`
		args = append(args, creatorID)
	}
	query += ` ORDER BY edited_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject applies the supplied fields to a project. Nil fields keep
// their stored values; a new name must not collide with any other project.
func (s *Store) UpdateProject(ctx context.Context, id int64, name, description *string, editorID, editorName string) (*Project, error) {
	now := time.Now().Unix()
	var updated *Project
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		p, err := getProject(ctx, tx, id)
		if err != nil {
			return err
		}
		newName, newDescription := p.Name, p.Description
		if name != nil {
			newName = *name
		}
		if description != nil {
			newDescription = *description
		}
		if name != nil {
			var other int64
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM project WHERE name = ? AND id != ?`, newName, id).Scan(&other)
			switch {
			case err == nil:
				return apperr.Conflict("project name %q already exists", newName)
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("check project name: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE project
			SET name = ?, description = ?, editor_id = ?, editor_name = ?, edited_at = ?
			WHERE id = ?`,
			newName, newDescription, editorID, editorName, now, id)
		if err != nil {
			return fmt.Errorf("update project %d: %w", id, err)
		}
		updated, err = getProject(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// touchProject bumps a project's editor and edited_at inside a write that
// modifies the project's tree or documents.
func touchProject(ctx context.Context, q dbtx, id int64, editorID, editorName string, now int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE project SET editor_id = ?, editor_name = ?, edited_at = ?
		WHERE id = ?`,
		editorID, editorName, now, id)
	if err != nil {
		return fmt.Errorf("touch project %d: %w", id, err)
	}
	return nil
}

// DeleteProject removes a project and everything it owns: node rows,
// function document metadata and content, and dictionary entries, all in one
// transaction.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := getProject(ctx, tx, id); err != nil {
			return err
		}
		// Content first, then metadata, so the subselects still resolve.
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM document_content WHERE document_id IN (
				SELECT fd.id FROM function_document fd
				JOIN project_node pn ON pn.id = fd.function_node_id
				WHERE pn.project_id = ?)`, id); err != nil {
			return fmt.Errorf("delete document content: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM function_document WHERE function_node_id IN (
				SELECT id FROM project_node WHERE project_id = ?)`, id); err != nil {
			return fmt.Errorf("delete function documents: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM project_node WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete nodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM dictionary WHERE project_id = ?`, id); err != nil {
			return fmt.Errorf("delete dictionary: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM project WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete project %d: %w", id, err)
		}
		return nil
	})
}
