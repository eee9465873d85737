package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-go/internal/atelier"
	"atelier-go/internal/model"
)

// Project operations

func (s *SQLiteDatabase) CreateProject(ctx context.Context, project model.Project) (*model.Project, error) {
	var created *model.Project
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var keyTaken int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE user = ? AND project_key = ?`,
			project.UserID, project.ProjectKey).Scan(&keyTaken)
		if err == nil {
			return fmt.Errorf("project key taken: %w", atelier.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking project key: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO projects (project_key, user, title, created_time)
VALUES (?, ?, ?, ?)`,
			project.ProjectKey, project.UserID, nullString(project.Title), project.CreatedTime)
		if err != nil {
			return conflictOr(err, "inserting project")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading project id: %w", err)
		}
		project.ID = id
		created = &project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteDatabase) FindProjectByKey(ctx context.Context, userID int64, projectKey string) (*model.Project, error) {
	var p model.Project
	var title sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT id, project_key, user, title, created_time
FROM projects WHERE user = ? AND project_key = ?`, userID, projectKey).
		Scan(&p.ID, &p.ProjectKey, &p.UserID, &title, &p.CreatedTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	p.Title = stringPtr(title)
	return &p, nil
}

func (s *SQLiteDatabase) RenameProject(ctx context.Context, projectID int64, title *string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET title = ? WHERE id = ?`, nullString(title), projectID)
	if err != nil {
		return fmt.Errorf("renaming project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rename: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("project %d: %w", projectID, atelier.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListProjects(ctx context.Context, userID int64) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, project_key, user, title, created_time
FROM projects WHERE user = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		var title sql.NullString
		if err := rows.Scan(&p.ID, &p.ProjectKey, &p.UserID, &title, &p.CreatedTime); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Title = stringPtr(title)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading project rows: %w", err)
	}
	return out, nil
}

// DeleteProject removes the project and enumerates the cascade
// explicitly: sprites and layers of every owned scene, then the
// scenes, then the project, all in one transaction. A cancelled
// context rolls the whole chain back.
func (s *SQLiteDatabase) DeleteProject(ctx context.Context, projectID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE id = ?`, projectID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %d: %w", projectID, atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking project: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
DELETE FROM sprites WHERE scene IN (SELECT id FROM scenes WHERE project = ?)`, projectID); err != nil {
			return fmt.Errorf("deleting project sprites: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM layers WHERE scene IN (SELECT id FROM scenes WHERE project = ?)`, projectID); err != nil {
			return fmt.Errorf("deleting project layers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE project = ?`, projectID); err != nil {
			return fmt.Errorf("deleting project scenes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, projectID); err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		return nil
	})
}

// Scene operations

func (s *SQLiteDatabase) CreateScene(ctx context.Context, scene model.Scene) (*model.Scene, error) {
	var created *model.Scene
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var projectExists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE id = ?`, scene.ProjectID).Scan(&projectExists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %d: %w", scene.ProjectID, atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking project: %w", err)
		}

		var keyTaken int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM scenes WHERE project = ? AND scene_key = ?`,
			scene.ProjectID, scene.SceneKey).Scan(&keyTaken)
		if err == nil {
			return fmt.Errorf("scene key taken: %w", atelier.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking scene key: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO scenes (scene_key, project, title, w, h, created_time)
VALUES (?, ?, ?, ?, ?, ?)`,
			scene.SceneKey, scene.ProjectID, nullString(scene.Title), scene.Width, scene.Height, scene.CreatedTime)
		if err != nil {
			return conflictOr(err, "inserting scene")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading scene id: %w", err)
		}
		scene.ID = id
		created = &scene
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteDatabase) FindSceneByKey(ctx context.Context, projectID int64, sceneKey string) (*model.Scene, error) {
	var sc model.Scene
	var title sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT id, scene_key, project, title, w, h, created_time
FROM scenes WHERE project = ? AND scene_key = ?`, projectID, sceneKey).
		Scan(&sc.ID, &sc.SceneKey, &sc.ProjectID, &title, &sc.Width, &sc.Height, &sc.CreatedTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scene: %w", err)
	}
	sc.Title = stringPtr(title)
	return &sc, nil
}

func (s *SQLiteDatabase) RenameScene(ctx context.Context, sceneID int64, title *string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE scenes SET title = ? WHERE id = ?`, nullString(title), sceneID)
	if err != nil {
		return fmt.Errorf("renaming scene: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rename: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("scene %d: %w", sceneID, atelier.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListScenes(ctx context.Context, projectID int64) ([]model.Scene, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, scene_key, project, title, w, h, created_time
FROM scenes WHERE project = ? ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	defer rows.Close()

	var out []model.Scene
	for rows.Next() {
		var sc model.Scene
		var title sql.NullString
		if err := rows.Scan(&sc.ID, &sc.SceneKey, &sc.ProjectID, &title, &sc.Width, &sc.Height, &sc.CreatedTime); err != nil {
			return nil, fmt.Errorf("scanning scene: %w", err)
		}
		sc.Title = stringPtr(title)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading scene rows: %w", err)
	}
	return out, nil
}

// DeleteScene removes the scene and its layers and sprites in one
// transaction.
func (s *SQLiteDatabase) DeleteScene(ctx context.Context, sceneID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM scenes WHERE id = ?`, sceneID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("scene %d: %w", sceneID, atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking scene: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sprites WHERE scene = ?`, sceneID); err != nil {
			return fmt.Errorf("deleting scene sprites: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE scene = ?`, sceneID); err != nil {
			return fmt.Errorf("deleting scene layers: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, sceneID); err != nil {
			return fmt.Errorf("deleting scene: %w", err)
		}
		return nil
	})
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
