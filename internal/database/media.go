package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-go/internal/atelier"
	"atelier-go/internal/model"
)

// Media operations

// FindOrCreateMedia registers a media asset with per-user content
// deduplication. A second registration of the same (user, hash) pair
// returns the asset from the first, keeping re-uploads idempotent. The
// dedup read and the insert share a transaction so two concurrent
// registrations of the same content cannot both insert.
func (s *SQLiteDatabase) FindOrCreateMedia(ctx context.Context, asset model.MediaAsset) (*model.MediaAsset, bool, error) {
	var out *model.MediaAsset
	var created bool
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanMedia(tx.QueryRowContext(ctx, `
SELECT id, media_key, user, relative_path, title, hashed_value
FROM media WHERE user = ? AND hashed_value = ?`, asset.UserID, asset.HashedValue))
		if err != nil {
			return fmt.Errorf("checking content hash: %w", err)
		}
		if existing != nil {
			out = existing
			return nil
		}

		var pathTaken int64
		err = tx.QueryRowContext(ctx, `SELECT id FROM media WHERE relative_path = ?`, asset.RelativePath).Scan(&pathTaken)
		if err == nil {
			return fmt.Errorf("relative path %q taken: %w", asset.RelativePath, atelier.ErrConflict)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking relative path: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
INSERT INTO media (media_key, user, relative_path, title, hashed_value)
VALUES (?, ?, ?, ?, ?)`,
			asset.MediaKey, asset.UserID, asset.RelativePath, asset.Title, asset.HashedValue)
		if err != nil {
			return conflictOr(err, "inserting media")
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading media id: %w", err)
		}
		asset.ID = id
		out = &asset
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (s *SQLiteDatabase) FindMediaByKey(ctx context.Context, mediaKey string) (*model.MediaAsset, error) {
	asset, err := scanMedia(s.db.QueryRowContext(ctx, `
SELECT id, media_key, user, relative_path, title, hashed_value
FROM media WHERE media_key = ?`, mediaKey))
	if err != nil {
		return nil, fmt.Errorf("finding media by key: %w", err)
	}
	return asset, nil
}

func (s *SQLiteDatabase) ListMediaForUser(ctx context.Context, userID int64) ([]model.MediaAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, media_key, user, relative_path, title, hashed_value
FROM media WHERE user = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	defer rows.Close()

	var out []model.MediaAsset
	for rows.Next() {
		var m model.MediaAsset
		if err := rows.Scan(&m.ID, &m.MediaKey, &m.UserID, &m.RelativePath, &m.Title, &m.HashedValue); err != nil {
			return nil, fmt.Errorf("scanning media: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading media rows: %w", err)
	}
	return out, nil
}

// DeleteMediaByKey removes the asset and clears media_key on every
// referencing sprite, in one transaction. Sprites survive with a nil
// media reference; they are never deleted by this path.
func (s *SQLiteDatabase) DeleteMediaByKey(ctx context.Context, mediaKey string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM media WHERE media_key = ?`, mediaKey).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("media %q: %w", mediaKey, atelier.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("checking media: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE sprites SET media_key = NULL WHERE media_key = ?`, mediaKey); err != nil {
			return fmt.Errorf("clearing sprite references: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM media WHERE media_key = ?`, mediaKey); err != nil {
			return fmt.Errorf("deleting media: %w", err)
		}
		return nil
	})
}

func scanMedia(row *sql.Row) (*model.MediaAsset, error) {
	var m model.MediaAsset
	err := row.Scan(&m.ID, &m.MediaKey, &m.UserID, &m.RelativePath, &m.Title, &m.HashedValue)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
