package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"atelier-go/internal/atelier"
	"atelier-go/internal/model"
)

// Layer operations

// UpsertLayer inserts or updates the layer addressed by the composite
// key (id, scene).
func (s *SQLiteDatabase) UpsertLayer(ctx context.Context, layer model.Layer) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := sceneExists(ctx, tx, layer.SceneID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO layers (id, scene, title, z, visible, locked)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id, scene) DO UPDATE SET
	title = excluded.title,
	z = excluded.z,
	visible = excluded.visible,
	locked = excluded.locked`,
			layer.ID, layer.SceneID, nullString(layer.Title), layer.Z, layer.Visible, layer.Locked)
		if err != nil {
			return fmt.Errorf("upserting layer: %w", err)
		}
		return nil
	})
}

// DeleteLayer removes the layer and cascade-deletes the sprites in the
// same scene whose layer field references it. Sprite.layer is a plain
// integer, not a declared foreign key, so the cascade is enumerated
// here rather than left to the schema.
func (s *SQLiteDatabase) DeleteLayer(ctx context.Context, sceneID, layerID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE id = ? AND scene = ?`, layerID, sceneID)
		if err != nil {
			return fmt.Errorf("deleting layer: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking delete: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("layer %d in scene %d: %w", layerID, sceneID, atelier.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sprites WHERE scene = ? AND layer = ?`, sceneID, layerID); err != nil {
			return fmt.Errorf("deleting layer sprites: %w", err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) ListLayers(ctx context.Context, sceneID int64) ([]model.Layer, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, scene, title, z, visible, locked
FROM layers WHERE scene = ? ORDER BY z ASC, id ASC`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("listing layers: %w", err)
	}
	defer rows.Close()

	var out []model.Layer
	for rows.Next() {
		var l model.Layer
		var title sql.NullString
		if err := rows.Scan(&l.ID, &l.SceneID, &title, &l.Z, &l.Visible, &l.Locked); err != nil {
			return nil, fmt.Errorf("scanning layer: %w", err)
		}
		l.Title = stringPtr(title)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading layer rows: %w", err)
	}
	return out, nil
}

// Sprite operations

// UpsertSprite inserts or updates the sprite addressed by (id, scene).
// The referenced layer and media key are validated inside the
// transaction, so the invariant holds even against a concurrent layer
// or media delete.
func (s *SQLiteDatabase) UpsertSprite(ctx context.Context, sprite model.Sprite) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := sceneExists(ctx, tx, sprite.SceneID); err != nil {
			return err
		}

		var layerExists int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM layers WHERE id = ? AND scene = ?`,
			sprite.Layer, sprite.SceneID).Scan(&layerExists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("layer %d does not exist in scene %d: %w", sprite.Layer, sprite.SceneID, atelier.ErrInvalidArgument)
		}
		if err != nil {
			return fmt.Errorf("checking layer: %w", err)
		}

		if sprite.MediaKey != nil {
			var mediaExists int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM media WHERE media_key = ?`, *sprite.MediaKey).Scan(&mediaExists)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("media %q does not exist: %w", *sprite.MediaKey, atelier.ErrInvalidArgument)
			}
			if err != nil {
				return fmt.Errorf("checking media: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO sprites (id, scene, layer, media_key, r, g, b, a, x, y, w, h, z)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id, scene) DO UPDATE SET
	layer = excluded.layer,
	media_key = excluded.media_key,
	r = excluded.r, g = excluded.g, b = excluded.b, a = excluded.a,
	x = excluded.x, y = excluded.y, w = excluded.w, h = excluded.h,
	z = excluded.z`,
			sprite.ID, sprite.SceneID, sprite.Layer, nullString(sprite.MediaKey),
			nullFloat(sprite.R), nullFloat(sprite.G), nullFloat(sprite.B), nullFloat(sprite.A),
			sprite.X, sprite.Y, sprite.W, sprite.H, sprite.Z)
		if err != nil {
			return fmt.Errorf("upserting sprite: %w", err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) DeleteSprite(ctx context.Context, sceneID, spriteID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sprites WHERE id = ? AND scene = ?`, spriteID, sceneID)
		if err != nil {
			return fmt.Errorf("deleting sprite: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking delete: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("sprite %d in scene %d: %w", spriteID, sceneID, atelier.ErrNotFound)
		}
		return nil
	})
}

func (s *SQLiteDatabase) ListSprites(ctx context.Context, sceneID int64) ([]model.Sprite, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, scene, layer, media_key, r, g, b, a, x, y, w, h, z
FROM sprites WHERE scene = ? ORDER BY z ASC, id ASC`, sceneID)
	if err != nil {
		return nil, fmt.Errorf("listing sprites: %w", err)
	}
	defer rows.Close()

	var out []model.Sprite
	for rows.Next() {
		var sp model.Sprite
		var mediaKey sql.NullString
		var r, g, b, a sql.NullFloat64
		if err := rows.Scan(&sp.ID, &sp.SceneID, &sp.Layer, &mediaKey,
			&r, &g, &b, &a, &sp.X, &sp.Y, &sp.W, &sp.H, &sp.Z); err != nil {
			return nil, fmt.Errorf("scanning sprite: %w", err)
		}
		sp.MediaKey = stringPtr(mediaKey)
		sp.R = floatPtr(r)
		sp.G = floatPtr(g)
		sp.B = floatPtr(b)
		sp.A = floatPtr(a)
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading sprite rows: %w", err)
	}
	return out, nil
}

func sceneExists(ctx context.Context, tx *sql.Tx, sceneID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM scenes WHERE id = ?`, sceneID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scene %d: %w", sceneID, atelier.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking scene: %w", err)
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
