package atelier

import (
	"context"
	"fmt"

	"atelier-go/internal/model"
)

// SceneGraph manages the layers and sprites inside a scene. Layers and
// sprites carry caller-supplied ids scoped to their scene; the pair
// (id, scene) is the address, never a global id.
//
// Paint order: layers draw by z ascending (lower z at the bottom), and
// sprites within a layer draw by z ascending; ties break by id.
type SceneGraph struct {
	db     Database
	logger Logger
}

// NewSceneGraph creates a scene graph store over the given database.
func NewSceneGraph(db Database, logger Logger) *SceneGraph {
	return &SceneGraph{
		db:     db,
		logger: logger,
	}
}

// UpsertLayer inserts the layer (id scoped to the scene) or updates it
// in place when (id, scene) already exists. title is nil for an
// untitled layer.
func (g *SceneGraph) UpsertLayer(ctx context.Context, scene *model.Scene, id int64, title *string, z int64, visible, locked bool) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}

	err := g.db.UpsertLayer(ctx, model.Layer{
		ID:      id,
		SceneID: scene.ID,
		Title:   title,
		Z:       z,
		Visible: visible,
		Locked:  locked,
	})
	if err != nil {
		return fmt.Errorf("upserting layer: %w", err)
	}

	g.logger.Debug("layer upserted", "scene_key", scene.SceneKey, "layer", id, "z", z)
	return nil
}

// RenameLayer retitles a layer (nil clears the title), leaving z,
// visibility and lock state untouched. Fails with ErrNotFound if
// (id, scene) does not exist.
func (g *SceneGraph) RenameLayer(ctx context.Context, scene *model.Scene, id int64, title *string) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}

	layers, err := g.db.ListLayers(ctx, scene.ID)
	if err != nil {
		return fmt.Errorf("listing layers: %w", err)
	}
	for _, l := range layers {
		if l.ID == id {
			l.Title = title
			if err := g.db.UpsertLayer(ctx, l); err != nil {
				return fmt.Errorf("renaming layer: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("layer %d in scene %q: %w", id, scene.SceneKey, ErrNotFound)
}

// DeleteLayer removes the layer and cascade-deletes every sprite in the
// scene whose layer field references it, in one transaction.
func (g *SceneGraph) DeleteLayer(ctx context.Context, scene *model.Scene, id int64) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}

	if err := g.db.DeleteLayer(ctx, scene.ID, id); err != nil {
		return fmt.Errorf("deleting layer: %w", err)
	}

	g.logger.Info("layer deleted", "scene_key", scene.SceneKey, "layer", id)
	return nil
}

// UpsertSprite inserts or updates the sprite addressed by (id, scene).
// The sprite's layer field must reference an existing layer id within
// the same scene, and a non-nil media key must resolve in the media
// library; either violation fails with ErrInvalidArgument.
func (g *SceneGraph) UpsertSprite(ctx context.Context, scene *model.Scene, sprite model.Sprite) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}

	sprite.SceneID = scene.ID
	if err := g.db.UpsertSprite(ctx, sprite); err != nil {
		return fmt.Errorf("upserting sprite: %w", err)
	}

	g.logger.Debug("sprite upserted", "scene_key", scene.SceneKey, "sprite", sprite.ID, "layer", sprite.Layer)
	return nil
}

// DeleteSprite removes the sprite addressed by (id, scene).
func (g *SceneGraph) DeleteSprite(ctx context.Context, scene *model.Scene, id int64) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}

	if err := g.db.DeleteSprite(ctx, scene.ID, id); err != nil {
		return fmt.Errorf("deleting sprite: %w", err)
	}

	g.logger.Debug("sprite deleted", "scene_key", scene.SceneKey, "sprite", id)
	return nil
}

// ListLayers returns the scene's layers in paint order: z ascending,
// id breaking ties.
func (g *SceneGraph) ListLayers(ctx context.Context, scene *model.Scene) ([]model.Layer, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}
	layers, err := g.db.ListLayers(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("listing layers: %w", err)
	}
	return layers, nil
}

// ListSprites returns the scene's sprites ordered by z ascending, id
// breaking ties.
func (g *SceneGraph) ListSprites(ctx context.Context, scene *model.Scene) ([]model.Sprite, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}
	sprites, err := g.db.ListSprites(ctx, scene.ID)
	if err != nil {
		return nil, fmt.Errorf("listing sprites: %w", err)
	}
	return sprites, nil
}

// LayerSprites pairs a layer with its sprites in draw order.
type LayerSprites struct {
	Layer   model.Layer
	Sprites []model.Sprite
}

// DrawOrder returns the scene's complete composite draw order: layers
// by z ascending, each carrying its sprites by z ascending, ids
// breaking ties. This is the listing a rendering engine consumes.
func (g *SceneGraph) DrawOrder(ctx context.Context, scene *model.Scene) ([]LayerSprites, error) {
	layers, err := g.ListLayers(ctx, scene)
	if err != nil {
		return nil, err
	}
	sprites, err := g.ListSprites(ctx, scene)
	if err != nil {
		return nil, err
	}

	byLayer := make(map[int64][]model.Sprite, len(layers))
	for _, s := range sprites {
		byLayer[s.Layer] = append(byLayer[s.Layer], s)
	}

	order := make([]LayerSprites, 0, len(layers))
	for _, l := range layers {
		order = append(order, LayerSprites{Layer: l, Sprites: byLayer[l.ID]})
	}
	return order, nil
}
