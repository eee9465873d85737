package atelier_test

import (
	"context"
	"errors"
	"testing"

	"atelier-go/internal/atelier"
)

func TestSceneGraph_UpsertLayer(t *testing.T) {
	t.Run("inserts and updates in place", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)

		if err := f.scenes.UpsertLayer(context.Background(), scene, 1, strPtr("Background"), 0, true, false); err != nil {
			t.Fatalf("UpsertLayer() error = %v", err)
		}

		// Same (id, scene) address updates rather than duplicating.
		if err := f.scenes.UpsertLayer(context.Background(), scene, 1, strPtr("Backdrop"), 5, false, true); err != nil {
			t.Fatalf("second UpsertLayer() error = %v", err)
		}

		layers, err := f.scenes.ListLayers(context.Background(), scene)
		if err != nil {
			t.Fatalf("ListLayers() error = %v", err)
		}
		if len(layers) != 1 {
			t.Fatalf("ListLayers() returned %d layers, want 1", len(layers))
		}
		l := layers[0]
		if l.Title == nil || *l.Title != "Backdrop" || l.Z != 5 || l.Visible || !l.Locked {
			t.Errorf("layer = %+v, want title=Backdrop z=5 visible=false locked=true", l)
		}
	})

	t.Run("unknown scene fails with not found", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)

		if err := f.projects.DeleteScene(context.Background(), scene); err != nil {
			t.Fatalf("DeleteScene() error = %v", err)
		}

		err := f.scenes.UpsertLayer(context.Background(), scene, 1, strPtr("Background"), 0, true, false)
		if !errors.Is(err, atelier.ErrNotFound) {
			t.Errorf("UpsertLayer() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("layer ids are scoped per scene", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, sceneA := f.scene(t, user)
		_, sceneB := f.scene(t, user)

		f.layer(t, sceneA, 1, 0)
		f.layer(t, sceneB, 1, 7)

		layersA, err := f.scenes.ListLayers(context.Background(), sceneA)
		if err != nil {
			t.Fatalf("ListLayers(A) error = %v", err)
		}
		layersB, err := f.scenes.ListLayers(context.Background(), sceneB)
		if err != nil {
			t.Fatalf("ListLayers(B) error = %v", err)
		}
		if len(layersA) != 1 || len(layersB) != 1 {
			t.Fatalf("layer counts = %d, %d, want 1, 1", len(layersA), len(layersB))
		}
		if layersA[0].Z == layersB[0].Z {
			t.Error("layers with the same id in different scenes collided")
		}
	})
}

func TestSceneGraph_RenameLayer(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	_, scene := f.scene(t, user)

	if err := f.scenes.UpsertLayer(context.Background(), scene, 1, strPtr("Old"), 3, false, true); err != nil {
		t.Fatalf("UpsertLayer() error = %v", err)
	}

	if err := f.scenes.RenameLayer(context.Background(), scene, 1, strPtr("New")); err != nil {
		t.Fatalf("RenameLayer() error = %v", err)
	}

	layers, err := f.scenes.ListLayers(context.Background(), scene)
	if err != nil {
		t.Fatalf("ListLayers() error = %v", err)
	}
	l := layers[0]
	if l.Title == nil || *l.Title != "New" {
		t.Errorf("Title = %v, want New", l.Title)
	}
	// Everything but the title is untouched.
	if l.Z != 3 || l.Visible || !l.Locked {
		t.Errorf("layer = %+v, want z=3 visible=false locked=true", l)
	}

	if err := f.scenes.RenameLayer(context.Background(), scene, 99, strPtr("X")); !errors.Is(err, atelier.ErrNotFound) {
		t.Errorf("RenameLayer(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestSceneGraph_DeleteLayer(t *testing.T) {
	t.Run("cascade-deletes only its own sprites", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)
		f.layer(t, scene, 1, 0)
		f.layer(t, scene, 2, 1)

		if err := f.scenes.UpsertSprite(context.Background(), scene, testSprite(10, 1, 0)); err != nil {
			t.Fatalf("UpsertSprite(10) error = %v", err)
		}
		if err := f.scenes.UpsertSprite(context.Background(), scene, testSprite(20, 2, 0)); err != nil {
			t.Fatalf("UpsertSprite(20) error = %v", err)
		}

		if err := f.scenes.DeleteLayer(context.Background(), scene, 1); err != nil {
			t.Fatalf("DeleteLayer() error = %v", err)
		}

		sprites, err := f.scenes.ListSprites(context.Background(), scene)
		if err != nil {
			t.Fatalf("ListSprites() error = %v", err)
		}
		if len(sprites) != 1 {
			t.Fatalf("ListSprites() returned %d sprites, want 1", len(sprites))
		}
		if sprites[0].ID != 20 {
			t.Errorf("surviving sprite ID = %d, want 20", sprites[0].ID)
		}
	})

	t.Run("unknown layer fails with not found", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)

		err := f.scenes.DeleteLayer(context.Background(), scene, 99)
		if !errors.Is(err, atelier.ErrNotFound) {
			t.Errorf("DeleteLayer() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSceneGraph_UpsertSprite(t *testing.T) {
	t.Run("inserts and updates in place", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)
		f.layer(t, scene, 1, 0)

		sp := testSprite(10, 1, 0)
		if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
			t.Fatalf("UpsertSprite() error = %v", err)
		}

		sp.X = 500
		sp.Z = 9
		if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
			t.Fatalf("second UpsertSprite() error = %v", err)
		}

		sprites, err := f.scenes.ListSprites(context.Background(), scene)
		if err != nil {
			t.Fatalf("ListSprites() error = %v", err)
		}
		if len(sprites) != 1 {
			t.Fatalf("ListSprites() returned %d sprites, want 1", len(sprites))
		}
		if sprites[0].X != 500 || sprites[0].Z != 9 {
			t.Errorf("sprite = %+v, want x=500 z=9", sprites[0])
		}
	})

	t.Run("layer must exist in the same scene", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, sceneA := f.scene(t, user)
		_, sceneB := f.scene(t, user)
		f.layer(t, sceneB, 1, 0)

		// Layer 1 exists only in scene B.
		err := f.scenes.UpsertSprite(context.Background(), sceneA, testSprite(10, 1, 0))
		if !errors.Is(err, atelier.ErrInvalidArgument) {
			t.Errorf("UpsertSprite() error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("media key must resolve", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)
		f.layer(t, scene, 1, 0)

		sp := testSprite(10, 1, 0)
		missing := "no-such-media"
		sp.MediaKey = &missing
		err := f.scenes.UpsertSprite(context.Background(), scene, sp)
		if !errors.Is(err, atelier.ErrInvalidArgument) {
			t.Errorf("UpsertSprite() error = %v, want ErrInvalidArgument", err)
		}

		asset, err := f.media.Register(context.Background(), user, "stone.png", "Stone", "hash-1")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		sp.MediaKey = &asset.MediaKey
		if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
			t.Errorf("UpsertSprite() with registered media error = %v", err)
		}
	})

	t.Run("zero and negative sizes round-trip", func(t *testing.T) {
		// A drag-resize in the editor passes through zero and flipped
		// dimensions; the store persists them as-is.
		f := newFixture(t)
		user := f.user(t, "ada")
		_, scene := f.scene(t, user)
		f.layer(t, scene, 1, 0)

		sp := testSprite(10, 1, 0)
		sp.W = 0
		if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
			t.Fatalf("UpsertSprite(w=0) error = %v", err)
		}
		sp.W, sp.H = -32, -1
		if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
			t.Fatalf("UpsertSprite(w=-32,h=-1) error = %v", err)
		}

		sprites, err := f.scenes.ListSprites(context.Background(), scene)
		if err != nil {
			t.Fatalf("ListSprites() error = %v", err)
		}
		if len(sprites) != 1 {
			t.Fatalf("ListSprites() returned %d sprites, want 1", len(sprites))
		}
		if sprites[0].W != -32 || sprites[0].H != -1 {
			t.Errorf("sprite size = %gx%g, want -32x-1", sprites[0].W, sprites[0].H)
		}
	})
}

func TestSceneGraph_DeleteSprite(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	_, scene := f.scene(t, user)
	f.layer(t, scene, 1, 0)

	if err := f.scenes.UpsertSprite(context.Background(), scene, testSprite(10, 1, 0)); err != nil {
		t.Fatalf("UpsertSprite() error = %v", err)
	}

	if err := f.scenes.DeleteSprite(context.Background(), scene, 10); err != nil {
		t.Fatalf("DeleteSprite() error = %v", err)
	}

	if err := f.scenes.DeleteSprite(context.Background(), scene, 10); !errors.Is(err, atelier.ErrNotFound) {
		t.Errorf("second DeleteSprite() error = %v, want ErrNotFound", err)
	}
}

func TestSceneGraph_PaintOrder(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	_, scene := f.scene(t, user)

	// Insert out of z order; ids 3 and 1 share z to exercise the tie-break.
	if err := f.scenes.UpsertLayer(context.Background(), scene, 2, strPtr("Top"), 10, true, false); err != nil {
		t.Fatalf("UpsertLayer(2) error = %v", err)
	}
	if err := f.scenes.UpsertLayer(context.Background(), scene, 3, strPtr("Mid B"), 5, true, false); err != nil {
		t.Fatalf("UpsertLayer(3) error = %v", err)
	}
	if err := f.scenes.UpsertLayer(context.Background(), scene, 1, strPtr("Mid A"), 5, true, false); err != nil {
		t.Fatalf("UpsertLayer(1) error = %v", err)
	}

	layers, err := f.scenes.ListLayers(context.Background(), scene)
	if err != nil {
		t.Fatalf("ListLayers() error = %v", err)
	}

	wantOrder := []int64{1, 3, 2}
	if len(layers) != len(wantOrder) {
		t.Fatalf("ListLayers() returned %d layers, want %d", len(layers), len(wantOrder))
	}
	for i, want := range wantOrder {
		if layers[i].ID != want {
			t.Errorf("layers[%d].ID = %d, want %d", i, layers[i].ID, want)
		}
	}

	// Sprites likewise: z ascending, id breaking the tie.
	for _, sp := range []struct{ id, layer, z int64 }{{7, 1, 4}, {5, 1, 2}, {6, 1, 2}} {
		if err := f.scenes.UpsertSprite(context.Background(), scene, testSprite(sp.id, sp.layer, sp.z)); err != nil {
			t.Fatalf("UpsertSprite(%d) error = %v", sp.id, err)
		}
	}

	sprites, err := f.scenes.ListSprites(context.Background(), scene)
	if err != nil {
		t.Fatalf("ListSprites() error = %v", err)
	}
	wantSprites := []int64{5, 6, 7}
	for i, want := range wantSprites {
		if sprites[i].ID != want {
			t.Errorf("sprites[%d].ID = %d, want %d", i, sprites[i].ID, want)
		}
	}
}

func TestSceneGraph_DrawOrder(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	_, scene := f.scene(t, user)

	f.layer(t, scene, 1, 0)
	if err := f.scenes.UpsertLayer(context.Background(), scene, 2, strPtr("Fore"), 5, true, false); err != nil {
		t.Fatalf("UpsertLayer(2) error = %v", err)
	}

	for _, sp := range []struct{ id, layer, z int64 }{{10, 2, 1}, {11, 1, 0}, {12, 2, 0}} {
		if err := f.scenes.UpsertSprite(context.Background(), scene, testSprite(sp.id, sp.layer, sp.z)); err != nil {
			t.Fatalf("UpsertSprite(%d) error = %v", sp.id, err)
		}
	}

	order, err := f.scenes.DrawOrder(context.Background(), scene)
	if err != nil {
		t.Fatalf("DrawOrder() error = %v", err)
	}

	if len(order) != 2 {
		t.Fatalf("DrawOrder() returned %d groups, want 2", len(order))
	}
	if order[0].Layer.ID != 1 || order[1].Layer.ID != 2 {
		t.Errorf("layer order = [%d %d], want [1 2]", order[0].Layer.ID, order[1].Layer.ID)
	}
	if len(order[0].Sprites) != 1 || order[0].Sprites[0].ID != 11 {
		t.Errorf("bottom layer sprites = %+v, want [11]", order[0].Sprites)
	}
	if len(order[1].Sprites) != 2 || order[1].Sprites[0].ID != 12 || order[1].Sprites[1].ID != 10 {
		t.Errorf("top layer sprites = %+v, want [12 10]", order[1].Sprites)
	}
}

func TestSceneGraph_MediaDeleteClearsReferences(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	_, scene := f.scene(t, user)
	f.layer(t, scene, 1, 0)

	asset, err := f.media.Register(context.Background(), user, "stone.png", "Stone", "hash-1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	sp := testSprite(10, 1, 0)
	sp.MediaKey = &asset.MediaKey
	if err := f.scenes.UpsertSprite(context.Background(), scene, sp); err != nil {
		t.Fatalf("UpsertSprite() error = %v", err)
	}

	if err := f.media.Delete(context.Background(), asset.MediaKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	sprites, err := f.scenes.ListSprites(context.Background(), scene)
	if err != nil {
		t.Fatalf("ListSprites() error = %v", err)
	}
	if len(sprites) != 1 {
		t.Fatalf("ListSprites() returned %d sprites, want 1", len(sprites))
	}
	if sprites[0].MediaKey != nil {
		t.Errorf("MediaKey = %v, want nil after media delete", *sprites[0].MediaKey)
	}
	// Geometry survives.
	if sprites[0].X != 10 || sprites[0].W != 64 {
		t.Errorf("sprite geometry changed: %+v", sprites[0])
	}
}
