package atelier_test

import (
	"context"
	"errors"
	"testing"

	"atelier-go/internal/atelier"
)

func strPtr(s string) *string { return &s }

func TestProjects_Create(t *testing.T) {
	t.Run("allocates a project with an opaque key", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		project, err := f.projects.Create(context.Background(), user, strPtr("Westmarch"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if project.ProjectKey == "" {
			t.Error("ProjectKey is empty")
		}
		if project.UserID != user.ID {
			t.Errorf("UserID = %d, want %d", project.UserID, user.ID)
		}
		if project.Title == nil || *project.Title != "Westmarch" {
			t.Errorf("Title = %v, want Westmarch", project.Title)
		}
	})

	t.Run("title may be absent", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")

		project, err := f.projects.Create(context.Background(), user, nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if project.Title != nil {
			t.Errorf("Title = %v, want nil", project.Title)
		}
	})

	t.Run("nil user is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.projects.Create(context.Background(), nil, nil)
		if !errors.Is(err, atelier.ErrInvalidArgument) {
			t.Errorf("Create(nil) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestProjects_CreateScene(t *testing.T) {
	t.Run("allocates a scene with canvas size", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		project, err := f.projects.Create(context.Background(), user, nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		scene, err := f.projects.CreateScene(context.Background(), project, strPtr("Tavern"), 1920, 1080)
		if err != nil {
			t.Fatalf("CreateScene() error = %v", err)
		}

		if scene.SceneKey == "" {
			t.Error("SceneKey is empty")
		}
		if scene.ProjectID != project.ID {
			t.Errorf("ProjectID = %d, want %d", scene.ProjectID, project.ID)
		}
		if scene.Width != 1920 || scene.Height != 1080 {
			t.Errorf("canvas = %dx%d, want 1920x1080", scene.Width, scene.Height)
		}
	})

	t.Run("non-positive canvas size is rejected", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		project, err := f.projects.Create(context.Background(), user, nil)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		for _, dims := range [][2]int64{{0, 100}, {100, 0}, {-1, 100}, {100, -1}} {
			_, err := f.projects.CreateScene(context.Background(), project, nil, dims[0], dims[1])
			if !errors.Is(err, atelier.ErrInvalidArgument) {
				t.Errorf("CreateScene(%dx%d) error = %v, want ErrInvalidArgument", dims[0], dims[1], err)
			}
		}
	})
}

func TestProjects_Rename(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	project, scene := f.scene(t, user)

	if err := f.projects.Rename(context.Background(), project, strPtr("Renamed")); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	got, err := f.projects.GetByKey(context.Background(), user, project.ProjectKey)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if got.Title == nil || *got.Title != "Renamed" {
		t.Errorf("Title = %v, want Renamed", got.Title)
	}

	// nil clears the title.
	if err := f.projects.Rename(context.Background(), project, nil); err != nil {
		t.Fatalf("Rename(nil) error = %v", err)
	}
	got, err = f.projects.GetByKey(context.Background(), user, project.ProjectKey)
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if got.Title != nil {
		t.Errorf("Title = %v, want nil", got.Title)
	}

	if err := f.projects.RenameScene(context.Background(), scene, strPtr("Act One")); err != nil {
		t.Fatalf("RenameScene() error = %v", err)
	}
	gotScene, err := f.projects.GetSceneByKey(context.Background(), project, scene.SceneKey)
	if err != nil {
		t.Fatalf("GetSceneByKey() error = %v", err)
	}
	if gotScene.Title == nil || *gotScene.Title != "Act One" {
		t.Errorf("scene Title = %v, want Act One", gotScene.Title)
	}
}

func TestProjects_List(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")

	for i := 0; i < 3; i++ {
		if _, err := f.projects.Create(context.Background(), ada, nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := f.projects.Create(context.Background(), bob, nil); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	adaProjects, err := f.projects.List(context.Background(), ada)
	if err != nil {
		t.Fatalf("List(ada) error = %v", err)
	}
	if len(adaProjects) != 3 {
		t.Errorf("List(ada) returned %d projects, want 3", len(adaProjects))
	}

	bobProjects, err := f.projects.List(context.Background(), bob)
	if err != nil {
		t.Fatalf("List(bob) error = %v", err)
	}
	if len(bobProjects) != 1 {
		t.Errorf("List(bob) returned %d projects, want 1", len(bobProjects))
	}
}

func TestProjects_Delete(t *testing.T) {
	t.Run("cascades to scenes and their content", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		project, scene := f.scene(t, user)
		f.layer(t, scene, 1, 0)

		if err := f.projects.Delete(context.Background(), project); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if _, err := f.projects.GetByKey(context.Background(), user, project.ProjectKey); !errors.Is(err, atelier.ErrNotFound) {
			t.Errorf("GetByKey() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("deleting twice fails with not found", func(t *testing.T) {
		f := newFixture(t)
		user := f.user(t, "ada")
		project, _ := f.scene(t, user)

		if err := f.projects.Delete(context.Background(), project); err != nil {
			t.Fatalf("first Delete() error = %v", err)
		}
		if err := f.projects.Delete(context.Background(), project); !errors.Is(err, atelier.ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})
}

func TestProjects_DeleteScene(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "ada")
	project, scene := f.scene(t, user)
	f.layer(t, scene, 1, 0)

	if err := f.projects.DeleteScene(context.Background(), scene); err != nil {
		t.Fatalf("DeleteScene() error = %v", err)
	}

	if _, err := f.projects.GetSceneByKey(context.Background(), project, scene.SceneKey); !errors.Is(err, atelier.ErrNotFound) {
		t.Errorf("GetSceneByKey() after delete error = %v, want ErrNotFound", err)
	}

	// The project survives its scene.
	if _, err := f.projects.GetByKey(context.Background(), user, project.ProjectKey); err != nil {
		t.Errorf("GetByKey() error = %v", err)
	}
}

func TestProjects_GetByKey(t *testing.T) {
	f := newFixture(t)
	ada := f.user(t, "ada")
	bob := f.user(t, "bob")
	project, _ := f.scene(t, ada)

	// Keys resolve only within the owning user.
	if _, err := f.projects.GetByKey(context.Background(), bob, project.ProjectKey); !errors.Is(err, atelier.ErrNotFound) {
		t.Errorf("GetByKey(other user) error = %v, want ErrNotFound", err)
	}

	if _, err := f.projects.GetByKey(context.Background(), ada, "no-such-key"); !errors.Is(err, atelier.ErrNotFound) {
		t.Errorf("GetByKey(unknown) error = %v, want ErrNotFound", err)
	}
}
