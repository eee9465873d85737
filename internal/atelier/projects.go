package atelier

import (
	"context"
	"fmt"

	"atelier-go/internal/model"
)

// Projects manages projects and the scenes within them.
type Projects struct {
	db     Database
	keys   KeyGenerator
	clock  Clock
	logger Logger
}

// NewProjects creates a project store over the given database.
func NewProjects(db Database, keys KeyGenerator, clock Clock, logger Logger) *Projects {
	return &Projects{
		db:     db,
		keys:   keys,
		clock:  clock,
		logger: logger,
	}
}

// Create allocates a project for the user with a fresh opaque project
// key. Project keys are unique within the owning user, not globally.
func (p *Projects) Create(ctx context.Context, user *model.User, title *string) (*model.Project, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		key, err := p.keys.NewKey(EntityKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generating project key: %w", err)
		}

		existing, err := p.db.FindProjectByKey(ctx, user.ID, key)
		if err != nil {
			return nil, fmt.Errorf("checking project key: %w", err)
		}
		if existing != nil {
			continue
		}

		project, err := p.db.CreateProject(ctx, model.Project{
			ProjectKey:  key,
			UserID:      user.ID,
			Title:       title,
			CreatedTime: p.clock.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating project: %w", err)
		}

		p.logger.Info("project created", "project_key", project.ProjectKey)
		return project, nil
	}

	return nil, fmt.Errorf("project key collisions exhausted %d attempts: %w", keyAttempts, ErrConflict)
}

// CreateScene allocates a scene inside the project. Width and height
// are the canvas size and must both be positive.
func (p *Projects) CreateScene(ctx context.Context, project *model.Project, title *string, width, height int64) (*model.Scene, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required: %w", ErrInvalidArgument)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d must be positive: %w", width, height, ErrInvalidArgument)
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		key, err := p.keys.NewKey(EntityKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generating scene key: %w", err)
		}

		existing, err := p.db.FindSceneByKey(ctx, project.ID, key)
		if err != nil {
			return nil, fmt.Errorf("checking scene key: %w", err)
		}
		if existing != nil {
			continue
		}

		scene, err := p.db.CreateScene(ctx, model.Scene{
			SceneKey:    key,
			ProjectID:   project.ID,
			Title:       title,
			Width:       width,
			Height:      height,
			CreatedTime: p.clock.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("creating scene: %w", err)
		}

		p.logger.Info("scene created", "scene_key", scene.SceneKey, "size", fmt.Sprintf("%dx%d", width, height))
		return scene, nil
	}

	return nil, fmt.Errorf("scene key collisions exhausted %d attempts: %w", keyAttempts, ErrConflict)
}

// Rename replaces a project's title; nil clears it.
func (p *Projects) Rename(ctx context.Context, project *model.Project, title *string) error {
	if project == nil {
		return fmt.Errorf("project is required: %w", ErrInvalidArgument)
	}
	if err := p.db.RenameProject(ctx, project.ID, title); err != nil {
		return fmt.Errorf("renaming project: %w", err)
	}
	return nil
}

// RenameScene replaces a scene's title; nil clears it.
func (p *Projects) RenameScene(ctx context.Context, scene *model.Scene, title *string) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}
	if err := p.db.RenameScene(ctx, scene.ID, title); err != nil {
		return fmt.Errorf("renaming scene: %w", err)
	}
	return nil
}

// Delete removes a project, cascading to all of its scenes and their
// layers and sprites in one transaction.
func (p *Projects) Delete(ctx context.Context, project *model.Project) error {
	if project == nil {
		return fmt.Errorf("project is required: %w", ErrInvalidArgument)
	}
	if err := p.db.DeleteProject(ctx, project.ID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	p.logger.Info("project deleted", "project_key", project.ProjectKey)
	return nil
}

// DeleteScene removes a scene, cascading to its layers and sprites.
func (p *Projects) DeleteScene(ctx context.Context, scene *model.Scene) error {
	if scene == nil {
		return fmt.Errorf("scene is required: %w", ErrInvalidArgument)
	}
	if err := p.db.DeleteScene(ctx, scene.ID); err != nil {
		return fmt.Errorf("deleting scene: %w", err)
	}

	p.logger.Info("scene deleted", "scene_key", scene.SceneKey)
	return nil
}

// List returns the user's projects in creation order.
func (p *Projects) List(ctx context.Context, user *model.User) ([]model.Project, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}
	projects, err := p.db.ListProjects(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// ListScenes returns the project's scenes in creation order.
func (p *Projects) ListScenes(ctx context.Context, project *model.Project) ([]model.Scene, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required: %w", ErrInvalidArgument)
	}
	scenes, err := p.db.ListScenes(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	return scenes, nil
}

// GetByKey returns a user's project by its opaque key. Fails with
// ErrNotFound.
func (p *Projects) GetByKey(ctx context.Context, user *model.User, projectKey string) (*model.Project, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}
	project, err := p.db.FindProjectByKey(ctx, user.ID, projectKey)
	if err != nil {
		return nil, fmt.Errorf("finding project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %q: %w", projectKey, ErrNotFound)
	}
	return project, nil
}

// GetSceneByKey returns a project's scene by its opaque key. Fails with
// ErrNotFound.
func (p *Projects) GetSceneByKey(ctx context.Context, project *model.Project, sceneKey string) (*model.Scene, error) {
	if project == nil {
		return nil, fmt.Errorf("project is required: %w", ErrInvalidArgument)
	}
	scene, err := p.db.FindSceneByKey(ctx, project.ID, sceneKey)
	if err != nil {
		return nil, fmt.Errorf("finding scene: %w", err)
	}
	if scene == nil {
		return nil, fmt.Errorf("scene %q: %w", sceneKey, ErrNotFound)
	}
	return scene, nil
}
