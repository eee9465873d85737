package atelier

import (
	"context"
	"time"

	"atelier-go/internal/model"
)

// Database provides persistence for every entity in the store. Each
// mutating method runs as one atomic transaction: constraint checks
// happen before any write, and cascades execute inside the same
// transaction as the triggering delete, so no caller ever observes a
// partial cascade. Failures wrap the error kinds in errors.go.
//
// Find* methods return (nil, nil) when the entity does not exist;
// methods documenting ErrNotFound fail instead.
type Database interface {
	// User operations

	// CreateUser inserts a new user. Fails with ErrConflict if the
	// username is taken by a live user.
	CreateUser(ctx context.Context, user model.User) (*model.User, error)

	// FindUserByUsername returns a user by exact username match.
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)

	// FindUserByID returns a user by internal id.
	FindUserByID(ctx context.Context, id int64) (*model.User, error)

	// UpdateUserCredentials replaces a user's salt, password digest and
	// recovery key in one step. Fails with ErrNotFound.
	UpdateUserCredentials(ctx context.Context, userID int64, salt, hashedPassword, recoveryKey string) error

	// DeleteUser removes a user and everything it owns: sessions, media,
	// projects, and transitively scenes, layers and sprites. Fails with
	// ErrNotFound.
	DeleteUser(ctx context.Context, userID int64) error

	// Session operations

	// CreateSession inserts an active session. Fails with ErrConflict if
	// the session key collides, ErrNotFound if the user does not exist.
	CreateSession(ctx context.Context, session model.Session) (*model.Session, error)

	// FindSessionByKey returns a session by its bearer token.
	FindSessionByKey(ctx context.Context, sessionKey string) (*model.Session, error)

	// EndSession transitions a session from active to ended, setting its
	// end time exactly once. Fails with ErrNotFound if the key is
	// unknown, ErrAlreadyEnded if the session is already inactive.
	EndSession(ctx context.Context, sessionKey string, at time.Time) error

	// Media operations

	// FindOrCreateMedia registers a media asset. If the owning user has
	// already registered content with the same hash, the existing asset
	// is returned and created is false (idempotent re-upload). Fails
	// with ErrConflict when the relative path or media key collides.
	FindOrCreateMedia(ctx context.Context, asset model.MediaAsset) (m *model.MediaAsset, created bool, err error)

	// FindMediaByKey returns a media asset by its opaque key.
	FindMediaByKey(ctx context.Context, mediaKey string) (*model.MediaAsset, error)

	// ListMediaForUser returns a user's media in creation order.
	ListMediaForUser(ctx context.Context, userID int64) ([]model.MediaAsset, error)

	// DeleteMediaByKey removes a media asset and clears the media key on
	// every sprite that references it; the sprites themselves survive.
	// Fails with ErrNotFound.
	DeleteMediaByKey(ctx context.Context, mediaKey string) error

	// Project and scene operations

	// CreateProject inserts a project. The project key must be unique
	// within the owning user; ErrConflict otherwise.
	CreateProject(ctx context.Context, project model.Project) (*model.Project, error)

	// FindProjectByKey returns a user's project by its opaque key.
	FindProjectByKey(ctx context.Context, userID int64, projectKey string) (*model.Project, error)

	// RenameProject replaces a project's title (nil clears it). Fails
	// with ErrNotFound.
	RenameProject(ctx context.Context, projectID int64, title *string) error

	// ListProjects returns a user's projects in creation order.
	ListProjects(ctx context.Context, userID int64) ([]model.Project, error)

	// DeleteProject removes a project, its scenes, and their layers and
	// sprites. Fails with ErrNotFound.
	DeleteProject(ctx context.Context, projectID int64) error

	// CreateScene inserts a scene. The scene key must be unique within
	// the owning project; ErrConflict otherwise. Fails with ErrNotFound
	// if the project does not exist.
	CreateScene(ctx context.Context, scene model.Scene) (*model.Scene, error)

	// FindSceneByKey returns a project's scene by its opaque key.
	FindSceneByKey(ctx context.Context, projectID int64, sceneKey string) (*model.Scene, error)

	// RenameScene replaces a scene's title (nil clears it). Fails with
	// ErrNotFound.
	RenameScene(ctx context.Context, sceneID int64, title *string) error

	// ListScenes returns a project's scenes in creation order.
	ListScenes(ctx context.Context, projectID int64) ([]model.Scene, error)

	// DeleteScene removes a scene and its layers and sprites. Fails with
	// ErrNotFound.
	DeleteScene(ctx context.Context, sceneID int64) error

	// Scene graph operations

	// UpsertLayer inserts or updates the layer addressed by
	// (layer.ID, layer.SceneID). Fails with ErrNotFound if the scene
	// does not exist.
	UpsertLayer(ctx context.Context, layer model.Layer) error

	// DeleteLayer removes a layer and cascade-deletes every sprite in
	// the scene whose layer field references it. Fails with ErrNotFound.
	DeleteLayer(ctx context.Context, sceneID, layerID int64) error

	// UpsertSprite inserts or updates the sprite addressed by
	// (sprite.ID, sprite.SceneID). Fails with ErrInvalidArgument if
	// sprite.Layer does not reference a layer in the same scene, or if
	// sprite.MediaKey is non-nil and does not resolve. Fails with
	// ErrNotFound if the scene does not exist.
	UpsertSprite(ctx context.Context, sprite model.Sprite) error

	// DeleteSprite removes a sprite. Fails with ErrNotFound.
	DeleteSprite(ctx context.Context, sceneID, spriteID int64) error

	// ListLayers returns a scene's layers ordered by z ascending
	// (paint order, bottom first), id breaking ties.
	ListLayers(ctx context.Context, sceneID int64) ([]model.Layer, error)

	// ListSprites returns a scene's sprites ordered by z ascending,
	// id breaking ties.
	ListSprites(ctx context.Context, sceneID int64) ([]model.Sprite, error)

	// SnapshotTo writes a consistent copy of the whole database to
	// destPath.
	SnapshotTo(destPath string) error

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
