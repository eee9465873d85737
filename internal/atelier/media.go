package atelier

import (
	"context"
	"errors"
	"fmt"

	"atelier-go/internal/model"
)

// Media is the per-user media registry with content-hash deduplication.
type Media struct {
	db     Database
	keys   KeyGenerator
	logger Logger
}

// NewMedia creates a media library over the given database.
func NewMedia(db Database, keys KeyGenerator, logger Logger) *Media {
	return &Media{
		db:     db,
		keys:   keys,
		logger: logger,
	}
}

// Register records a media asset for a user. Registering content the
// user has already registered (same content hash) returns the existing
// asset, so re-uploads are idempotent. A relative path already used by
// different content fails with ErrConflict.
func (m *Media) Register(ctx context.Context, user *model.User, relativePath, title, contentHash string) (*model.MediaAsset, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}
	if relativePath == "" {
		return nil, fmt.Errorf("relative path is required: %w", ErrInvalidArgument)
	}
	if contentHash == "" {
		return nil, fmt.Errorf("content hash is required: %w", ErrInvalidArgument)
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		key, err := m.keys.NewKey(EntityKeyBytes)
		if err != nil {
			return nil, fmt.Errorf("generating media key: %w", err)
		}

		existing, err := m.db.FindMediaByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("checking media key: %w", err)
		}
		if existing != nil {
			continue
		}

		asset, created, err := m.db.FindOrCreateMedia(ctx, model.MediaAsset{
			MediaKey:     key,
			UserID:       user.ID,
			RelativePath: relativePath,
			Title:        title,
			HashedValue:  contentHash,
		})
		if err != nil {
			return nil, fmt.Errorf("registering media: %w", err)
		}

		if created {
			m.logger.Info("media registered", "media_key", asset.MediaKey, "path", relativePath)
		} else {
			m.logger.Debug("media deduplicated", "media_key", asset.MediaKey, "hash", contentHash)
		}
		return asset, nil
	}

	return nil, fmt.Errorf("media key collisions exhausted %d attempts: %w", keyAttempts, ErrConflict)
}

// GetByKey returns a media asset by its opaque key. Fails with
// ErrNotFound.
func (m *Media) GetByKey(ctx context.Context, mediaKey string) (*model.MediaAsset, error) {
	asset, err := m.db.FindMediaByKey(ctx, mediaKey)
	if err != nil {
		return nil, fmt.Errorf("finding media: %w", err)
	}
	if asset == nil {
		return nil, fmt.Errorf("media %q: %w", mediaKey, ErrNotFound)
	}
	return asset, nil
}

// List returns a user's registered media in creation order.
func (m *Media) List(ctx context.Context, user *model.User) ([]model.MediaAsset, error) {
	if user == nil {
		return nil, fmt.Errorf("user is required: %w", ErrInvalidArgument)
	}
	assets, err := m.db.ListMediaForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("listing media: %w", err)
	}
	return assets, nil
}

// Delete removes a media asset. Every sprite referencing it keeps its
// place in its scene with the media reference cleared to nil; sprites
// are never deleted by this path.
func (m *Media) Delete(ctx context.Context, mediaKey string) error {
	if err := m.db.DeleteMediaByKey(ctx, mediaKey); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("media %q: %w", mediaKey, ErrNotFound)
		}
		return fmt.Errorf("deleting media: %w", err)
	}

	m.logger.Info("media deleted", "media_key", mediaKey)
	return nil
}
