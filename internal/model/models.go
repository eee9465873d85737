package model

import "time"

// User is the root of the ownership chain. Everything else in the store
// hangs off a user and is removed when the user is removed.
type User struct {
	ID             int64
	Username       string // unique
	Salt           string
	HashedPassword string
	RecoveryKey    string
	CreatedTime    time.Time
}

// Session is a login session for a user. Sessions move from active to
// ended exactly once; EndTime is nil until that transition happens.
type Session struct {
	ID         int64
	UserID     int64
	SessionKey string // unique bearer token
	Active     bool
	StartTime  time.Time
	EndTime    *time.Time
}

// MediaAsset is registered media metadata. Content is addressed by
// HashedValue and deduplicated per user; the bytes themselves live
// outside the store.
type MediaAsset struct {
	ID           int64
	MediaKey     string // unique 16-char opaque token
	UserID       int64
	RelativePath string // globally unique
	Title        string
	HashedValue  string // content hash; unique per (user, hashed_value)
}

// Project groups scenes under a user. ProjectKey is an opaque token
// unique within the owning user, not globally.
type Project struct {
	ID          int64
	ProjectKey  string
	UserID      int64
	Title       *string
	CreatedTime time.Time
}

// Scene is a canvas within a project. SceneKey is unique within the
// owning project.
type Scene struct {
	ID          int64
	SceneKey    string
	ProjectID   int64
	Title       *string
	Width       int64
	Height      int64
	CreatedTime time.Time
}

// Layer is addressed by the composite key (ID, SceneID); ID is only
// unique within its scene. Lower z paints first.
type Layer struct {
	ID      int64
	SceneID int64
	Title   *string
	Z       int64
	Visible bool
	Locked  bool
}

// Sprite is addressed by the composite key (ID, SceneID). Layer holds
// the scoped id of a Layer in the same scene. MediaKey is nil when the
// sprite has no media or its media was deleted. R/G/B/A form an
// optional color tint.
type Sprite struct {
	ID       int64
	SceneID  int64
	Layer    int64
	MediaKey *string
	R        *float64
	G        *float64
	B        *float64
	A        *float64
	X        float64
	Y        float64
	W        float64
	H        float64
	Z        int64
}
