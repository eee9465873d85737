package atelier

import "errors"

// Every failure surfaced by the stores wraps exactly one of these kinds,
// so callers can branch with errors.Is without parsing messages.
var (
	// ErrConflict marks a uniqueness violation: duplicate username,
	// duplicate (user, content hash), duplicate relative path, or a
	// colliding opaque key.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a reference to an entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks bad credentials, an invalid or ended
	// session, or a wrong recovery key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument marks a rejected input: non-positive canvas
	// size, or a sprite referencing a layer or media key that does not
	// resolve.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyEnded marks an end-session call on a session that has
	// already been ended. Ending is one-way and never silently no-ops.
	ErrAlreadyEnded = errors.New("session already ended")
)
