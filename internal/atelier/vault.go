package atelier

import "io"

// Vault stores encrypted database snapshots off-host. Snapshots are
// namespaced by installation id and carry a monotonically increasing
// version so a stale local database can be detected before restore.
type Vault interface {
	// PutSnapshot stores a snapshot for an installation, replacing any
	// previous one, and records its version.
	PutSnapshot(installID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the stored snapshot for an installation to w.
	GetSnapshot(installID string, w io.Writer) error

	// SnapshotVersion returns the stored snapshot version, or 0 when no
	// snapshot exists.
	SnapshotVersion(installID string) (int64, error)

	// ValidateSetup verifies the vault backend is reachable and writable.
	ValidateSetup() error
}
