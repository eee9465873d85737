package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"atelier-go/internal/atelier"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. It stores one snapshot per installation in a directory
// structure:
//
//	<root>/
//	  snapshots/
//	    <installID>.db.age    (encrypted snapshot)
//	    <installID>.version   (version marker)
type FileSystemVault struct {
	root         string
	snapshotsDir string
}

var _ atelier.Vault = (*FileSystemVault)(nil)

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	snapshotsDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshots directory: %w", err)
	}

	return &FileSystemVault{
		root:         root,
		snapshotsDir: snapshotsDir,
	}, nil
}

// PutSnapshot stores the snapshot for an installation, replacing any
// previous one. The snapshot is written atomically (temp file plus
// rename) before the version marker is updated, so a reader never sees
// a new version pointing at a half-written snapshot.
func (v *FileSystemVault) PutSnapshot(installID string, r io.Reader, size int64, version int64) error {
	destPath := filepath.Join(v.snapshotsDir, installID+".db.age")
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionPath := filepath.Join(v.snapshotsDir, installID+".version")
	versionData := strconv.FormatInt(version, 10)
	return os.WriteFile(versionPath, []byte(versionData), 0644)
}

// GetSnapshot retrieves the snapshot for an installation and writes it to w.
func (v *FileSystemVault) GetSnapshot(installID string, w io.Writer) error {
	srcPath := filepath.Join(v.snapshotsDir, installID+".db.age")
	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no snapshot found for installation: %s", installID)
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns the stored snapshot version for an
// installation, or 0 if no snapshot has been stored.
func (v *FileSystemVault) SnapshotVersion(installID string) (int64, error) {
	versionPath := filepath.Join(v.snapshotsDir, installID+".version")
	data, err := os.ReadFile(versionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root is not a directory: %s", v.root)
	}

	info, err = os.Stat(v.snapshotsDir)
	if err != nil {
		return fmt.Errorf("snapshots directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("snapshots path is not a directory: %s", v.snapshotsDir)
	}
	return nil
}

// writeFile writes data from r to destPath using a temp file in the
// same directory followed by an atomic rename.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing snapshot data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}
