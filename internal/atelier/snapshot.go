package atelier

import (
	"fmt"
	"os"
)

// Snapshots exports encrypted copies of the scene database to a vault
// and restores them. Snapshots carry a monotonically increasing version
// per installation so a stale local database is detectable.
type Snapshots struct {
	db        Database
	vault     Vault
	encryptor Encryptor
	installID string
	logger    Logger
}

// NewSnapshots creates a snapshot service for the given installation.
func NewSnapshots(db Database, vault Vault, encryptor Encryptor, installID string, logger Logger) *Snapshots {
	return &Snapshots{
		db:        db,
		vault:     vault,
		encryptor: encryptor,
		installID: installID,
		logger:    logger,
	}
}

// Export snapshots the database, encrypts the copy, and uploads it to
// the vault under the next version. Returns the stored version.
//
// The plaintext snapshot only ever exists as a temp file on this host;
// what leaves the host is ciphertext.
func (s *Snapshots) Export() (int64, error) {
	if !s.encryptor.IsConfigured() {
		return 0, fmt.Errorf("encryption keys not configured: run key setup first")
	}

	current, err := s.vault.SnapshotVersion(s.installID)
	if err != nil {
		return 0, fmt.Errorf("checking vault snapshot version: %w", err)
	}
	version := current + 1

	plain, err := os.CreateTemp("", "atelier-snapshot-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating temp snapshot file: %w", err)
	}
	plainPath := plain.Name()
	plain.Close()
	defer os.Remove(plainPath)

	if err := s.db.SnapshotTo(plainPath); err != nil {
		return 0, fmt.Errorf("snapshotting database: %w", err)
	}

	cipher, err := os.CreateTemp("", "atelier-snapshot-*.db.age")
	if err != nil {
		return 0, fmt.Errorf("creating temp cipher file: %w", err)
	}
	cipherPath := cipher.Name()
	defer os.Remove(cipherPath)
	defer cipher.Close()

	src, err := os.Open(plainPath)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	if err := s.encryptor.Encrypt(src, cipher); err != nil {
		return 0, fmt.Errorf("encrypting snapshot: %w", err)
	}

	info, err := cipher.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat cipher file: %w", err)
	}
	if _, err := cipher.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("rewinding cipher file: %w", err)
	}

	if err := s.vault.PutSnapshot(s.installID, cipher, info.Size(), version); err != nil {
		return 0, fmt.Errorf("uploading snapshot: %w", err)
	}

	s.logger.Info("snapshot exported", "version", version, "bytes", info.Size())
	return version, nil
}

// Restore downloads the latest snapshot, unlocks the private key with
// the passphrase, and writes the decrypted database to destPath. The
// destination must not already exist; restore never overwrites a live
// database in place.
func (s *Snapshots) Restore(passphrase, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("destination %s already exists", destPath)
	}

	version, err := s.vault.SnapshotVersion(s.installID)
	if err != nil {
		return fmt.Errorf("checking vault snapshot version: %w", err)
	}
	if version == 0 {
		return fmt.Errorf("no snapshot in vault for installation %s", s.installID)
	}

	dc, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	cipher, err := os.CreateTemp("", "atelier-restore-*.db.age")
	if err != nil {
		return fmt.Errorf("creating temp cipher file: %w", err)
	}
	cipherPath := cipher.Name()
	defer os.Remove(cipherPath)

	if err := s.vault.GetSnapshot(s.installID, cipher); err != nil {
		cipher.Close()
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := cipher.Seek(0, 0); err != nil {
		cipher.Close()
		return fmt.Errorf("rewinding cipher file: %w", err)
	}

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		cipher.Close()
		return fmt.Errorf("creating destination: %w", err)
	}

	if err := dc.Decrypt(cipher, dest); err != nil {
		cipher.Close()
		dest.Close()
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}

	cipher.Close()
	if err := dest.Close(); err != nil {
		return fmt.Errorf("closing destination: %w", err)
	}

	s.logger.Info("snapshot restored", "version", version, "dest", destPath)
	return nil
}
