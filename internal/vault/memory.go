package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"atelier-go/internal/atelier"
)

// MemoryVault is an in-memory implementation of the Vault interface,
// useful for testing. Safe for concurrent use.
type MemoryVault struct {
	snapshots map[string][]byte
	versions  map[string]int64
	mu        sync.RWMutex
}

var _ atelier.Vault = (*MemoryVault)(nil)

// NewMemoryVault creates a new in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

func (m *MemoryVault) PutSnapshot(installID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[installID] = data
	m.versions[installID] = version
	return nil
}

func (m *MemoryVault) GetSnapshot(installID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[installID]
	if !ok {
		return fmt.Errorf("no snapshot found for installation: %s", installID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// SnapshotVersion returns 0 when no snapshot has been stored.
func (m *MemoryVault) SnapshotVersion(installID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[installID], nil
}

// ValidateSetup always succeeds for the in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}
