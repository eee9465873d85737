package atelier

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Clock abstracts time retrieval so store logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Token sizes, in random bytes before hex encoding. Entity keys are the
// 16-character opaque tokens callers address media, projects and scenes by.
const (
	EntityKeyBytes   = 8
	SessionKeyBytes  = 24
	SaltBytes        = 16
	RecoveryKeyBytes = 16
)

// KeyGenerator mints opaque random tokens so tests are deterministic.
type KeyGenerator interface {
	// NewKey returns a hex token of 2*nbytes characters.
	NewKey(nbytes int) (string, error)
}

// RandomKeyGenerator produces cryptographically random tokens.
type RandomKeyGenerator struct{}

func (RandomKeyGenerator) NewKey(nbytes int) (string, error) {
	if nbytes < 8 {
		return "", fmt.Errorf("key size too small: %d bytes", nbytes)
	}
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
