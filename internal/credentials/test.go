package credentials

import (
	"fmt"

	"atelier-go/internal/atelier"
)

// TestHasher is a deterministic, non-cryptographic hasher for tests.
// The output embeds both inputs so that a wrong password or a rotated
// salt produces a different digest, without paying Argon2 cost in
// every test case.
type TestHasher struct{}

var _ atelier.Hasher = (*TestHasher)(nil)

// NewTestHasher creates a new TestHasher.
func NewTestHasher() *TestHasher {
	return &TestHasher{}
}

func (h *TestHasher) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if salt == "" {
		return "", fmt.Errorf("salt must not be empty")
	}
	return fmt.Sprintf("test:%s:%s", salt, password), nil
}
