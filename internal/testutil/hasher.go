package testutil

import "fmt"

// StubHasher produces a deterministic digest embedding both inputs, so
// tests can assert that a specific password/salt pair was hashed
// without any real key derivation.
type StubHasher struct{}

func NewStubHasher() *StubHasher {
	return &StubHasher{}
}

func (h *StubHasher) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return fmt.Sprintf("hashed(%s,%s)", password, salt), nil
}
