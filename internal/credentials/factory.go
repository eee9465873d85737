package credentials

import (
	"fmt"

	"atelier-go/internal/atelier"
	"atelier-go/internal/config"
)

// NewHasherFromConfig creates a Hasher based on the configuration type.
func NewHasherFromConfig(cfg config.CredentialsConfig) (atelier.Hasher, error) {
	switch cfg.Type {
	case "argon2id", "":
		return NewArgon2idHasher(), nil
	case "test":
		return NewTestHasher(), nil
	default:
		return nil, fmt.Errorf("unknown credentials type: %q", cfg.Type)
	}
}
