package atelier

import "io"

// Encryptor protects database snapshots before they leave the host.
// Encryption needs only the public key; decryption requires a
// passphrase to unlock the private key for the session.
type Encryptor interface {
	// GenerateKeys performs one-time key generation: a key pair is
	// created, the public key stored in plaintext, and the private key
	// encrypted with the passphrase.
	GenerateKeys(passphrase string) error

	// Encrypt encrypts data read from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key with the passphrase and returns a
	// DecryptionContext usable for the rest of the session. A wrong
	// passphrase fails.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files are in place.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the
// duration of a restore. The unlocked key is never written to disk.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
