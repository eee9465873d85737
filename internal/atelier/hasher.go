package atelier

// Hasher derives a password digest from a password and a salt. The
// algorithm is a pluggable capability: the stores only ever compare
// digests, never passwords.
type Hasher interface {
	Hash(password, salt string) (string, error)
}
