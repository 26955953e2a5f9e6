package domain

// PasswordHasher hashes and verifies account passwords.
// Hashes are self-describing strings that embed algorithm parameters and salt.
type PasswordHasher interface {
	// Hash returns a storable one-way hash of plaintext.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches hash. Implementations compare in constant time.
	Verify(hash, plaintext string) bool
}
