package credentials

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"cardbank/internal/banking/domain"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// scryptKeyLen matches the key length of the legacy "scrypt:N:r:p" hashes.
const scryptKeyLen = 64

var pbkdf2Digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// Hasher creates bcrypt hashes and verifies bcrypt plus legacy scrypt/pbkdf2 hashes.
type Hasher struct {
	cost int
}

var _ domain.PasswordHasher = (*Hasher)(nil)

// NewHasher creates a Hasher. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password cannot be longer than %d bytes", domain.ErrWeakCredential, maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hashed. Unknown or malformed hashes never match.
func (h *Hasher) Verify(hashed, plaintext string) bool {
	switch {
	case strings.HasPrefix(hashed, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
	case strings.HasPrefix(hashed, "scrypt:"):
		return verifyScrypt(hashed, plaintext)
	case strings.HasPrefix(hashed, "pbkdf2:"):
		return verifyPBKDF2(hashed, plaintext)
	default:
		return false
	}
}

// splitLegacy splits "method$salt$hexdigest".
func splitLegacy(hashed string) (method, salt string, digest []byte, ok bool) {
	parts := strings.SplitN(hashed, "$", 3)
	if len(parts) != 3 || parts[1] == "" {
		return "", "", nil, false
	}
	digest, err := hex.DecodeString(parts[2])
	if err != nil || len(digest) == 0 {
		return "", "", nil, false
	}
	return parts[0], parts[1], digest, true
}

// verifyScrypt checks "scrypt:N:r:p$salt$hex".
func verifyScrypt(hashed, plaintext string) bool {
	method, salt, digest, ok := splitLegacy(hashed)
	if !ok {
		return false
	}
	params := strings.Split(method, ":")
	if len(params) != 4 {
		return false
	}
	n, errN := strconv.Atoi(params[1])
	r, errR := strconv.Atoi(params[2])
	p, errP := strconv.Atoi(params[3])
	if errN != nil || errR != nil || errP != nil {
		return false
	}
	key, err := scrypt.Key([]byte(plaintext), []byte(salt), n, r, p, scryptKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, digest) == 1
}

// verifyPBKDF2 checks "pbkdf2:digest:iterations$salt$hex".
func verifyPBKDF2(hashed, plaintext string) bool {
	method, salt, digest, ok := splitLegacy(hashed)
	if !ok {
		return false
	}
	params := strings.Split(method, ":")
	if len(params) != 3 {
		return false
	}
	newHash, known := pbkdf2Digests[params[1]]
	if !known {
		return false
	}
	iterations, err := strconv.Atoi(params[2])
	if err != nil || iterations < 1 {
		return false
	}
	key := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, newHash().Size(), newHash)
	return subtle.ConstantTimeCompare(key, digest) == 1
}
