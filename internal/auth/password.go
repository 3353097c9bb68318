package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher defines the one-way hashing contract used by the
// registration and login flows.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes passwords with bcrypt. Each call salts independently,
// so two hashes of the same plaintext differ.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a hasher with the given cost. A cost outside
// bcrypt's valid range falls back to the library default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the digest. The comparison is
// constant-time with respect to the digest content, and a malformed digest
// verifies as false rather than failing.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
