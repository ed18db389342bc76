package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// argon2id parameters: 1 pass, 64 MiB, 4 lanes, 32-byte key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// HashPassword derives an argon2id hash of password with the given per-user salt.
func HashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// CheckPassword reports whether candidate hashes to the stored value.
// Comparison is constant-time.
func CheckPassword(candidate, salt, storedHash []byte) bool {
	hash := HashPassword(candidate, salt)
	return subtle.ConstantTimeCompare(hash, storedHash) == 1
}
