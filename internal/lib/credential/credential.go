// Package credential implements safe hashing and verification of account passwords.
//
// SetCredential derives a PBKDF2-SHA256 digest over the plaintext with a fresh
// random salt and returns both for storage, so the plaintext is never persisted.
// Verify recomputes the digest with the stored salt and compares in constant time.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltLen is 256 bits of randomness per credential.
	saltLen = 32
	keyLen  = 32
	iters   = 20000
)

// SetCredential hashes the plaintext with a newly generated salt.
//
// An empty plaintext is the explicit "remove password" operation: both returned
// slices are nil and no error is reported.
func SetCredential(plaintext string) (hash, salt []byte, err error) {
	const op = "credential.SetCredential"
	if plaintext == "" {
		return nil, nil, nil
	}
	salt = make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	hash = pbkdf2.Key([]byte(plaintext), salt, iters, keyLen, sha256.New)
	return hash, salt, nil
}

// Verify reports whether plaintext matches the stored hash/salt pair.
//
// A missing or malformed hash or salt means "no credential set" and yields
// false rather than an error.
func Verify(plaintext string, hash, salt []byte) bool {
	if len(hash) != keyLen || len(salt) != saltLen {
		return false
	}
	computed := pbkdf2.Key([]byte(plaintext), salt, iters, keyLen, sha256.New)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}
