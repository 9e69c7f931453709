// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DeskHive Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptySecret is returned when attempting to hash an empty secret.
var ErrEmptySecret = oops.Code("AUTH_EMPTY_SECRET").Errorf("secret cannot be empty")

// CredentialSecret builds the hasher input for a user credential. The
// lowercased email is prepended so the same raw password under different
// accounts yields unrelated digests. This binds a stored digest to one
// identity; the per-call random salt is still the primary defence.
func CredentialSecret(email, password string) string {
	return strings.ToLower(email) + password
}

// PasswordHasher provides one-way credential hashing and verification.
type PasswordHasher interface {
	// Hash produces an argon2id digest of the secret. Two calls on the
	// same secret produce different digests; both verify.
	Hash(secret string) (string, error)

	// Verify reports whether the secret matches the digest. A malformed
	// or foreign-format digest verifies to false, never an error.
	Verify(secret, digest string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id digest of the secret in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	digest := argon2.IDKey([]byte(secret), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)

	return encoded, nil
}

// Verify reports whether the secret matches the encoded digest.
func (h *Argon2idHasher) Verify(secret, encodedDigest string) bool {
	parts := strings.Split(encodedDigest, "$")
	if len(parts) != 6 {
		return false
	}

	if parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	// Reject parameter values the key derivation cannot accept. Zero
	// rounds or zero parallelism make argon2.IDKey panic; a memory cost
	// past 4 GiB is never one of ours.
	if time == 0 || threads == 0 || threads > 255 {
		return false
	}
	if memory == 0 || memory > 4*1024*1024 {
		return false
	}
	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
