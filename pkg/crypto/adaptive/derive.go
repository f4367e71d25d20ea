package adaptive

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

// KeySize is the key length produced by DeriveKey, suitable for both
// supported constructions.
const KeySize = 32

// Argon2id parameters. Tuned for interactive use rather than bulk
// hashing; a derivation happens once per process start.
const (
	deriveTime    = 1
	deriveMemory  = 64 * 1024 // KiB
	deriveThreads = 4
)

// DeriveKey stretches a passphrase into a KeySize key using Argon2id.
// The salt should be stable per installation; the same passphrase and
// salt always yield the same key.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	if len(salt) < 8 {
		return nil, errors.New("salt must be at least 8 bytes")
	}
	return argon2.IDKey(passphrase, salt, deriveTime, deriveMemory, deriveThreads, KeySize), nil
}
