// Package adaptive provides authenticated encryption with automatic
// algorithm selection.
//
// A single Cipher interface fronts two AEAD constructions:
//
//   - AES-256-GCM where the CPU carries AES acceleration
//   - ChaCha20-Poly1305 everywhere else
//
// Callers that need a specific construction can request one with
// NewWithType. DeriveKey turns a passphrase into a key of the right
// size for either construction.
package adaptive
