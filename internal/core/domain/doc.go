// Package domain defines the core domain models for Pathmark.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling. This package contains:
//
//   - Location: a resolved reference to a file-system entry (canonical
//     path plus device/inode identity)
//   - Token: the opaque durable byte sequence that references an entry
//     across process restarts and relocations
//   - Errors: domain-specific error definitions
package domain
