// Package fsmeta reads file-system entry metadata for Pathmark.
//
// It provides the "read metadata at path" capability consumed by the
// handle layer: size, timestamps, mode bits, and the device/inode
// identity the token codec uses to recognize an entry after renames.
//
// Creation and access times are platform-specific; on platforms where
// a birth time is unavailable the modification time is reported
// instead.
package fsmeta
