package domain

import (
	"path/filepath"
)

// Location is a resolved reference to a file-system entry: a canonical
// absolute path plus enough OS-level identity (device and inode) to
// recognize the entry after renames or in-place replacement.
//
// A Location is immutable once obtained. Two locations are considered
// equal when their paths are equal; identity fields only participate in
// staleness detection.
type Location struct {
	// Path is the canonical absolute path of the entry.
	Path string `json:"path"`

	// Device is the ID of the device the entry resides on (st_dev).
	Device uint64 `json:"device"`

	// Inode uniquely identifies the entry within its device (st_ino).
	Inode uint64 `json:"inode"`

	// IsDir reports whether the entry is a directory.
	IsDir bool `json:"is_dir"`
}

// NormalizePath converts a path to its canonical absolute form.
// Relative paths are resolved against the current working directory.
func NormalizePath(path string) (string, error) {
	if path == "" {
		return "", ErrInvalidArgument.WithDetails("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidArgument.WithCause(err)
	}
	return filepath.Clean(abs), nil
}

// IsZero reports whether the location is the zero value (unbound).
func (l Location) IsZero() bool {
	return l.Path == ""
}

// Name returns the base name of the entry.
func (l Location) Name() string {
	if l.Path == "" {
		return ""
	}
	return filepath.Base(l.Path)
}

// Equal reports whether two locations reference the same path.
// Token bytes and identity fields do not participate: distinct tokens
// for the same path compare equal until deduplication catches up.
func (l Location) Equal(other Location) bool {
	return l.Path != "" && l.Path == other.Path
}

// SameIdentity reports whether two locations carry the same OS-level
// identity (device and inode pair).
func (l Location) SameIdentity(other Location) bool {
	return l.Device == other.Device && l.Inode == other.Inode
}

// HasIdentity reports whether OS-level identity was captured for the
// location. Identity is unavailable on platforms without stat_t access.
func (l Location) HasIdentity() bool {
	return l.Device != 0 || l.Inode != 0
}

// ParentPath returns the path of the containing directory and true, or
// ("", false) when the location is a filesystem root.
func (l Location) ParentPath() (string, bool) {
	if l.Path == "" {
		return "", false
	}
	dir := filepath.Dir(l.Path)
	if dir == l.Path {
		return "", false
	}
	return dir, true
}
