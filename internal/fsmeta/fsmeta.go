package fsmeta

import (
	"io/fs"
	"os"
	"time"

	"github.com/yndnr/pathmark-go/internal/core/domain"
)

// Metadata describes a file-system entry at a point in time.
type Metadata struct {
	// Name is the base name of the entry.
	Name string `json:"name"`

	// Path is the path the entry was read at.
	Path string `json:"path"`

	// Size is the entry size in bytes.
	Size int64 `json:"size"`

	// Mode holds the entry's mode and permission bits.
	Mode fs.FileMode `json:"mode"`

	// IsDir reports whether the entry is a directory.
	IsDir bool `json:"is_dir"`

	// Modified is the last modification time.
	Modified time.Time `json:"modified"`

	// Created is the creation (birth) time where the platform records
	// one; otherwise the modification time.
	Created time.Time `json:"created"`

	// Accessed is the last access time where the platform records one.
	Accessed time.Time `json:"accessed"`

	// Device is the ID of the device the entry resides on.
	Device uint64 `json:"device"`

	// Inode uniquely identifies the entry within its device.
	Inode uint64 `json:"inode"`
}

// Reader is the metadata read capability. Each call is independently
// fallible: the entry may vanish between resolution and the read.
type Reader interface {
	// Stat reads metadata for the entry at path.
	// Returns domain.ErrMetadataUnavailable when the entry does not exist.
	Stat(path string) (Metadata, error)
}

// OS reads metadata from the local file system.
type OS struct{}

// Stat implements Reader over os.Stat.
func (OS) Stat(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, domain.ErrMetadataUnavailable.WithDetails(path).WithCause(err)
		}
		return Metadata{}, domain.ErrStorageError.WithCause(err)
	}
	return FromInfo(path, info), nil
}

// FromInfo converts an fs.FileInfo into Metadata, filling
// platform-specific fields from the underlying stat structure.
func FromInfo(path string, info fs.FileInfo) Metadata {
	m := Metadata{
		Name:     info.Name(),
		Path:     path,
		Size:     info.Size(),
		Mode:     info.Mode(),
		IsDir:    info.IsDir(),
		Modified: info.ModTime(),
		Created:  info.ModTime(),
		Accessed: info.ModTime(),
	}

	fillSys(&m, info)
	return m
}

// Identity captures just the OS-level identity of the entry at path.
// Used by the codec when encoding and validating tokens.
func Identity(r Reader, path string) (domain.Location, error) {
	meta, err := r.Stat(path)
	if err != nil {
		return domain.Location{}, err
	}
	return domain.Location{
		Path:   path,
		Device: meta.Device,
		Inode:  meta.Inode,
		IsDir:  meta.IsDir,
	}, nil
}
