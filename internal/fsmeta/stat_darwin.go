//go:build darwin

package fsmeta

import (
	"io/fs"
	"syscall"
	"time"
)

// fillSys extracts device/inode identity, birth time, and access time
// from the Darwin stat structure.
func fillSys(m *Metadata, info fs.FileInfo) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	m.Device = uint64(stat.Dev)
	m.Inode = stat.Ino

	if stat.Birthtimespec.Sec != 0 {
		m.Created = time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
	}
	if stat.Atimespec.Sec != 0 {
		m.Accessed = time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec)
	}
}
