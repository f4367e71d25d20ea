//go:build linux

package fsmeta

import (
	"io/fs"
	"syscall"
	"time"
)

// fillSys extracts device/inode identity and access time from the
// Linux stat structure. Linux exposes no birth time through stat(2),
// so Created keeps the modification-time fallback.
func fillSys(m *Metadata, info fs.FileInfo) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}

	m.Device = uint64(stat.Dev)
	m.Inode = stat.Ino

	if stat.Atim.Sec != 0 {
		m.Accessed = time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
	}
}
