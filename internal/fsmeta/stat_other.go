//go:build !linux && !darwin

package fsmeta

import "io/fs"

// fillSys is a no-op on platforms without stat_t access. Identity
// fields stay zero; tokens encoded here degrade to canonical-path
// references with an existence check.
func fillSys(m *Metadata, info fs.FileInfo) {}
