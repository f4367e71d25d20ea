package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/fsmeta"
)

// errRelocated stops the walk once a matching entry is found.
var errRelocated = errors.New("codec: relocation match")

// relocate searches for an entry carrying the recorded device/inode
// identity after its recorded path stopped resolving. The recorded
// parent directory is checked first (renames within a directory are
// the common case), then the configured scan root, breadth-bounded by
// scanDepth.
func (c *Codec) relocate(recorded domain.Location) (domain.Location, bool) {
	if parent, ok := recorded.ParentPath(); ok {
		if loc, found := c.scanDir(parent, recorded); found {
			return loc, true
		}
	}

	if c.scanRoot == "" {
		return domain.Location{}, false
	}
	return c.scanTree(c.scanRoot, recorded)
}

// scanDir checks the immediate entries of dir for the identity.
func (c *Codec) scanDir(dir string, recorded domain.Location) (domain.Location, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.Location{}, false
	}

	for _, entry := range entries {
		candidate := filepath.Join(dir, entry.Name())
		live, err := fsmeta.Identity(c.meta, candidate)
		if err != nil {
			continue
		}
		if recorded.SameIdentity(live) {
			return live, true
		}
	}
	return domain.Location{}, false
}

// scanTree walks root looking for the identity, pruning below scanDepth.
func (c *Codec) scanTree(root string, recorded domain.Location) (domain.Location, bool) {
	// fastwalk runs the callback from several workers; the first
	// match wins and everything else unwinds on errRelocated.
	var (
		mu    sync.Mutex
		match domain.Location
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && c.depthOf(root, path) >= c.scanDepth {
			return filepath.SkipDir
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		live := fsmeta.FromInfo(path, info)
		if live.Device == recorded.Device && live.Inode == recorded.Inode {
			mu.Lock()
			match = domain.Location{
				Path:   path,
				Device: live.Device,
				Inode:  live.Inode,
				IsDir:  live.IsDir,
			}
			mu.Unlock()
			return errRelocated
		}
		return nil
	})

	if errors.Is(err, errRelocated) {
		return match, true
	}
	return domain.Location{}, false
}

// depthOf counts path separators between root and path.
func (c *Codec) depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
