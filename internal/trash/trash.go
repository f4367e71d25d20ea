package trash

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
)

const (
	filesDir = "files"
	infoDir  = "info"
)

// Bin is a trash directory. The zero value is not usable; construct
// with Open.
type Bin struct {
	root   string
	logger logger.Logger
}

// Option configures a Bin.
type Option func(*Bin)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bin) { b.logger = l }
}

// DefaultDir returns the conventional user trash location.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "Trash")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "Trash")
	}
	return filepath.Join(home, ".local", "share", "Trash")
}

// Open prepares a trash directory at root, creating the files/ and
// info/ subdirectories as needed.
func Open(root string, opts ...Option) (*Bin, error) {
	if root == "" {
		root = DefaultDir()
	}
	b := &Bin{
		root:   root,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, sub := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o700); err != nil {
			return nil, domain.ErrDeleteFailed.WithDetails("trash dir "+root).WithCause(err)
		}
	}
	return b, nil
}

// Root returns the trash root directory.
func (b *Bin) Root() string {
	return b.root
}

// Put moves the entry at path into the trash and returns its new
// location under files/. The original path is recorded in a
// .trashinfo file so the entry can be restored.
func (b *Bin) Put(path string) (string, error) {
	name := filepath.Base(path)
	target, infoPath, err := b.reserve(name)
	if err != nil {
		return "", err
	}

	if err := writeInfo(infoPath, path, time.Now()); err != nil {
		return "", domain.ErrDeleteFailed.WithDetails(path).WithCause(err)
	}

	if err := os.Rename(path, target); err != nil {
		// Roll back the info record so no orphan accumulates.
		_ = os.Remove(infoPath)
		return "", domain.ErrDeleteFailed.WithDetails(path).WithCause(err)
	}

	b.logger.Debug("entry moved to trash", "path", path, "target", target)
	return target, nil
}

// Restore moves a trashed entry back to its recorded original path.
// The trashed path must be one returned by Put.
func (b *Bin) Restore(trashedPath string) (string, error) {
	name := filepath.Base(trashedPath)
	infoPath := filepath.Join(b.root, infoDir, name+".trashinfo")

	original, err := readInfo(infoPath)
	if err != nil {
		return "", domain.ErrDeleteFailed.WithDetails(trashedPath).WithCause(err)
	}

	if err := os.Rename(trashedPath, original); err != nil {
		return "", domain.ErrDeleteFailed.WithDetails(trashedPath).WithCause(err)
	}
	_ = os.Remove(infoPath)

	b.logger.Debug("entry restored from trash", "original", original)
	return original, nil
}

// reserve picks a collision-free name under files/ and returns the
// target path together with its matching info path.
func (b *Bin) reserve(name string) (string, string, error) {
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			candidate = fmt.Sprintf("%s.%d%s", base, i, ext)
		}

		target := filepath.Join(b.root, filesDir, candidate)
		infoPath := filepath.Join(b.root, infoDir, candidate+".trashinfo")

		if _, err := os.Lstat(target); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", "", domain.ErrDeleteFailed.WithCause(err)
		}
		if _, err := os.Lstat(infoPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", "", domain.ErrDeleteFailed.WithCause(err)
		}
		return target, infoPath, nil
	}
}

func writeInfo(infoPath, originalPath string, when time.Time) error {
	content := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		url.PathEscape(originalPath), when.Format("2006-01-02T15:04:05"))
	return os.WriteFile(infoPath, []byte(content), 0o600)
}

func readInfo(infoPath string) (string, error) {
	data, err := os.ReadFile(infoPath)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if rest, ok := strings.CutPrefix(line, "Path="); ok {
			return url.PathUnescape(rest)
		}
	}
	return "", fmt.Errorf("no Path entry in %s", infoPath)
}
