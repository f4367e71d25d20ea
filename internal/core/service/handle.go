package service

import (
	"context"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/fsmeta"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
	"github.com/yndnr/pathmark-go/internal/telemetry/metric"
)

// Bookmarks is the persistent token collection the handle keeps in
// sync as entries move.
type Bookmarks interface {
	Upsert(ctx context.Context, path string) (domain.Token, error)
	Rebind(ctx context.Context, oldPath, path string) (domain.Token, error)
	Remove(ctx context.Context, path string) error
}

// Resolver turns paths into locations and tokens back into locations.
type Resolver interface {
	LocationAt(path string) (domain.Location, error)
	Decode(token domain.Token) (domain.Location, bool, error)
}

// Trasher moves entries into a recoverable trash location.
type Trasher interface {
	Put(path string) (string, error)
}

// Deps bundles the collaborators a Handle needs.
type Deps struct {
	Bookmarks Bookmarks
	Codec     Resolver
	Meta      fsmeta.Reader
	Scope     ScopeBroker
	Trash     Trasher
	Logger    logger.Logger
	Metrics   *metric.Registry
}

func (d *Deps) applyDefaults() {
	if d.Meta == nil {
		d.Meta = fsmeta.OS{}
	}
	if d.Scope == nil {
		d.Scope = NewPosixBroker(d.Meta)
	}
	if d.Logger == nil {
		d.Logger = logger.Default()
	}
}

// DeleteOptions selects the delete mode.
type DeleteOptions struct {
	// Permanent unlinks the entry instead of moving it to the trash.
	Permanent bool
}

// Handle is a durable reference to a file-system entry. It stays
// valid across renames and moves as long as the entry itself survives
// somewhere the codec can find it.
type Handle struct {
	mu    sync.Mutex
	deps  Deps
	token domain.Token
	loc   domain.Location
	isDir bool

	// removeFn is swapped in tests to exercise delete failures.
	removeFn func(string) error
}

// New creates a handle for the entry at path, adding it to the
// bookmark collection. The entry must exist.
func New(ctx context.Context, deps Deps, path string) (*Handle, error) {
	deps.applyDefaults()

	loc, err := deps.Codec.LocationAt(path)
	if err != nil {
		return nil, err
	}
	token, err := deps.Bookmarks.Upsert(ctx, loc.Path)
	if err != nil {
		return nil, err
	}

	return &Handle{
		deps:     deps,
		token:    token,
		loc:      loc,
		isDir:    loc.IsDir,
		removeFn: os.RemoveAll,
	}, nil
}

// FromToken reconstructs a handle from a stored token, repairing it
// in the collection when the entry has moved or been replaced.
func FromToken(ctx context.Context, deps Deps, token domain.Token) (*Handle, error) {
	deps.applyDefaults()

	loc, stale, err := deps.Codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if stale {
		repaired, err := deps.Bookmarks.Rebind(ctx, loc.Path, loc.Path)
		if err != nil {
			return nil, err
		}
		token = repaired
	}

	return &Handle{
		deps:     deps,
		token:    token,
		loc:      loc,
		isDir:    loc.IsDir,
		removeFn: os.RemoveAll,
	}, nil
}

// Token returns the current token bytes.
func (h *Handle) Token() domain.Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token.Clone()
}

// IsDir reports whether the handle was created for a directory. The
// flag is captured at creation and not re-read.
func (h *Handle) IsDir() bool {
	return h.isDir
}

// Resolve returns the entry's current location, repairing the stored
// token when the entry has moved or been replaced since the last
// resolution.
func (h *Handle) Resolve(ctx context.Context) (domain.Location, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resolveLocked(ctx)
}

func (h *Handle) resolveLocked(ctx context.Context) (domain.Location, error) {
	if h.token.IsZero() {
		return domain.Location{}, domain.ErrInvalidReference.WithDetails("handle is unbound")
	}

	loc, stale, err := h.deps.Codec.Decode(h.token)
	if err != nil {
		return domain.Location{}, err
	}
	if stale {
		repaired, rerr := h.deps.Bookmarks.Rebind(ctx, loc.Path, loc.Path)
		if rerr != nil {
			return domain.Location{}, rerr
		}
		h.deps.Logger.Debug("handle repaired",
			"from", h.loc.Path,
			"to", loc.Path)
		h.token = repaired
	}

	h.loc = loc
	return loc, nil
}

// Path returns the entry's current canonical path.
func (h *Handle) Path(ctx context.Context) (string, error) {
	loc, err := h.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return loc.Path, nil
}

// Name returns the entry's current base name.
func (h *Handle) Name(ctx context.Context) (string, error) {
	loc, err := h.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return loc.Name(), nil
}

// Equal reports whether both handles currently resolve to the same
// canonical path.
func (h *Handle) Equal(ctx context.Context, other *Handle) (bool, error) {
	if other == nil {
		return false, nil
	}
	if h == other {
		return true, nil
	}

	mine, err := h.Resolve(ctx)
	if err != nil {
		return false, err
	}
	theirs, err := other.Resolve(ctx)
	if err != nil {
		return false, err
	}
	return mine.Equal(theirs), nil
}

// Metadata reads the entry's current metadata under a scope grant.
func (h *Handle) Metadata(ctx context.Context) (fsmeta.Metadata, error) {
	loc, err := h.Resolve(ctx)
	if err != nil {
		return fsmeta.Metadata{}, err
	}

	release, err := h.deps.Scope.Begin(loc)
	if err != nil {
		return fsmeta.Metadata{}, err
	}
	defer release()

	return h.deps.Meta.Stat(loc.Path)
}

// Size returns the entry's size in bytes.
func (h *Handle) Size(ctx context.Context) (int64, error) {
	md, err := h.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return md.Size, nil
}

// Mode returns the entry's file mode.
func (h *Handle) Mode(ctx context.Context) (fs.FileMode, error) {
	md, err := h.Metadata(ctx)
	if err != nil {
		return 0, err
	}
	return md.Mode, nil
}

// DateModified returns the entry's modification time.
func (h *Handle) DateModified(ctx context.Context) (time.Time, error) {
	md, err := h.Metadata(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return md.Modified, nil
}

// DateCreated returns the entry's creation time where the platform
// records one, falling back to the modification time otherwise.
func (h *Handle) DateCreated(ctx context.Context) (time.Time, error) {
	md, err := h.Metadata(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if md.Created.IsZero() {
		return md.Modified, nil
	}
	return md.Created, nil
}

// Parent returns a handle to the containing directory, or nil when
// the entry is the file-system root. The lookup runs under a scope
// grant, like every other access through the handle.
func (h *Handle) Parent(ctx context.Context) (*Handle, error) {
	loc, err := h.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	parentPath, ok := loc.ParentPath()
	if !ok {
		return nil, nil
	}

	release, err := h.deps.Scope.Begin(loc)
	if err != nil {
		return nil, err
	}
	defer release()

	return New(ctx, h.deps, parentPath)
}

// Delete removes the entry. The default mode moves it to the trash
// and rebinds the handle to the trashed location, so the entry can
// still be reached and restored. Permanent mode unlinks it and leaves
// the handle unbound; when the unlink fails the handle keeps its
// current binding.
func (h *Handle) Delete(ctx context.Context, opts DeleteOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	mode := "trash"
	if opts.Permanent {
		mode = "permanent"
	}

	loc, err := h.resolveLocked(ctx)
	if err != nil {
		h.deps.Metrics.Delete(mode, "error")
		return err
	}

	release, err := h.deps.Scope.Begin(loc)
	if err != nil {
		h.deps.Metrics.Delete(mode, "error")
		return err
	}
	defer release()

	if opts.Permanent {
		return h.deletePermanentLocked(ctx, loc)
	}
	return h.deleteToTrashLocked(ctx, loc)
}

func (h *Handle) deletePermanentLocked(ctx context.Context, loc domain.Location) error {
	if err := h.removeFn(loc.Path); err != nil {
		// The entry survived, so the handle keeps its binding.
		h.deps.Metrics.Delete("permanent", "error")
		return domain.ErrDeleteFailed.WithDetails(loc.Path).WithCause(err)
	}

	if err := h.deps.Bookmarks.Remove(ctx, loc.Path); err != nil {
		h.deps.Logger.Warn("deleted entry still bookmarked", "path", loc.Path, "error", err)
	}

	h.token = nil
	h.loc = domain.Location{}
	h.deps.Metrics.Delete("permanent", "ok")
	h.deps.Logger.Info("entry deleted", "path", loc.Path)
	return nil
}

func (h *Handle) deleteToTrashLocked(ctx context.Context, loc domain.Location) error {
	if h.deps.Trash == nil {
		h.deps.Metrics.Delete("trash", "error")
		return domain.ErrDeleteFailed.WithDetails("no trash configured")
	}

	target, err := h.deps.Trash.Put(loc.Path)
	if err != nil {
		h.deps.Metrics.Delete("trash", "error")
		return err
	}

	token, err := h.deps.Bookmarks.Rebind(ctx, loc.Path, target)
	if err != nil {
		h.deps.Metrics.Delete("trash", "error")
		return err
	}

	newLoc, err := h.deps.Codec.LocationAt(target)
	if err != nil {
		h.deps.Metrics.Delete("trash", "error")
		return err
	}

	h.token = token
	h.loc = newLoc
	h.deps.Metrics.Delete("trash", "ok")
	h.deps.Logger.Info("entry moved to trash", "path", loc.Path, "target", target)
	return nil
}
