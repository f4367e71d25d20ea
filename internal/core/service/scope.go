package service

import (
	"sync"
	"sync/atomic"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/fsmeta"
)

// ScopeBroker grants scoped access to a location for the duration of
// an operation. Begin returns a release function that must be called
// exactly once; releases are idempotent so a deferred call is safe.
type ScopeBroker interface {
	Begin(loc domain.Location) (release func(), err error)
}

// PosixBroker is the broker for plain POSIX file systems, where no
// per-entry grant mechanism exists. Begin verifies the entry is still
// reachable and tracks the number of open grants.
type PosixBroker struct {
	meta   fsmeta.Reader
	active atomic.Int64
}

// NewPosixBroker creates a broker reading through the given metadata
// reader. A nil reader uses the OS.
func NewPosixBroker(meta fsmeta.Reader) *PosixBroker {
	if meta == nil {
		meta = fsmeta.OS{}
	}
	return &PosixBroker{meta: meta}
}

// Begin grants access to loc. The grant fails when the entry is no
// longer reachable.
func (b *PosixBroker) Begin(loc domain.Location) (func(), error) {
	if loc.IsZero() {
		return nil, domain.ErrScopeDenied.WithDetails("empty location")
	}
	if _, err := b.meta.Stat(loc.Path); err != nil {
		return nil, domain.ErrScopeDenied.WithDetails(loc.Path).WithCause(err)
	}

	b.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			b.active.Add(-1)
		})
	}, nil
}

// Active returns the number of grants begun but not yet released.
func (b *PosixBroker) Active() int64 {
	return b.active.Load()
}
