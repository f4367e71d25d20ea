package store

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/yndnr/pathmark-go/internal/core/codec"
	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
	"github.com/yndnr/pathmark-go/internal/telemetry/metric"
	"github.com/yndnr/pathmark-go/pkg/cmap"
)

// BookmarksKey is the settings value name holding the collection.
const BookmarksKey = "bookmarks"

// Collection frame layout (big-endian):
//
//	magic  4  "PMBK"
//	count  4  number of entries
//	entry  *  uint32 length + token bytes, repeated count times
const (
	collectionMagic = "PMBK"
	collectionHdr   = 8

	// maxTokenLen bounds a single entry when parsing, keeping a
	// corrupt count field from driving huge allocations.
	maxTokenLen = 1 << 20
)

// Settings is the durable value namespace the collection persists to.
type Settings interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, value []byte) error
}

// TokenCodec mints and resolves bookmark tokens.
type TokenCodec interface {
	LocationAt(path string) (domain.Location, error)
	Encode(loc domain.Location, opts codec.EncodeOptions) (domain.Token, error)
	Decode(token domain.Token) (domain.Location, bool, error)
}

// Bookmark pairs a stored token with the location it currently
// resolves to.
type Bookmark struct {
	Token    domain.Token
	Location domain.Location
	Stale    bool
}

// Store is the persistent bookmark collection.
type Store struct {
	mu       sync.Mutex
	settings Settings
	codec    TokenCodec
	logger   logger.Logger
	metrics  *metric.Registry

	// pathCache maps resolved canonical paths to their token from the
	// last load, short-circuiting repeat FindByPath calls.
	pathCache *cmap.Map[string, domain.Token]
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches the metric registry.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a Store over the given settings namespace and codec.
func New(settings Settings, tc TokenCodec, opts ...Option) *Store {
	s := &Store{
		settings:  settings,
		codec:     tc,
		logger:    logger.Default(),
		pathCache: cmap.New[string, domain.Token](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection. A missing value is an empty collection.
func (s *Store) Load(ctx context.Context) ([]domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

// Save replaces the whole collection.
func (s *Store) Save(ctx context.Context, tokens []domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, tokens)
}

// Upsert ensures a bookmark exists for path and returns its token.
// When the collection already holds a bookmark resolving to the same
// canonical path, that existing token is returned unchanged.
func (s *Store) Upsert(ctx context.Context, path string) (domain.Token, error) {
	loc, err := s.codec.LocationAt(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	kept, existing, pruned := s.scanLocked(tokens, loc.Path)
	if existing != nil {
		s.metrics.DedupHit()
		if pruned > 0 {
			if err := s.saveLocked(ctx, kept); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	token, err := s.codec.Encode(loc, codec.EncodeOptions{})
	if err != nil {
		s.logger.Warn("bookmark encode failed", "path", loc.Path, "error", err)
		return nil, err
	}

	if err := s.saveLocked(ctx, append(kept, token)); err != nil {
		return nil, err
	}

	s.metrics.Upsert()
	s.pathCache.Set(loc.Path, token)
	s.logger.Debug("bookmark added", "path", loc.Path)
	return token, nil
}

// FindByPath returns the bookmark token resolving to path, if one is
// stored. Entries that no longer resolve are pruned as a side effect.
func (s *Store) FindByPath(ctx context.Context, path string) (domain.Token, bool, error) {
	canonical, err := domain.NormalizePath(path)
	if err != nil {
		return nil, false, err
	}

	if token, ok := s.pathCache.Get(canonical); ok {
		// Verify the cached token still resolves to the same path.
		if loc, _, err := s.codec.Decode(token); err == nil && loc.Path == canonical {
			return token, true, nil
		}
		s.pathCache.Delete(canonical)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return nil, false, err
	}

	kept, found, pruned := s.scanLocked(tokens, canonical)
	if pruned > 0 {
		if err := s.saveLocked(ctx, kept); err != nil {
			return nil, false, err
		}
	}
	if found == nil {
		return nil, false, nil
	}
	s.pathCache.Set(canonical, found)
	return found, true, nil
}

// Rebind replaces the bookmark resolving to oldPath with a freshly
// minted token for path, preserving the entry's position. It is used
// after an entry moves (trash, rename) and when repairing a stale
// token. When no entry matches oldPath the new token is appended.
func (s *Store) Rebind(ctx context.Context, oldPath, path string) (domain.Token, error) {
	loc, err := s.codec.LocationAt(path)
	if err != nil {
		return nil, err
	}
	token, err := s.codec.Encode(loc, codec.EncodeOptions{})
	if err != nil {
		return nil, err
	}

	canonicalOld, err := domain.NormalizePath(oldPath)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	replaced := false
	kept := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		decoded, _, derr := s.codec.Decode(t)
		if derr == nil && decoded.Path == canonicalOld && !replaced {
			kept = append(kept, token)
			replaced = true
			continue
		}
		kept = append(kept, t)
	}
	if !replaced {
		kept = append(kept, token)
	}

	if err := s.saveLocked(ctx, kept); err != nil {
		return nil, err
	}

	s.metrics.Repair()
	s.pathCache.Delete(canonicalOld)
	s.pathCache.Set(loc.Path, token)
	s.logger.Debug("bookmark rebound", "from", canonicalOld, "to", loc.Path)
	return token, nil
}

// Remove drops the bookmark resolving to path. Removing an absent
// path is a no-op.
func (s *Store) Remove(ctx context.Context, path string) error {
	canonical, err := domain.NormalizePath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return err
	}

	kept := make([]domain.Token, 0, len(tokens))
	removed := false
	for _, t := range tokens {
		decoded, _, derr := s.codec.Decode(t)
		if derr == nil && decoded.Path == canonical {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	if !removed {
		return nil
	}

	if err := s.saveLocked(ctx, kept); err != nil {
		return err
	}
	s.pathCache.Delete(canonical)
	return nil
}

// List resolves every stored bookmark. Entries that no longer resolve
// are pruned from the collection and omitted from the result.
func (s *Store) List(ctx context.Context) ([]Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}

	bookmarks := make([]Bookmark, 0, len(tokens))
	kept := make([]domain.Token, 0, len(tokens))
	pruned := 0
	for _, t := range tokens {
		loc, stale, derr := s.codec.Decode(t)
		if derr != nil {
			pruned++
			continue
		}
		kept = append(kept, t)
		bookmarks = append(bookmarks, Bookmark{Token: t, Location: loc, Stale: stale})
	}

	if pruned > 0 {
		if err := s.saveLocked(ctx, kept); err != nil {
			return nil, err
		}
		s.metrics.Pruned(pruned)
		s.logger.Info("unresolvable bookmarks pruned", "count", pruned)
	}
	return bookmarks, nil
}

// Prune drops every bookmark that no longer resolves and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.loadLocked(ctx)
	if err != nil {
		return 0, err
	}

	kept := make([]domain.Token, 0, len(tokens))
	for _, t := range tokens {
		if _, _, derr := s.codec.Decode(t); derr != nil {
			continue
		}
		kept = append(kept, t)
	}

	pruned := len(tokens) - len(kept)
	if pruned == 0 {
		return 0, nil
	}
	if err := s.saveLocked(ctx, kept); err != nil {
		return 0, err
	}
	s.metrics.Pruned(pruned)
	return pruned, nil
}

// scanLocked walks tokens looking for one resolving to canonical.
// Unresolvable entries are dropped from the returned slice; the
// second result is the matching token, if any.
func (s *Store) scanLocked(tokens []domain.Token, canonical string) ([]domain.Token, domain.Token, int) {
	kept := make([]domain.Token, 0, len(tokens))
	var found domain.Token
	pruned := 0
	for _, t := range tokens {
		loc, _, err := s.codec.Decode(t)
		if err != nil {
			pruned++
			continue
		}
		kept = append(kept, t)
		if found == nil && loc.Path == canonical {
			found = t
		}
	}
	if pruned > 0 {
		s.metrics.Pruned(pruned)
		s.logger.Info("unresolvable bookmarks pruned", "count", pruned)
	}
	return kept, found, pruned
}

func (s *Store) loadLocked(ctx context.Context) ([]domain.Token, error) {
	raw, err := s.settings.Get(ctx, BookmarksKey)
	if err != nil {
		if errors.Is(err, domain.ErrValueNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeCollection(raw)
}

func (s *Store) saveLocked(ctx context.Context, tokens []domain.Token) error {
	return s.settings.Set(ctx, BookmarksKey, encodeCollection(tokens))
}

func encodeCollection(tokens []domain.Token) []byte {
	size := collectionHdr
	for _, t := range tokens {
		size += 4 + len(t)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, collectionMagic...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(tokens)))
	for _, t := range tokens {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(t)))
		buf = append(buf, t...)
	}
	return buf
}

func decodeCollection(raw []byte) ([]domain.Token, error) {
	if len(raw) < collectionHdr || string(raw[:4]) != collectionMagic {
		return nil, domain.ErrStorageError.WithDetails("bookmark collection corrupted")
	}

	count := binary.BigEndian.Uint32(raw[4:8])
	tokens := make([]domain.Token, 0, count)
	rest := raw[collectionHdr:]
	for i := uint32(0); i < count; i++ {
		if len(rest) < 4 {
			return nil, domain.ErrStorageError.WithDetails("bookmark collection truncated")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		if n > maxTokenLen || len(rest) < 4+int(n) {
			return nil, domain.ErrStorageError.WithDetails("bookmark collection truncated")
		}
		tokens = append(tokens, domain.Token(rest[4:4+n]).Clone())
		rest = rest[4+n:]
	}
	if len(rest) != 0 {
		return nil, domain.ErrStorageError.WithDetails("trailing bytes in bookmark collection")
	}
	return tokens, nil
}
