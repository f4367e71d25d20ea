package codec

import (
	"encoding/binary"
	"hash/crc32"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/pathmark-go/internal/core/domain"
	"github.com/yndnr/pathmark-go/internal/fsmeta"
	"github.com/yndnr/pathmark-go/internal/telemetry/logger"
	"github.com/yndnr/pathmark-go/internal/telemetry/metric"
)

// Token frame layout (big-endian):
//
//	magic    4  "PMK1"
//	flags    1  bit 0: directory
//	crc      4  CRC32-IEEE over everything after this field
//	id      16  ULID, unique per encode
//	device   8  st_dev at encode time
//	inode    8  st_ino at encode time
//	pathLen  2  length of the path in bytes
//	path     n  canonical absolute path, UTF-8
const (
	frameMagic  = "PMK1"
	headerLen   = 4 + 1 + 4
	idLen       = 16
	fixedBody   = idLen + 8 + 8 + 2
	minFrameLen = headerLen + fixedBody

	flagDir = 0x01

	// MaxPathLen bounds the encoded path. Longer paths cannot be
	// referenced by a token.
	MaxPathLen = 4096
)

// Codec encodes and decodes Pathmark tokens.
type Codec struct {
	meta      fsmeta.Reader
	roots     []string
	scanRoot  string
	scanDepth int
	logger    logger.Logger
	metrics   *metric.Registry
}

// Option configures the Codec.
type Option func(*Codec)

// WithMetadataReader sets the metadata read capability.
func WithMetadataReader(r fsmeta.Reader) Option {
	return func(c *Codec) {
		c.meta = r
	}
}

// WithRoots restricts encoding to locations under the given roots.
// An empty set permits any location.
func WithRoots(roots ...string) Option {
	return func(c *Codec) {
		c.roots = roots
	}
}

// WithRelocationScan enables the bounded deep scan used when a decoded
// entry is no longer in its recorded parent directory. depth bounds
// how many levels below root are searched.
func WithRelocationScan(root string, depth int) Option {
	return func(c *Codec) {
		c.scanRoot = root
		c.scanDepth = depth
	}
}

// WithLogger sets the structured logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Codec) {
		c.logger = l
	}
}

// WithMetrics attaches the metric registry.
func WithMetrics(m *metric.Registry) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

// New creates a Codec with the given options.
func New(opts ...Option) *Codec {
	c := &Codec{
		meta:      fsmeta.OS{},
		scanDepth: 4,
		logger:    logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EncodeOptions controls token production.
type EncodeOptions struct {
	// RefreshIdentity re-reads the entry's device/inode identity from
	// disk instead of trusting the identity carried by the Location.
	RefreshIdentity bool
}

// LocationAt resolves a path to a live Location: canonical form plus
// current device/inode identity. The entry must exist.
func (c *Codec) LocationAt(path string) (domain.Location, error) {
	canonical, err := domain.NormalizePath(path)
	if err != nil {
		return domain.Location{}, err
	}
	loc, err := fsmeta.Identity(c.meta, canonical)
	if err != nil {
		return domain.Location{}, domain.ErrInvalidReference.WithDetails(canonical).WithCause(err)
	}
	return loc, nil
}

// Encode produces a durable token for the location.
//
// Fails when the location is zero, lies outside the permitted roots,
// or (with RefreshIdentity) no longer exists on disk. Each call
// produces byte-distinct tokens even for the same path; the store
// deduplicates by decoded path, not by bytes.
func (c *Codec) Encode(loc domain.Location, opts EncodeOptions) (domain.Token, error) {
	if loc.IsZero() {
		return nil, domain.ErrInvalidReference.WithDetails("empty location")
	}
	if len(loc.Path) > MaxPathLen {
		return nil, domain.ErrInvalidReference.WithDetails("path too long")
	}
	if !c.inRoots(loc.Path) {
		return nil, domain.ErrOutsideScope.WithDetails(loc.Path)
	}

	if opts.RefreshIdentity || !loc.HasIdentity() {
		fresh, err := fsmeta.Identity(c.meta, loc.Path)
		if err != nil {
			return nil, domain.ErrInvalidReference.WithDetails(loc.Path).WithCause(err)
		}
		loc = fresh
	}

	id := ulid.Make()

	body := make([]byte, fixedBody+len(loc.Path))
	copy(body[:idLen], id[:])
	binary.BigEndian.PutUint64(body[idLen:idLen+8], loc.Device)
	binary.BigEndian.PutUint64(body[idLen+8:idLen+16], loc.Inode)
	binary.BigEndian.PutUint16(body[idLen+16:idLen+18], uint16(len(loc.Path)))
	copy(body[fixedBody:], loc.Path)

	frame := make([]byte, headerLen+len(body))
	copy(frame[:4], frameMagic)
	if loc.IsDir {
		frame[4] = flagDir
	}
	binary.BigEndian.PutUint32(frame[5:9], crc32.ChecksumIEEE(body))
	copy(frame[headerLen:], body)

	c.metrics.TokenEncoded()
	return frame, nil
}

// Decode resolves a token back to a usable location.
//
// stale=true means the token resolved but its recorded reference is
// out of date (entry replaced in place or relocated) and should be
// re-encoded. An error means the token no longer resolves at all.
func (c *Codec) Decode(token domain.Token) (domain.Location, bool, error) {
	recorded, isDir, err := c.parse(token)
	if err != nil {
		return domain.Location{}, false, err
	}

	live, statErr := fsmeta.Identity(c.meta, recorded.Path)
	if statErr == nil {
		if !recorded.HasIdentity() || recorded.SameIdentity(live) {
			return live, false, nil
		}
		// Same path, different identity: the entry was replaced in
		// place. Resolvable, but the token should be refreshed.
		c.metrics.DecodeStale()
		return live, true, nil
	}

	if !recorded.HasIdentity() {
		c.metrics.DecodeFailure()
		return domain.Location{}, false, domain.ErrTokenUnresolvable.WithDetails(recorded.Path).WithCause(statErr)
	}

	relocated, found := c.relocate(recorded)
	if !found {
		c.metrics.DecodeFailure()
		return domain.Location{}, false, domain.ErrTokenUnresolvable.WithDetails(recorded.Path).WithCause(statErr)
	}

	c.logger.Info("entry relocated",
		"from", recorded.Path,
		"to", relocated.Path)
	c.metrics.DecodeStale()
	c.metrics.Relocation()
	relocated.IsDir = isDir
	return relocated, true, nil
}

// parse validates the frame and extracts the recorded location.
func (c *Codec) parse(token domain.Token) (domain.Location, bool, error) {
	if len(token) < minFrameLen {
		return domain.Location{}, false, domain.ErrTokenMalformed.WithDetails("frame too short")
	}
	if string(token[:4]) != frameMagic {
		return domain.Location{}, false, domain.ErrTokenMalformed.WithDetails("bad magic")
	}

	body := token[headerLen:]
	if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(token[5:9]) {
		return domain.Location{}, false, domain.ErrTokenMalformed.WithDetails("checksum mismatch")
	}

	pathLen := int(binary.BigEndian.Uint16(body[idLen+16 : idLen+18]))
	if len(body) != fixedBody+pathLen {
		return domain.Location{}, false, domain.ErrTokenMalformed.WithDetails("length mismatch")
	}

	isDir := token[4]&flagDir != 0
	return domain.Location{
		Path:   string(body[fixedBody:]),
		Device: binary.BigEndian.Uint64(body[idLen : idLen+8]),
		Inode:  binary.BigEndian.Uint64(body[idLen+8 : idLen+16]),
		IsDir:  isDir,
	}, isDir, nil
}

// ID extracts the token's ULID for log correlation.
func (c *Codec) ID(token domain.Token) (ulid.ULID, error) {
	if len(token) < minFrameLen || string(token[:4]) != frameMagic {
		return ulid.ULID{}, domain.ErrTokenMalformed
	}
	var id ulid.ULID
	copy(id[:], token[headerLen:headerLen+idLen])
	return id, nil
}

// inRoots reports whether path lies under one of the permitted roots.
func (c *Codec) inRoots(path string) bool {
	if len(c.roots) == 0 {
		return true
	}
	for _, root := range c.roots {
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}
