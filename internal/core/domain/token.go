package domain

import (
	"bytes"
	"encoding/hex"
)

// TokenDisplayPrefix is the prefix used when rendering a token for
// human consumption (logs, CLI output). The raw bytes never appear in
// log output; only the masked form does.
const TokenDisplayPrefix = "pmtk_"

// Token is the opaque, serializable byte sequence produced by the codec.
// It is durable across process restarts but not guaranteed to decode
// forever: the entry may be deleted or moved beyond the relocation scan.
type Token []byte

// IsZero reports whether the token is empty (unbound).
func (t Token) IsZero() bool {
	return len(t) == 0
}

// Equal reports whether two tokens carry identical bytes.
// Handle equality does NOT use this; handles compare by decoded path.
func (t Token) Equal(other Token) bool {
	return bytes.Equal(t, other)
}

// Clone returns an independent copy of the token bytes.
func (t Token) Clone() Token {
	if t == nil {
		return nil
	}
	c := make(Token, len(t))
	copy(c, t)
	return c
}

// String returns a masked representation safe for logging.
// Format: pmtk_<first 4 bytes hex>...<last 2 bytes hex>
func (t Token) String() string {
	if len(t) == 0 {
		return TokenDisplayPrefix + "empty"
	}
	if len(t) <= 6 {
		return TokenDisplayPrefix + hex.EncodeToString(t)
	}
	return TokenDisplayPrefix + hex.EncodeToString(t[:4]) + "..." + hex.EncodeToString(t[len(t)-2:])
}
