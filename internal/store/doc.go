// Package store maintains the persistent, ordered bookmark collection.
//
// Bookmarks are opaque tokens kept as a single framed value in the
// settings namespace. The collection deduplicates by the path a token
// resolves to, not by token bytes, and prunes entries that no longer
// resolve during lookups. All mutating operations serialize through a
// store-level mutex so concurrent callers cannot interleave a load
// with another caller's save.
package store
