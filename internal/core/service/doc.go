// Package service exposes durable handles to file-system entries.
//
// A Handle wraps a bookmark token and re-resolves it on every access,
// repairing the token in the persistent collection when the entry has
// moved or been replaced. Metadata reads and deletes are bracketed by
// a ScopeBroker so access grants are acquired and released in pairs.
package service
