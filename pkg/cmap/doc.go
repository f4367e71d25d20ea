// Package cmap provides a concurrent-safe sharded map.
//
// Keys are spread across a power-of-two number of shards, each guarded
// by its own RWMutex, so readers and writers of unrelated keys do not
// contend. It is used for hot lookup caches such as the resolved-path
// index kept by the bookmark store.
//
// All operations are safe for concurrent use. Iteration locks one
// shard at a time, so a Range observes each shard atomically but not
// the map as a whole.
package cmap
