// Package metric defines the Prometheus instrumentation for pathmark.
//
// A Registry bundles the counters maintained by the codec, the
// bookmark store, and the entry delete path under the "pathmark"
// namespace. Construct one with New and attach it to a Prometheus
// registerer with Register; a nil *Registry is safe to use and drops
// all observations, so callers do not need to guard every increment.
package metric
