// Package confloader loads configuration from layered sources.
//
// Koanf merges the layers with later sources overriding earlier ones:
// defaults, then a YAML file, then PATHMARK_-prefixed environment
// variables, then explicit overrides (CLI flags). A fsnotify-based
// Watcher can re-trigger loading when the file changes on disk.
package confloader
