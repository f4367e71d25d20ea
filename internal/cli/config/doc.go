// Package config defines the pathmark CLI configuration.
//
// Configuration merges, in increasing priority: built-in defaults, a
// YAML file, PATHMARK_-prefixed environment variables, and CLI flag
// overrides. Loading goes through the shared confloader.
package config
