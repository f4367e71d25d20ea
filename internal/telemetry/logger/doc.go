// Package logger provides structured logging for pathmark.
//
// It wraps log/slog with JSON output by default, runtime level
// adjustment, and automatic redaction of sensitive attributes. Token
// strings (the "pmtk_" display form) are partially masked; attributes
// whose key suggests credentials are fully redacted.
//
// A Logger travels either explicitly through struct fields or through
// a context.Context via WithLogger and L.
package logger
