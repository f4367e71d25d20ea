// Package codec converts locations to durable opaque tokens and back.
//
// A token is a versioned binary frame carrying the entry's canonical
// path and its device/inode identity, protected by a CRC. Decoding
// re-validates the reference against the live file system and reports
// staleness when the entry moved or was replaced in place, so callers
// can re-encode for future durability.
//
// Resolution never prompts: a token that cannot be validated decodes
// to an error, not a dialog.
package codec
