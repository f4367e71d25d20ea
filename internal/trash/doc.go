// Package trash moves file-system entries into an XDG-style trash
// directory instead of unlinking them.
//
// The trash root holds two subdirectories: files/ receives the moved
// entries and info/ holds one .trashinfo record per entry with the
// original path and deletion time, so entries can be restored later.
// Name collisions are resolved by suffixing a counter, matching the
// convention desktop trash implementations use.
package trash
