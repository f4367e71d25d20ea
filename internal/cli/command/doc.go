// Package command defines the pathmark CLI commands.
//
// The bookmark command group manages the persistent collection; the
// entry command group operates on individual file-system entries
// through durable handles; watch keeps the collection repaired while
// entries move around.
package command
