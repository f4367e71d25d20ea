// Package main provides the entry point for pathmark.
//
// pathmark manages durable bookmarks to file-system entries. Bookmarks
// survive renames and moves: the stored token carries enough identity
// to find an entry again after it has been relocated.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/pathmark-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
