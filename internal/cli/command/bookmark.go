package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pathmark-go/internal/cli/output"
	"github.com/yndnr/pathmark-go/internal/core/domain"
)

// BookmarkCommand returns the bookmark subcommand group.
func BookmarkCommand() *cli.Command {
	return &cli.Command{
		Name:    "bookmark",
		Aliases: []string{"bm"},
		Usage:   "Manage the persistent bookmark collection",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Bookmark one or more entries",
				ArgsUsage: "PATH...",
				Action:    bookmarkAdd,
			},
			{
				Name:   "list",
				Usage:  "List bookmarks with their current locations",
				Action: bookmarkList,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a bookmark (the entry itself is untouched)",
				ArgsUsage: "PATH",
				Action:    bookmarkRemove,
			},
			{
				Name:   "prune",
				Usage:  "Drop bookmarks whose entries no longer exist",
				Action: bookmarkPrune,
			},
			{
				Name:   "repair",
				Usage:  "Re-mint tokens for bookmarks whose entries moved",
				Action: bookmarkRepair,
			},
		},
	}
}

func bookmarkAdd(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("bookmark add requires at least one PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	for _, path := range c.Args().Slice() {
		token, err := env.store.Upsert(ctx, path)
		if err != nil {
			PrintError("cannot bookmark %s: %v", path, err)
			continue
		}
		fmt.Printf("%s\t%s\n", token, path)
	}
	return nil
}

func bookmarkList(c *cli.Context) error {
	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	bookmarks, err := env.store.List(c.Context)
	if err != nil {
		return err
	}

	if _, ok := env.out.(*output.JSONFormatter); ok {
		type row struct {
			Token string `json:"token"`
			Path  string `json:"path"`
			IsDir bool   `json:"is_dir"`
			Stale bool   `json:"stale"`
		}
		rows := make([]row, 0, len(bookmarks))
		for _, b := range bookmarks {
			rows = append(rows, row{
				Token: b.Token.String(),
				Path:  b.Location.Path,
				IsDir: b.Location.IsDir,
				Stale: b.Stale,
			})
		}
		return env.out.Format(os.Stdout, rows)
	}

	table := &output.Table{Headers: []string{"TOKEN", "PATH", "STATUS"}}
	for _, b := range bookmarks {
		status := "fresh"
		if b.Stale {
			status = "stale"
		}
		table.AddRow(b.Token.String(), b.Location.Path, status)
	}
	return env.out.Format(os.Stdout, table)
}

func bookmarkRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("bookmark remove requires exactly one PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	return env.store.Remove(c.Context, c.Args().First())
}

func bookmarkPrune(c *cli.Context) error {
	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	n, err := env.store.Prune(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d bookmark(s)\n", n)
	return nil
}

func bookmarkRepair(c *cli.Context) error {
	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	n, err := repairAll(c.Context, env)
	if err != nil {
		return err
	}
	fmt.Printf("repaired %d bookmark(s)\n", n)
	return nil
}

// repairAll re-mints every stale bookmark in place.
func repairAll(ctx context.Context, env *env) (int, error) {
	bookmarks, err := env.store.List(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, b := range bookmarks {
		if !b.Stale {
			continue
		}
		if _, err := env.store.Rebind(ctx, b.Location.Path, b.Location.Path); err != nil {
			// Entries can disappear between List and Rebind; skip
			// those, surface anything else.
			if domain.IsDomainError(err, domain.ErrInvalidReference.Code) {
				continue
			}
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}
