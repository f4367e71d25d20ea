package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pathmark-go/internal/cli/output"
	"github.com/yndnr/pathmark-go/internal/core/service"
)

// EntryCommand returns the entry subcommand group.
func EntryCommand() *cli.Command {
	return &cli.Command{
		Name:  "entry",
		Usage: "Operate on file-system entries through durable handles",
		Subcommands: []*cli.Command{
			{
				Name:      "stat",
				Usage:     "Show an entry's current metadata",
				ArgsUsage: "PATH",
				Action:    entryStat,
			},
			{
				Name:      "parent",
				Usage:     "Show the entry's containing directory",
				ArgsUsage: "PATH",
				Action:    entryParent,
			},
			{
				Name:      "rm",
				Usage:     "Delete an entry (to the trash by default)",
				ArgsUsage: "PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "permanent",
						Aliases: []string{"P"},
						Usage:   "Unlink instead of moving to the trash",
					},
				},
				Action: entryRemove,
			},
			{
				Name:      "restore",
				Usage:     "Restore a trashed entry to its original path",
				ArgsUsage: "TRASHED_PATH",
				Action:    entryRestore,
			},
		},
	}
}

func entryStat(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("entry stat requires exactly one PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	h, err := service.New(ctx, env.deps, c.Args().First())
	if err != nil {
		return err
	}

	md, err := h.Metadata(ctx)
	if err != nil {
		return err
	}

	if _, ok := env.out.(*output.JSONFormatter); ok {
		return env.out.Format(os.Stdout, md)
	}

	table := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	table.AddRow("path", md.Path)
	table.AddRow("name", md.Name)
	table.AddRow("size", fmt.Sprintf("%d", md.Size))
	table.AddRow("mode", md.Mode.String())
	table.AddRow("modified", md.Modified.Format("2006-01-02 15:04:05"))
	if !md.Created.IsZero() {
		table.AddRow("created", md.Created.Format("2006-01-02 15:04:05"))
	}
	table.AddRow("directory", fmt.Sprintf("%t", md.IsDir))
	return env.out.Format(os.Stdout, table)
}

func entryParent(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("entry parent requires exactly one PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	h, err := service.New(ctx, env.deps, c.Args().First())
	if err != nil {
		return err
	}

	parent, err := h.Parent(ctx)
	if err != nil {
		return err
	}
	if parent == nil {
		fmt.Println("(root has no parent)")
		return nil
	}

	path, err := parent.Path(ctx)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func entryRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("entry rm requires exactly one PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	h, err := service.New(ctx, env.deps, c.Args().First())
	if err != nil {
		return err
	}

	opts := service.DeleteOptions{Permanent: c.Bool("permanent")}
	if err := h.Delete(ctx, opts); err != nil {
		return err
	}

	if opts.Permanent {
		fmt.Println("deleted")
		return nil
	}
	target, err := h.Path(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("moved to trash: %s\n", target)
	return nil
}

func entryRestore(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("entry restore requires exactly one TRASHED_PATH", 2)
	}

	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	trashed := c.Args().First()

	original, err := env.bin.Restore(trashed)
	if err != nil {
		return err
	}
	if _, err := env.store.Rebind(ctx, trashed, original); err != nil {
		return err
	}
	fmt.Printf("restored: %s\n", original)
	return nil
}
