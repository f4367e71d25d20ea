package command

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pathmark-go/internal/infra/confloader"
	"github.com/yndnr/pathmark-go/internal/infra/shutdown"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch bookmarked entries and repair tokens as they move",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Delay between a change burst and the repair pass",
				Value: 500 * time.Millisecond,
			},
		},
		Action: watchAction,
	}
}

func watchAction(c *cli.Context) error {
	env, closeEnv, err := openEnv(c)
	if err != nil {
		return err
	}
	defer closeEnv()

	ctx := c.Context
	bookmarks, err := env.store.List(ctx)
	if err != nil {
		return err
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(env.deps.Logger))
	if err != nil {
		return err
	}

	// Watch each bookmark's containing directory; renames show up as
	// create events in the same directory.
	watched := map[string]bool{}
	for _, b := range bookmarks {
		dir := filepath.Dir(b.Location.Path)
		if watched[dir] {
			continue
		}
		if err := watcher.Watch(b.Location.Path); err != nil {
			env.deps.Logger.Warn("cannot watch directory", "path", dir, "error", err)
			continue
		}
		watched[dir] = true
	}
	if len(watched) == 0 {
		return cli.Exit("no bookmarks to watch", 1)
	}

	// Debounce: a move produces several events back to back, and one
	// repair pass covers them all.
	kick := make(chan struct{}, 1)
	watcher.OnChange(func(string) {
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	watcher.StartAsync()

	debounce := c.Duration("debounce")
	go func() {
		for range kick {
			time.Sleep(debounce)
			n, err := repairAll(ctx, env)
			if err != nil {
				env.deps.Logger.Error("repair pass failed", "error", err)
				continue
			}
			if n > 0 {
				env.deps.Logger.Info("bookmarks repaired", "count", n)
			}
		}
	}()

	fmt.Printf("watching %d directories, press Ctrl-C to stop\n", len(watched))

	handler := shutdown.NewHandler(5 * time.Second)
	handler.OnShutdown(func(context.Context) error {
		return watcher.Stop()
	})
	return handler.Wait()
}
