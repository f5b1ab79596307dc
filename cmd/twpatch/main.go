// Package main is the entry point for the twpatch patch synthesizer.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"

	"github.com/packforge/twpatch/cmd/twpatch/commands"
	"github.com/packforge/twpatch/internal/app"
	_ "github.com/packforge/twpatch/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	cli := commands.New(components.App)
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return app.ExitCode(err)
	}
	return 0
}
