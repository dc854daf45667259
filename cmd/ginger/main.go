package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/SearchPilot/ginger/cmd/ginger/commands"
	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
	"github.com/SearchPilot/ginger/internal/version"
)

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("ginger"),
		kong.Description("Build a static website from templates, page descriptors and assets."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		commands.Vars(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := kctx.Run(&commands.Global{Context: ctx, Logger: slog.Default()}, &cli)
	if err != nil {
		stop()
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
