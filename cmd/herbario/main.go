package main

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/herbario-cl/herbario/cmd/herbario/commands"
	"github.com/herbario-cl/herbario/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("herbario"),
		kong.Description("Collects the Herbario Digital species dataset and packages it for distribution."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("herbario %s (commit %s, built %s)",
			version.Version, version.GitCommit, version.BuildTime)},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	ctx.FatalIfErrorf(err)
}
