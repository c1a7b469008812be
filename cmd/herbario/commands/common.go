package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/herbario-cl/herbario/internal/archive"
	"github.com/herbario-cl/herbario/internal/config"
	"github.com/herbario-cl/herbario/internal/manifest"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	All    AllCmd    `cmd:"" default:"1" help:"Remove any stale archive and build a fresh one"`
	Clean  CleanCmd  `cmd:"" help:"Remove the dataset archive"`
	Zip    ZipCmd    `cmd:"" help:"Build the dataset archive from the manifest"`
	Fetch  FetchCmd  `cmd:"" help:"Run the collection pipeline against the herbario API"`
	Report ReportCmd `cmd:"" help:"Re-render the report files from cached pipeline stages"`
	Init   InitCmd   `cmd:"" help:"Initialize a new configuration file"`
	Daemon DaemonCmd `cmd:"" help:"Start daemon mode for continuous dataset refresh"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// newBuilder assembles the archive builder from the configured manifest.
func newBuilder(cfg *config.Config) *archive.Builder {
	return archive.NewBuilder(manifest.New(cfg.Archive.Manifest), cfg.Archive.Name)
}
