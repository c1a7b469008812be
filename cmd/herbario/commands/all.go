package commands

import (
	"fmt"
	"log/slog"

	"github.com/herbario-cl/herbario/internal/config"
)

// AllCmd implements the default 'all' command: clean then zip.
type AllCmd struct{}

func (a *AllCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder := newBuilder(cfg)
	slog.Info("Rebuilding archive", "path", builder.Path())
	if err := builder.Rebuild(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", builder.Path())
	return nil
}
