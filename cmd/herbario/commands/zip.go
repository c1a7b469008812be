package commands

import (
	"fmt"
	"log/slog"

	"github.com/herbario-cl/herbario/internal/config"
)

// ZipCmd implements the 'zip' command.
type ZipCmd struct{}

func (z *ZipCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder := newBuilder(cfg)
	slog.Info("Building archive", "path", builder.Path())
	if err := builder.Build(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", builder.Path())
	return nil
}
