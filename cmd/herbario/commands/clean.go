package commands

import (
	"fmt"

	"github.com/herbario-cl/herbario/internal/config"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder := newBuilder(cfg)
	removed, err := builder.Clean()
	if err != nil {
		return err
	}
	if removed {
		fmt.Printf("Removed %s\n", builder.Path())
	} else {
		fmt.Printf("No archive at %s\n", builder.Path())
	}
	return nil
}
