package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/herbario-cl/herbario/internal/config"
	"github.com/herbario-cl/herbario/internal/pipeline"
)

// FetchCmd implements the 'fetch' command.
type FetchCmd struct {
	Fresh bool `help:"Discard cached stages and collect everything again"`
}

func (f *FetchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() {
		_ = pipe.Close()
	}()

	if f.Fresh {
		if err := pipe.ClearCache(ctx); err != nil {
			return err
		}
	}

	result, err := pipe.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Collected %d species (%d accepted) into %s\n",
		result.Stats.Collected, result.Stats.Accepted, pipe.ExportPath())
	return nil
}
