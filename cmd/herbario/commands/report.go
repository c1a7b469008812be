package commands

import (
	"context"
	"fmt"

	"github.com/herbario-cl/herbario/internal/config"
	"github.com/herbario-cl/herbario/internal/pipeline"
	"github.com/herbario-cl/herbario/internal/report"
)

// ReportCmd implements the 'report' command.
type ReportCmd struct{}

func (r *ReportCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() {
		_ = pipe.Close()
	}()

	result, err := pipe.Report(context.Background())
	if err != nil {
		return err
	}

	writer := report.NewWriter(cfg.Report.Directory)
	fmt.Printf("Rendered %s and %s from run %s\n",
		writer.SummaryPath(), writer.HTMLPath(), result.RunID)
	return nil
}
