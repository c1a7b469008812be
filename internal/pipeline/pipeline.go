// Package pipeline runs the staged collection: list species, filter against
// the accepted-names reference, fetch details, simplify, and export. Each
// completed stage is checkpointed so an interrupted run resumes where it
// stopped.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	appcfg "github.com/herbario-cl/herbario/internal/config"
	"github.com/herbario-cl/herbario/internal/dataset"
	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/herbario"
	"github.com/herbario-cl/herbario/internal/metrics"
	"github.com/herbario-cl/herbario/internal/report"
	"github.com/herbario-cl/herbario/internal/retry"
	"github.com/herbario-cl/herbario/internal/state"
	"github.com/herbario-cl/herbario/internal/traits"
)

// StageDBFileName is the stage cache database under the data directory.
const StageDBFileName = "stages.db"

// speciesLister abstracts the API client for tests.
type speciesLister interface {
	ListSpecies(ctx context.Context) ([]herbario.SpeciesRef, error)
	GetSpecies(ctx context.Context, id int) (*herbario.SpeciesDetail, error)
}

// namesSource abstracts the reference dataset for tests.
type namesSource interface {
	AcceptedNames(ctx context.Context) ([]string, error)
}

// Pipeline orchestrates one collection run.
type Pipeline struct {
	cfg      *appcfg.Config
	client   speciesLister
	names    namesSource
	store    *state.Store
	recorder metrics.Recorder
	reports  *report.Writer
}

// Result is the outcome of a completed run.
type Result struct {
	RunID   string
	Stats   report.Stats
	Records []dataset.Record
}

// New assembles a pipeline from configuration. The stage cache lives under
// the data directory.
func New(cfg *appcfg.Config) (*Pipeline, error) {
	if err := os.MkdirAll(cfg.Data.Directory, 0755); err != nil {
		return nil, err
	}

	store, err := state.NewStore(filepath.Join(cfg.Data.Directory, StageDBFileName))
	if err != nil {
		return nil, err
	}

	policy := retry.FromConfig(cfg)
	return &Pipeline{
		cfg:      cfg,
		client:   herbario.NewClient(cfg.API.BaseURL, policy, cfg.API.PageStart),
		names:    traits.NewFetcher(cfg.Traits, cfg.Data.Directory, policy),
		store:    store,
		recorder: metrics.NoopRecorder{},
		reports:  report.NewWriter(cfg.Report.Directory),
	}, nil
}

// WithRecorder injects a metrics recorder (fluent helper).
func (p *Pipeline) WithRecorder(r metrics.Recorder) *Pipeline { p.recorder = r; return p }

// Close releases the stage cache.
func (p *Pipeline) Close() error { return p.store.Close() }

// ClearCache drops every stage checkpoint, forcing the next run to start
// from the API.
func (p *Pipeline) ClearCache(ctx context.Context) error {
	return p.store.Clear(ctx)
}

// ExportPath returns where the analysis-ready CSV is written.
func (p *Pipeline) ExportPath() string {
	return filepath.Join(p.cfg.Data.Directory, dataset.ExportFileName)
}

// Run executes the pipeline, resuming from the most advanced cached stage.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	slog.Info("Starting collection run", "run_id", runID)

	refs, err := p.listStage(ctx, runID)
	if err != nil {
		p.recorder.IncStageResult(string(state.StageList), metrics.ResultFatal)
		return nil, err
	}

	accepted, err := p.filterStage(ctx, runID, refs)
	if err != nil {
		p.recorder.IncStageResult(string(state.StageFiltered), metrics.ResultFatal)
		return nil, err
	}

	details, err := p.detailStage(ctx, runID, accepted)
	if err != nil {
		p.recorder.IncStageResult(string(state.StageDetails), metrics.ResultFatal)
		return nil, err
	}

	records := dataset.Simplify(details)
	if err := dataset.WriteCSV(p.ExportPath(), records); err != nil {
		return nil, err
	}
	slog.Info("Exported dataset", "path", p.ExportPath(), "records", len(records))

	stats := report.Stats{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Collected:   len(refs),
		Accepted:    len(accepted),
		Detailed:    len(details),
	}
	if err := p.reports.Write(stats, records); err != nil {
		return nil, err
	}

	p.recorder.ObserveRunDuration(time.Since(start))
	slog.Info("Collection run complete",
		"run_id", runID,
		"collected", stats.Collected,
		"accepted", stats.Accepted,
		"detailed", stats.Detailed,
		"duration", time.Since(start))

	return &Result{RunID: runID, Stats: stats, Records: records}, nil
}

// Report re-renders the dataset export and report files from cached stages
// without contacting the API. It fails when no detail stage is cached.
func (p *Pipeline) Report(ctx context.Context) (*Result, error) {
	runID, cached, err := p.store.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	if !cached {
		return nil, apperrors.New(apperrors.CategoryState, apperrors.SeverityError,
			"no cached collection data, run 'herbario fetch' first")
	}

	var details []herbario.SpeciesDetail
	found, err := p.store.Load(ctx, state.StageDetails, &details)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperrors.New(apperrors.CategoryState, apperrors.SeverityError,
			"cached run has no detail stage, run 'herbario fetch' first")
	}

	var refs, accepted []herbario.SpeciesRef
	if _, err := p.store.Load(ctx, state.StageList, &refs); err != nil {
		return nil, err
	}
	if _, err := p.store.Load(ctx, state.StageFiltered, &accepted); err != nil {
		return nil, err
	}

	records := dataset.Simplify(details)
	if err := dataset.WriteCSV(p.ExportPath(), records); err != nil {
		return nil, err
	}

	stats := report.Stats{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Collected:   len(refs),
		Accepted:    len(accepted),
		Detailed:    len(details),
	}
	if err := p.reports.Write(stats, records); err != nil {
		return nil, err
	}
	slog.Info("Rendered report from cache", "run_id", runID, "records", len(records))

	return &Result{RunID: runID, Stats: stats, Records: records}, nil
}

func (p *Pipeline) listStage(ctx context.Context, runID string) ([]herbario.SpeciesRef, error) {
	var refs []herbario.SpeciesRef
	found, err := p.store.Load(ctx, state.StageList, &refs)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Info("Reusing cached species list", "species", len(refs))
		return refs, nil
	}

	stageStart := time.Now()
	refs, err = p.client.ListSpecies(ctx)
	if err != nil {
		return nil, err
	}
	p.recorder.ObserveStageDuration(string(state.StageList), time.Since(stageStart))
	p.recorder.IncStageResult(string(state.StageList), metrics.ResultSuccess)

	if err := p.store.Save(ctx, state.StageList, runID, refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (p *Pipeline) filterStage(ctx context.Context, runID string, refs []herbario.SpeciesRef) ([]herbario.SpeciesRef, error) {
	var accepted []herbario.SpeciesRef
	found, err := p.store.Load(ctx, state.StageFiltered, &accepted)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Info("Reusing cached filtered list", "species", len(accepted))
		return accepted, nil
	}

	stageStart := time.Now()
	names, err := p.names.AcceptedNames(ctx)
	if err != nil {
		return nil, err
	}
	accepted = dataset.FilterAccepted(refs, names)
	p.recorder.ObserveStageDuration(string(state.StageFiltered), time.Since(stageStart))
	p.recorder.IncStageResult(string(state.StageFiltered), metrics.ResultSuccess)

	if err := p.store.Save(ctx, state.StageFiltered, runID, accepted); err != nil {
		return nil, err
	}
	return accepted, nil
}

func (p *Pipeline) detailStage(ctx context.Context, runID string, accepted []herbario.SpeciesRef) ([]herbario.SpeciesDetail, error) {
	var details []herbario.SpeciesDetail
	found, err := p.store.Load(ctx, state.StageDetails, &details)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Info("Reusing cached detail records", "species", len(details))
		return details, nil
	}

	stageStart := time.Now()
	details = make([]herbario.SpeciesDetail, 0, len(accepted))
	for i, ref := range accepted {
		if ref.ID == 0 {
			slog.Warn("Skipping species without id", "scientific_name", ref.ScientificName)
			continue
		}

		slog.Debug("Retrieving species detail", "index", i+1, "total", len(accepted), "id", ref.ID)
		detail, err := p.client.GetSpecies(ctx, ref.ID)
		if err != nil {
			// A non-retryable network error is a non-OK page for one
			// species (gone between list and detail): skip it. Transport
			// failures and exhausted retries abort the stage.
			if apperrors.IsCategory(err, apperrors.CategoryNetwork) && !apperrors.IsRetryable(err) {
				slog.Warn("Skipping species with non-OK detail page", "id", ref.ID, "error", err)
				continue
			}
			return nil, err
		}
		details = append(details, *detail)
		p.recorder.IncSpeciesFetched(1)
	}
	p.recorder.ObserveStageDuration(string(state.StageDetails), time.Since(stageStart))
	p.recorder.IncStageResult(string(state.StageDetails), metrics.ResultSuccess)

	if err := p.store.Save(ctx, state.StageDetails, runID, details); err != nil {
		return nil, err
	}
	return details, nil
}
