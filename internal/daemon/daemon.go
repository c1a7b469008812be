// Package daemon runs herbario in continuous mode: a scheduled pipeline
// refresh, a file watcher that re-archives when manifest files change, a
// Prometheus metrics endpoint, and optional NATS event publishing.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/herbario-cl/herbario/internal/archive"
	appcfg "github.com/herbario-cl/herbario/internal/config"
	"github.com/herbario-cl/herbario/internal/manifest"
	"github.com/herbario-cl/herbario/internal/metrics"
	"github.com/herbario-cl/herbario/internal/pipeline"
)

// Daemon wires the refresh scheduler, the manifest watcher, and the metrics
// endpoint together.
type Daemon struct {
	cfg       *appcfg.Config
	manifest  manifest.Manifest
	builder   *archive.Builder
	pipe      *pipeline.Pipeline
	recorder  *metrics.PrometheusRecorder
	scheduler *Scheduler
	watcher   *Watcher
	publisher *Publisher
	server    *http.Server

	mu       sync.Mutex // serializes refresh and re-archive
	lastHash string
}

// New assembles a daemon from configuration.
func New(cfg *appcfg.Config) (*Daemon, error) {
	m := manifest.New(cfg.Archive.Manifest)
	recorder := metrics.NewPrometheusRecorder(nil)

	pipe, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	pipe.WithRecorder(recorder)

	scheduler, err := NewScheduler()
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:       cfg,
		manifest:  m,
		builder:   archive.NewBuilder(m, cfg.Archive.Name),
		pipe:      pipe,
		recorder:  recorder,
		scheduler: scheduler,
	}

	d.watcher, err = NewWatcher(m, d.rearchive)
	if err != nil {
		return nil, err
	}

	if cfg.Daemon.NATSURL != "" {
		d.publisher, err = NewPublisher(cfg.Daemon.NATSURL, cfg.Daemon.Subject)
		if err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	d.server = &http.Server{Addr: cfg.Daemon.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	return d, nil
}

// Start runs the daemon until the context is canceled.
func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Starting daemon",
		"listen", d.cfg.Daemon.Listen,
		"refresh_interval", d.cfg.Daemon.RefreshInterval,
		"archive", d.cfg.Archive.Name)

	if _, err := d.scheduler.ScheduleRefresh(d.cfg.RefreshInterval(), func() { d.refresh(ctx) }); err != nil {
		return err
	}
	d.scheduler.Start(ctx)

	if err := d.watcher.Start(ctx); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Run one refresh immediately so a fresh daemon has data to serve.
	d.refresh(ctx)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Stop shuts everything down within the context's deadline.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Stopping daemon")

	var firstErr error
	if err := d.scheduler.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.watcher.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	d.publisher.Close()
	if err := d.pipe.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// refresh reruns the pipeline from the API and re-archives the result.
func (d *Daemon) refresh(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slog.Info("Scheduled refresh starting")
	if err := d.pipe.ClearCache(ctx); err != nil {
		slog.Error("Failed to clear stage cache", "error", err)
		return
	}

	result, err := d.pipe.Run(ctx)
	if err != nil {
		slog.Error("Refresh failed", "error", err)
		return
	}
	d.publisher.Publish(Event{Type: "refresh", RunID: result.RunID})

	d.rebuildArchiveLocked(result.RunID)
}

// rearchive rebuilds the archive when watched files change.
func (d *Daemon) rearchive() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rebuildArchiveLocked("")
}

// rebuildArchiveLocked rebuilds the archive unless the manifest content is
// unchanged since the last build. Callers hold d.mu.
func (d *Daemon) rebuildArchiveLocked(runID string) {
	hash, err := d.manifest.Hash()
	if err != nil {
		slog.Error("Failed to hash manifest", "error", err)
		return
	}
	if hash == d.lastHash {
		slog.Debug("Manifest unchanged, skipping archive rebuild")
		return
	}

	start := time.Now()
	if err := d.builder.Rebuild(); err != nil {
		d.recorder.IncArchiveOutcome("failed")
		slog.Error("Archive rebuild failed", "error", err)
		return
	}
	d.recorder.IncArchiveOutcome("success")
	d.recorder.ObserveArchiveDuration(time.Since(start))
	d.lastHash = hash

	d.publisher.Publish(Event{Type: "archive", RunID: runID, Archive: d.builder.Path(), Hash: hash})
	slog.Info("Archive rebuilt", "path", d.builder.Path(), "duration", time.Since(start))
}
