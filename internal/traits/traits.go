// Package traits provides the Rasgos-CL accepted-species reference list,
// fetched from its public git repository and cached locally as CSV.
package traits

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	appcfg "github.com/herbario-cl/herbario/internal/config"
	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/retry"
)

// CacheFileName is the local copy of the reference CSV under the data directory.
const CacheFileName = "species_names.csv"

// acceptedNameColumn is the Rasgos-CL column holding accepted scientific names.
const acceptedNameColumn = "accepted_full_name"

// Fetcher retrieves and caches the Rasgos-CL species-names dataset.
type Fetcher struct {
	cfg     appcfg.TraitsConfig
	dataDir string
	policy  retry.Policy
}

// NewFetcher creates a fetcher writing its cache under dataDir. Transient
// clone failures are retried per the policy.
func NewFetcher(cfg appcfg.TraitsConfig, dataDir string, policy retry.Policy) *Fetcher {
	return &Fetcher{cfg: cfg, dataDir: dataDir, policy: policy}
}

// CachePath returns where the reference CSV is cached.
func (f *Fetcher) CachePath() string {
	return filepath.Join(f.dataDir, CacheFileName)
}

// AcceptedNames returns the accepted scientific names, fetching the dataset
// if no local cache exists yet.
func (f *Fetcher) AcceptedNames(ctx context.Context) ([]string, error) {
	cachePath := f.CachePath()
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		if err := f.fetch(ctx); err != nil {
			return nil, err
		}
	} else {
		slog.Debug("Reusing cached reference dataset", "path", cachePath)
	}
	return ParseAcceptedNames(cachePath)
}

// fetch shallow-clones the dataset repository and copies the reference CSV
// into the data directory, retrying transient clone failures.
func (f *Fetcher) fetch(ctx context.Context) error {
	slog.Info("Fetching Rasgos-CL reference dataset", "url", f.cfg.RepoURL, "branch", f.cfg.Branch)

	if err := os.MkdirAll(f.dataDir, 0755); err != nil {
		return apperrors.Filesystem(err, "failed to create data directory")
	}
	return f.policy.Do(ctx, func() error {
		return f.cloneAndCache(ctx)
	})
}

// cloneAndCache is one clone attempt into a fresh temporary directory.
func (f *Fetcher) cloneAndCache(ctx context.Context) error {
	tmpDir, err := os.MkdirTemp("", "herbario-traits-*")
	if err != nil {
		return apperrors.Filesystem(err, "failed to create clone directory")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			slog.Warn("Failed to cleanup clone directory", "path", tmpDir, "error", err)
		}
	}()

	cloneOptions := &git.CloneOptions{
		URL:   f.cfg.RepoURL,
		Depth: 1,
	}
	if f.cfg.Branch != "" {
		cloneOptions.ReferenceName = plumbing.ReferenceName("refs/heads/" + f.cfg.Branch)
		cloneOptions.SingleBranch = true
	}

	repository, err := git.PlainCloneContext(ctx, tmpDir, false, cloneOptions)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.CategoryNetwork, apperrors.SeverityError, "failed to clone reference dataset").
			WithContext("url", f.cfg.RepoURL)
	}
	if ref, herr := repository.Head(); herr == nil {
		slog.Info("Reference dataset cloned", "commit", ref.Hash().String()[:8])
	}

	src := filepath.Join(tmpDir, filepath.FromSlash(f.cfg.CSVPath))
	if err := copyFile(src, f.CachePath()); err != nil {
		return apperrors.Filesystem(err, "failed to cache reference CSV").WithContext("csv_path", f.cfg.CSVPath)
	}
	return nil
}

// ParseAcceptedNames reads the reference CSV and returns the values of the
// accepted-name column, skipping blanks.
func ParseAcceptedNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Filesystem(err, "failed to open reference CSV")
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryDecode, apperrors.SeverityFatal, "failed to read reference CSV header")
	}

	nameIdx := -1
	for i, col := range header {
		if col == acceptedNameColumn {
			nameIdx = i
			break
		}
	}
	if nameIdx == -1 {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.SeverityFatal,
			fmt.Sprintf("reference CSV has no %q column", acceptedNameColumn))
	}

	var names []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryDecode, apperrors.SeverityFatal, "failed to read reference CSV row")
		}
		if nameIdx < len(record) && record[nameIdx] != "" {
			names = append(names, record[nameIdx])
		}
	}

	slog.Info("Loaded accepted species names", "count", len(names))
	return names, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
