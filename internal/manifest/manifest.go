// Package manifest defines the fixed, ordered list of project files that the
// archive builder packages, and validation over it.
package manifest

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
)

// defaultEntries is the built-in file list. Order is preserved inside the
// archive.
var defaultEntries = []string{
	"config.yaml",
	"data/species_names.csv",
	"data/herbario_species.csv",
	"report/summary.md",
	"report/report.html",
}

// Manifest is an ordered sequence of relative file paths, fixed at build time.
type Manifest struct {
	entries []string
}

// Default returns the built-in manifest.
func Default() Manifest {
	return New(nil)
}

// New builds a manifest from the given entries; an empty list yields the
// built-in default. The slice is copied so callers cannot mutate the manifest
// afterwards.
func New(entries []string) Manifest {
	if len(entries) == 0 {
		entries = defaultEntries
	}
	copied := make([]string, len(entries))
	copy(copied, entries)
	return Manifest{entries: copied}
}

// Entries returns the manifest's paths in order.
func (m Manifest) Entries() []string {
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of manifest entries.
func (m Manifest) Len() int { return len(m.entries) }

// Validate checks that every entry resolves to a readable regular file
// relative to the current working directory. The first failing entry aborts
// with a fatal input error.
func (m Manifest) Validate() error {
	for _, entry := range m.entries {
		info, err := os.Stat(entry)
		if err != nil {
			return apperrors.MissingInput(entry, err)
		}
		if !info.Mode().IsRegular() {
			return apperrors.MissingInput(entry, fmt.Errorf("not a regular file"))
		}
		f, err := os.Open(entry)
		if err != nil {
			return apperrors.MissingInput(entry, err)
		}
		_ = f.Close()
	}
	return nil
}

// Hash computes a deterministic content hash over the manifest's entries.
// Each entry contributes its length-prefixed path and the digest of its
// contents, so adjacent entry boundaries cannot collide. Used to detect
// whether a rebuild of the archive would change anything.
func (m Manifest) Hash() (string, error) {
	h := sha256.New()
	for _, entry := range m.entries {
		fmt.Fprintf(h, "%d:%s", len(entry), entry)
		f, err := os.Open(entry)
		if err != nil {
			return "", apperrors.MissingInput(entry, err)
		}
		fh := sha256.New()
		_, err = io.Copy(fh, f)
		_ = f.Close()
		if err != nil {
			return "", fmt.Errorf("hash %s: %w", entry, err)
		}
		h.Write(fh.Sum(nil))
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
