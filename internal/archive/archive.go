// Package archive packages the project's manifest files into a single zip
// archive, with overwrite-only semantics: every build produces a fresh
// archive reflecting exactly the current manifest.
package archive

import (
	"archive/zip"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/manifest"
)

// Builder creates and removes the project archive.
type Builder struct {
	manifest manifest.Manifest
	path     string
}

// NewBuilder returns a builder for the given manifest and archive path.
func NewBuilder(m manifest.Manifest, path string) *Builder {
	return &Builder{manifest: m, path: path}
}

// Path returns the archive's output path.
func (b *Builder) Path() string { return b.path }

// Clean deletes the archive if it exists and reports whether it removed
// anything. Absence is not an error; the operation is idempotent. Permission
// or I/O faults are fatal.
func (b *Builder) Clean() (bool, error) {
	err := os.Remove(b.path)
	if err == nil {
		slog.Info("Removed stale archive", "path", b.path)
		return true, nil
	}
	if os.IsNotExist(err) {
		slog.Debug("No archive to clean", "path", b.path)
		return false, nil
	}
	return false, apperrors.Filesystem(err, "failed to remove archive")
}

// Build validates the manifest and writes a fresh archive containing each
// entry under its relative path. If any entry is missing or unreadable the
// build fails and no archive is left behind.
func (b *Builder) Build() error {
	if err := b.manifest.Validate(); err != nil {
		return err
	}

	out, err := os.Create(b.path)
	if err != nil {
		return apperrors.Filesystem(err, "failed to create archive")
	}

	if err := b.writeEntries(out); err != nil {
		_ = out.Close()
		// Discard the partial archive so a failed build never leaves a
		// file claiming success.
		_ = os.Remove(b.path)
		return err
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(b.path)
		return apperrors.Filesystem(err, "failed to finalize archive")
	}

	slog.Info("Archive built", "path", b.path, "entries", b.manifest.Len())
	return nil
}

// Rebuild runs Clean then Build, unconditionally, in that order.
func (b *Builder) Rebuild() error {
	if _, err := b.Clean(); err != nil {
		return err
	}
	return b.Build()
}

func (b *Builder) writeEntries(out *os.File) error {
	zw := zip.NewWriter(out)

	for _, entry := range b.manifest.Entries() {
		if err := writeEntry(zw, entry); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return apperrors.Filesystem(err, "failed to close zip writer")
	}
	return nil
}

func writeEntry(zw *zip.Writer, entry string) error {
	info, err := os.Stat(entry)
	if err != nil {
		return apperrors.MissingInput(entry, err)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryArchive, apperrors.SeverityFatal, "failed to build zip header").
			WithContext("entry", entry)
	}
	hdr.Name = filepath.ToSlash(entry)
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryArchive, apperrors.SeverityFatal, "failed to create zip entry").
			WithContext("entry", entry)
	}

	f, err := os.Open(entry)
	if err != nil {
		return apperrors.MissingInput(entry, err)
	}
	_, err = io.Copy(w, f)
	_ = f.Close()
	if err != nil {
		return apperrors.Filesystem(err, "failed to write zip entry").WithContext("entry", entry)
	}
	return nil
}
