package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
)

// ExportFileName is the analysis-ready table written under the data directory.
const ExportFileName = "herbario_species.csv"

// WriteCSV writes the simplified records to path, creating parent directories
// as needed. The file is fully rewritten on every export.
func WriteCSV(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.Filesystem(err, "failed to create export directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.Filesystem(err, "failed to create export file")
	}

	w := csv.NewWriter(file)

	header := append([]string{"id", "scientific_name", "habit", "status", "conservation_state"}, RegionNames()...)
	if err := w.Write(header); err != nil {
		_ = file.Close()
		return apperrors.Filesystem(err, "failed to write export header")
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.ID),
			rec.ScientificName,
			rec.Habit,
			rec.Status,
			rec.ConservationState,
		}
		for _, flag := range rec.Regions {
			row = append(row, strconv.Itoa(flag))
		}
		if err := w.Write(row); err != nil {
			_ = file.Close()
			return apperrors.Filesystem(err, "failed to write export row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return apperrors.Filesystem(err, "failed to flush export file")
	}
	return file.Close()
}
