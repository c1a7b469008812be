// Package dataset filters collected species against the accepted-names
// reference and reduces detail records into an analysis-ready table.
package dataset

import (
	"log/slog"

	"github.com/herbario-cl/herbario/internal/herbario"
)

// FilterAccepted keeps the species whose scientific name appears in the
// accepted-names list. Matching is accent- and case-insensitive.
func FilterAccepted(species []herbario.SpeciesRef, acceptedNames []string) []herbario.SpeciesRef {
	accepted := make(map[string]struct{}, len(acceptedNames))
	for _, name := range acceptedNames {
		accepted[FoldName(name)] = struct{}{}
	}

	var kept []herbario.SpeciesRef
	for _, sp := range species {
		if sp.ScientificName == "" {
			continue
		}
		if _, ok := accepted[FoldName(sp.ScientificName)]; ok {
			kept = append(kept, sp)
		}
	}

	slog.Info("Filtered species against reference", "collected", len(species), "accepted", len(kept))
	return kept
}
