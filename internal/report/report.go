// Package report renders the run summary artifacts: a markdown summary and
// its HTML rendering, both of which are manifest entries for the archive.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/herbario-cl/herbario/internal/dataset"
	apperrors "github.com/herbario-cl/herbario/internal/errors"
)

const (
	// SummaryFileName is the markdown summary artifact.
	SummaryFileName = "summary.md"
	// HTMLFileName is the rendered HTML artifact.
	HTMLFileName = "report.html"
)

// Stats summarizes one collection run for the report.
type Stats struct {
	RunID       string
	GeneratedAt time.Time
	Collected   int // species references returned by the list endpoint
	Accepted    int // references surviving the accepted-names filter
	Detailed    int // detail records fetched
}

// Writer renders report artifacts into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a report writer for the given directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// SummaryPath returns the markdown artifact path.
func (w *Writer) SummaryPath() string { return filepath.Join(w.dir, SummaryFileName) }

// HTMLPath returns the HTML artifact path.
func (w *Writer) HTMLPath() string { return filepath.Join(w.dir, HTMLFileName) }

// Write renders both artifacts from the run stats and the simplified records.
func (w *Writer) Write(stats Stats, records []dataset.Record) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return apperrors.Filesystem(err, "failed to create report directory")
	}

	summary := BuildSummary(stats, records)
	if err := os.WriteFile(w.SummaryPath(), []byte(summary), 0644); err != nil {
		return apperrors.Filesystem(err, "failed to write summary artifact")
	}

	htmlDoc, err := RenderHTML(summary)
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.HTMLPath(), []byte(htmlDoc), 0644); err != nil {
		return apperrors.Filesystem(err, "failed to write HTML artifact")
	}
	return nil
}

// BuildSummary produces the markdown run summary.
func BuildSummary(stats Stats, records []dataset.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Herbario collection summary\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", stats.RunID, stats.GeneratedAt.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "## Pipeline\n\n")
	fmt.Fprintf(&b, "| Stage | Species |\n|---|---|\n")
	fmt.Fprintf(&b, "| Collected | %d |\n", stats.Collected)
	fmt.Fprintf(&b, "| Accepted | %d |\n", stats.Accepted)
	fmt.Fprintf(&b, "| Detailed | %d |\n\n", stats.Detailed)

	fmt.Fprintf(&b, "## Conservation states\n\n")
	counts := conservationCounts(records)
	if len(counts) == 0 {
		fmt.Fprintf(&b, "No records exported.\n")
	} else {
		fmt.Fprintf(&b, "| State | Species |\n|---|---|\n")
		for _, c := range counts {
			fmt.Fprintf(&b, "| %s | %d |\n", c.state, c.count)
		}
	}

	return b.String()
}

type stateCount struct {
	state string
	count int
}

// conservationCounts tallies records per conservation state, most common first.
func conservationCounts(records []dataset.Record) []stateCount {
	tally := map[string]int{}
	for _, rec := range records {
		tally[rec.ConservationState]++
	}

	counts := make([]stateCount, 0, len(tally))
	for state, count := range tally {
		counts = append(counts, stateCount{state, count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].state < counts[j].state
	})
	return counts
}

// RenderHTML converts the markdown summary into a standalone HTML document
// and verifies the result parses.
func RenderHTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", apperrors.Wrap(err, apperrors.CategoryInternal, apperrors.SeverityError, "failed to render summary HTML")
	}

	doc := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Herbario collection report</title></head>
<body>
%s</body>
</html>
`, body.String())

	if _, err := Outline(doc); err != nil {
		return "", err
	}
	return doc, nil
}
