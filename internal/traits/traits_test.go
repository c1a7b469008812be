package traits

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcfg "github.com/herbario-cl/herbario/internal/config"
	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/retry"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseAcceptedNames(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "names.csv",
		"id,accepted_full_name,family\n"+
			"1,Araucaria araucana,Araucariaceae\n"+
			"2,,Fabaceae\n"+
			"3,Quillaja saponaria,Quillajaceae\n")

	names, err := ParseAcceptedNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Araucaria araucana", "Quillaja saponaria"}, names)
}

func TestParseAcceptedNamesMissingColumn(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "names.csv", "id,name\n1,x\n")

	_, err := ParseAcceptedNames(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))
}

func TestParseAcceptedNamesRaggedRows(t *testing.T) {
	path := writeCSV(t, t.TempDir(), "names.csv",
		"id,accepted_full_name\n1\n2,Nothofagus obliqua\n")

	names, err := ParseAcceptedNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nothofagus obliqua"}, names)
}

func TestAcceptedNamesReusesCache(t *testing.T) {
	dataDir := t.TempDir()
	writeCSV(t, dataDir, CacheFileName, "accepted_full_name\nAraucaria araucana\n")

	// A bogus repo URL proves the cache short-circuits the clone.
	f := NewFetcher(appcfg.TraitsConfig{RepoURL: "https://invalid.example.test/none.git"}, dataDir, retry.DefaultPolicy())
	names, err := f.AcceptedNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Araucaria araucana"}, names)
}

func TestAcceptedNamesRetriesCloneFailures(t *testing.T) {
	// A local path that is not a repository fails every clone attempt
	// without touching the network.
	cfg := appcfg.TraitsConfig{RepoURL: filepath.Join(t.TempDir(), "missing.git")}
	policy := retry.NewPolicy(appcfg.RetryBackoffFixed, time.Millisecond, time.Millisecond, 1)
	f := NewFetcher(cfg, t.TempDir(), policy)

	_, err := f.AcceptedNames(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNetwork))
	assert.True(t, apperrors.IsRetryable(err), "clone failures must stay classified for the retry loop")
}

func TestCachePath(t *testing.T) {
	f := NewFetcher(appcfg.TraitsConfig{}, "/var/lib/herbario", retry.DefaultPolicy())
	assert.Equal(t, filepath.Join("/var/lib/herbario", CacheFileName), f.CachePath())
}
