package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/herbario-cl/herbario/internal/errors"
	"github.com/herbario-cl/herbario/internal/manifest"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// extract reads every entry of the archive into a map of name -> content.
func extract(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	got := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		buf := make([]byte, f.UncompressedSize64)
		n, _ := rc.Read(buf)
		_ = rc.Close()
		got[f.Name] = string(buf[:n])
	}
	return got
}

func TestBuildRoundTrip(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "a.txt", "alpha")
	writeFile(t, "data/b.csv", "x,y\n1,2\n")

	b := NewBuilder(manifest.New([]string{"a.txt", "data/b.csv"}), "out.zip")
	require.NoError(t, b.Build())

	got := extract(t, "out.zip")
	assert.Len(t, got, 2)
	assert.Equal(t, "alpha", got["a.txt"])
	assert.Equal(t, "x,y\n1,2\n", got["data/b.csv"])
}

func TestCleanIsIdempotent(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "out.zip", "stale")

	b := NewBuilder(manifest.New([]string{"a.txt"}), "out.zip")
	removed, err := b.Clean()
	require.NoError(t, err)
	assert.True(t, removed)
	_, statErr := os.Stat("out.zip")
	assert.True(t, os.IsNotExist(statErr))

	// Second clean over an absent archive is a no-op, not an error.
	removed, err = b.Clean()
	require.NoError(t, err)
	assert.False(t, removed, "clean of an absent archive must report nothing removed")
}

func TestBuildMissingEntryLeavesNoArchive(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "a.txt", "alpha")

	b := NewBuilder(manifest.New([]string{"a.txt", "missing.csv"}), "out.zip")
	err := b.Build()
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryInput))

	_, statErr := os.Stat("out.zip")
	assert.True(t, os.IsNotExist(statErr), "failed build must not leave an archive behind")
}

func TestRebuildReplacesStaleArchive(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "old.txt", "old contents")
	writeFile(t, "new.txt", "new contents")

	// A prior run archived old.txt.
	old := NewBuilder(manifest.New([]string{"old.txt"}), "out.zip")
	require.NoError(t, old.Build())

	// The next run's manifest names only new.txt; rebuild must leave no residue.
	b := NewBuilder(manifest.New([]string{"new.txt"}), "out.zip")
	require.NoError(t, b.Rebuild())

	got := extract(t, "out.zip")
	assert.Len(t, got, 1)
	assert.Equal(t, "new contents", got["new.txt"])
	assert.NotContains(t, got, "old.txt")
}

func TestBuildOverwritesWithoutClean(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "a.txt", "alpha")

	b := NewBuilder(manifest.New([]string{"a.txt"}), "out.zip")
	require.NoError(t, b.Build())
	require.NoError(t, b.Build())

	got := extract(t, "out.zip")
	assert.Len(t, got, 1, "repeated build must fully replace, never append")
}

func TestBuildPreservesEntryOrder(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, "b.txt", "b")
	writeFile(t, "a.txt", "a")

	b := NewBuilder(manifest.New([]string{"b.txt", "a.txt"}), "out.zip")
	require.NoError(t, b.Build())

	r, err := zip.OpenReader("out.zip")
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 2)
	assert.Equal(t, "b.txt", r.File[0].Name)
	assert.Equal(t, "a.txt", r.File[1].Name)
}
