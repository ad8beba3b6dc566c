package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.hcl"))
	touch(t, filepath.Join(dir, "a.hcl"))
	touch(t, filepath.Join(dir, "nested", "deep", "c.hcl"))
	touch(t, filepath.Join(dir, "readme.md"))

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.hcl"),
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "deep", "c.hcl"),
	}, files)
}

func TestFindFilesByExtensionEmptyDir(t *testing.T) {
	files, err := FindFilesByExtension(t.TempDir(), ".hcl")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindFilesByExtensionMissingRoot(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")
	assert.Error(t, err)
}

func TestFindFilesByExtensionEmptyExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFilesByExtension(".", "") })
}
