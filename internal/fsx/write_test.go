package fsx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous body"), 0o600))

	require.NoError(t, WriteFileAtomic(path, []byte("new"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.html"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestWriteFileCreatesParents(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteFile(root, filepath.Join("tag", "go.html"), []byte("<p>go</p>")))

	got, err := os.ReadFile(filepath.Join(root, "tag", "go.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>go</p>", string(got))
}
