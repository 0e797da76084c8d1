package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))

	require.NoError(t, CopyFile(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
	assert.True(t, FileExists(dst))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestListFilesWithExt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.py", "a.py", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.py"), 0755))

	names, err := ListFilesWithExt(dir, ".py")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, names)
}

func TestListFilesWithExt_MissingDir(t *testing.T) {
	names, err := ListFilesWithExt(filepath.Join(t.TempDir(), "gone"), ".py")
	require.NoError(t, err)
	assert.Empty(t, names)
}
