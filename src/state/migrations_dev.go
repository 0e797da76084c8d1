//go:build dev

package state

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// In dev builds the SQL files are read from disk so schema edits do not need
// a rebuild.
type embeddedSource struct{}

func (embeddedSource) GetFS() (fs.FS, error) {
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "migrations")
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	return os.DirFS(dir), nil
}

func (embeddedSource) GetSubDir() string { return "" }
func (embeddedSource) IsEmbedded() bool  { return false }
