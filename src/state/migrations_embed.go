//go:build !dev

package state

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type embeddedSource struct{}

func (embeddedSource) GetFS() (fs.FS, error) { return migrationsFS, nil }
func (embeddedSource) GetSubDir() string     { return "migrations" }
func (embeddedSource) IsEmbedded() bool      { return true }
