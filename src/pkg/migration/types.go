package migration

import (
	"database/sql"
	"io/fs"
)

// DatabaseType identifies a local database kind in the schema registry.
type DatabaseType string

// DatabaseCategory decides how carefully a migration treats the data.
type DatabaseCategory int

const (
	// CategoryCritical data is backed up before migrating and restored on
	// failure.
	CategoryCritical DatabaseCategory = iota
	// CategoryNormal data is migrated without a mandatory backup.
	CategoryNormal
	// CategoryDisposable data can be rebuilt, so a failed migration may
	// simply recreate the database.
	CategoryDisposable
)

// MigrationSource supplies the SQL migration files.
type MigrationSource interface {
	// GetFS returns the filesystem holding the migration files.
	GetFS() (fs.FS, error)
	// GetSubDir returns the subdirectory inside the FS, if any.
	GetSubDir() string
	// IsEmbedded reports whether the files are compiled into the binary.
	IsEmbedded() bool
}

// DatabaseSchema describes one local database.
type DatabaseSchema struct {
	Type            DatabaseType
	Category        DatabaseCategory
	MigrationSource MigrationSource
	Description     string
}

// MigrationConfig configures a single migration run.
type MigrationConfig struct {
	// DBPath is the sqlite file to migrate.
	DBPath string
	// Schema describes the database being migrated.
	Schema *DatabaseSchema
	// ForceBackup overrides the category-based backup decision when set.
	ForceBackup *bool
	// DB is an optional already-open connection; nil means open and close
	// one internally.
	DB *sql.DB
}

// MigrationResult reports what a run did.
type MigrationResult struct {
	Success     bool
	FromVersion uint
	ToVersion   uint
	BackupPath  string
	Error       error
	WasDirty    bool
}

// LockInfo is the JSON payload of a migration lock file.
type LockInfo struct {
	DBPath        string       `json:"db_path"`
	BackupPath    string       `json:"backup_path"`
	StartTime     string       `json:"start_time"`
	FromVersion   uint         `json:"from_version"`
	TargetVersion uint         `json:"target_version"`
	PID           int          `json:"pid"`
	SchemaType    DatabaseType `json:"schema_type"`
}
