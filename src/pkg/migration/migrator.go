package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

var (
	ErrMigrationFailed = errors.New("migration failed")
	ErrRollbackFailed  = errors.New("rollback failed")
	ErrLocked          = errors.New("database is locked by another migration")
	ErrNoBackup        = errors.New("no backup available for rollback")
)

// Migrator migrates one sqlite database to the newest schema version.
type Migrator struct {
	config        *MigrationConfig
	lockManager   *LockManager
	backupManager *BackupManager
	logger        *logrus.Entry
}

func NewMigrator(config *MigrationConfig) (*Migrator, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if config.Schema == nil {
		return nil, fmt.Errorf("schema cannot be nil")
	}

	return &Migrator{
		config:        config,
		lockManager:   NewLockManager(config.DBPath),
		backupManager: NewBackupManager(config.DBPath),
		logger: logrus.WithFields(logrus.Fields{
			"db_path":     config.DBPath,
			"schema_type": config.Schema.Type,
		}),
	}, nil
}

func (m *Migrator) shouldBackup() bool {
	if m.config.ForceBackup != nil {
		return *m.config.ForceBackup
	}
	return m.config.Schema.Category == CategoryCritical
}

// Run applies all pending migrations.
func (m *Migrator) Run() (*MigrationResult, error) {
	result := &MigrationResult{}

	if m.lockManager.IsLocked() {
		lockInfo, err := m.lockManager.GetLockInfo()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot read lock info: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("%w: started at %s (PID: %d)",
			ErrLocked, lockInfo.StartTime, lockInfo.PID)
	}

	if err := os.MkdirAll(filepath.Dir(m.config.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db := m.config.DB
	if db == nil {
		var err error
		db, err = sql.Open("sqlite", m.config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	mig, err := m.newMigrate(db)
	if err != nil {
		return nil, err
	}

	currentVersion, dirty, _ := mig.Version()
	result.FromVersion = currentVersion
	result.WasDirty = dirty

	var backupPath string
	if m.shouldBackup() {
		backupPath, err = m.backupManager.CreateBackup()
		if err != nil {
			return nil, fmt.Errorf("failed to create backup: %w", err)
		}
		result.BackupPath = backupPath

		if backupPath != "" {
			lockInfo := CreateLockInfo(m.config.DBPath, backupPath, currentVersion, m.config.Schema.Type)
			if err := m.lockManager.Acquire(lockInfo); err != nil {
				m.backupManager.RemoveBackup(backupPath)
				return nil, fmt.Errorf("failed to acquire lock: %w", err)
			}
			defer m.lockManager.Release()
		}
	}

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		result.Error = err

		if backupPath != "" && m.shouldBackup() {
			m.logger.WithError(err).Error("migration failed, attempting rollback")
			if rollbackErr := m.backupManager.RestoreBackup(backupPath); rollbackErr != nil {
				m.logger.WithError(rollbackErr).Error("rollback failed")
				return result, fmt.Errorf("%w: %v (%w: %v)",
					ErrMigrationFailed, err, ErrRollbackFailed, rollbackErr)
			}
			m.logger.Info("rollback completed successfully")
		}
		return result, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	newVersion, _, _ := mig.Version()
	result.ToVersion = newVersion
	result.Success = true

	if currentVersion != newVersion {
		m.logger.WithFields(logrus.Fields{
			"from_version": currentVersion,
			"to_version":   newVersion,
			"was_dirty":    dirty,
			"embedded":     m.config.Schema.MigrationSource.IsEmbedded(),
		}).Info("database migration completed")
	} else {
		m.logger.WithField("version", newVersion).Debug("database schema is up to date")
	}

	return result, nil
}

// CheckAndRecover detects an interrupted migration via its leftover lock
// file and, for critical databases, restores the recorded backup.
func (m *Migrator) CheckAndRecover() (bool, error) {
	if !m.lockManager.IsLocked() {
		return false, nil
	}

	lockInfo, err := m.lockManager.GetLockInfo()
	if err != nil {
		return false, fmt.Errorf("failed to read lock info: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"start_time":   lockInfo.StartTime,
		"pid":          lockInfo.PID,
		"from_version": lockInfo.FromVersion,
		"backup_path":  lockInfo.BackupPath,
	}).Warn("detected incomplete migration, attempting recovery")

	if m.config.Schema.Category == CategoryCritical && lockInfo.BackupPath != "" {
		if err := m.backupManager.RestoreBackup(lockInfo.BackupPath); err != nil {
			return true, fmt.Errorf("recovery failed: %w", err)
		}
		m.logger.Info("database recovered from backup")
	}

	m.lockManager.Release()
	return true, nil
}

// GetVersion reports the current schema version and dirty flag.
func (m *Migrator) GetVersion() (uint, bool, error) {
	db := m.config.DB
	if db == nil {
		var err error
		db, err = sql.Open("sqlite", m.config.DBPath)
		if err != nil {
			return 0, false, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	mig, err := m.newMigrate(db)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (m *Migrator) newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	migrationsFS, err := m.config.Schema.MigrationSource.GetFS()
	if err != nil {
		return nil, fmt.Errorf("failed to get migrations fs: %w", err)
	}

	subDir := m.config.Schema.MigrationSource.GetSubDir()
	if subDir == "" {
		subDir = "."
	}
	sourceDriver, err := iofs.New(migrationsFS, subDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, nil
}
