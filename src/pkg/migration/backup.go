package migration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// BackupSuffix is the timestamped suffix appended to backup files.
	BackupSuffix = ".backup_%s"
	// MaxBackupCount caps how many backups are kept per database.
	MaxBackupCount = 5
)

// BackupManager creates and restores timestamped copies of a database file.
type BackupManager struct {
	dbPath string
}

func NewBackupManager(dbPath string) *BackupManager {
	return &BackupManager{dbPath: dbPath}
}

// CreateBackup copies the database aside. A database that does not exist yet
// needs no backup and yields an empty path.
func (m *BackupManager) CreateBackup() (string, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	backupPath := m.dbPath + fmt.Sprintf(BackupSuffix, timestamp)

	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyFile(m.dbPath, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	// Cleanup failure must not fail the backup itself.
	_ = m.CleanupOldBackups()

	return backupPath, nil
}

// RestoreBackup replaces the database with the given backup.
func (m *BackupManager) RestoreBackup(backupPath string) error {
	if backupPath == "" {
		return ErrNoBackup
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNoBackup, backupPath)
	}
	if _, err := os.Stat(m.dbPath); err == nil {
		if err := os.Remove(m.dbPath); err != nil {
			return fmt.Errorf("failed to remove current database: %w", err)
		}
	}
	if err := copyFile(backupPath, m.dbPath); err != nil {
		return fmt.Errorf("failed to restore from backup: %w", err)
	}
	return nil
}

func (m *BackupManager) RemoveBackup(backupPath string) error {
	if backupPath == "" {
		return nil
	}
	if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	return nil
}

// ListBackups returns all backups for this database, newest first.
func (m *BackupManager) ListBackups() ([]string, error) {
	dir := filepath.Dir(m.dbPath)
	base := filepath.Base(m.dbPath)
	pattern := base + ".backup_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), pattern) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	// Timestamped names sort chronologically.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i] > backups[j]
	})
	return backups, nil
}

// CleanupOldBackups removes backups beyond MaxBackupCount.
func (m *BackupManager) CleanupOldBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackupCount {
		return nil
	}
	for _, backup := range backups[MaxBackupCount:] {
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old backup %s: %w", backup, err)
		}
	}
	return nil
}

// GetLatestBackup returns the newest backup path, or empty when none exist.
func (m *BackupManager) GetLatestBackup() (string, error) {
	backups, err := m.ListBackups()
	if err != nil {
		return "", err
	}
	if len(backups) == 0 {
		return "", nil
	}
	return backups[0], nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return err
	}
	return dstFile.Sync()
}
