package migration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LockFileExtension is appended to the database path to form the lock
	// file path.
	LockFileExtension = ".migration.lock"
)

// LockManager guards a database against concurrent migrations with a lock
// file next to it. A leftover lock file after a crash marks an interrupted
// migration.
type LockManager struct {
	dbPath   string
	lockPath string
}

func NewLockManager(dbPath string) *LockManager {
	return &LockManager{
		dbPath:   dbPath,
		lockPath: dbPath + LockFileExtension,
	}
}

func (m *LockManager) GetLockPath() string {
	return m.lockPath
}

// Acquire writes the lock file. Fails if a lock already exists.
func (m *LockManager) Acquire(info *LockInfo) error {
	if m.IsLocked() {
		existingInfo, err := m.GetLockInfo()
		if err != nil {
			return fmt.Errorf("lock file exists but cannot be read: %w", err)
		}
		return fmt.Errorf("database is locked by migration started at %s (PID: %d)",
			existingInfo.StartTime, existingInfo.PID)
	}

	if err := os.MkdirAll(filepath.Dir(m.lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock file directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock info: %w", err)
	}
	if err := os.WriteFile(m.lockPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write lock file: %w", err)
	}
	return nil
}

// Release removes the lock file. Releasing an unlocked database is a no-op.
func (m *LockManager) Release() error {
	if !m.IsLocked() {
		return nil
	}
	if err := os.Remove(m.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

func (m *LockManager) IsLocked() bool {
	_, err := os.Stat(m.lockPath)
	return err == nil
}

func (m *LockManager) GetLockInfo() (*LockInfo, error) {
	data, err := os.ReadFile(m.lockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock info: %w", err)
	}
	return &info, nil
}

// CreateLockInfo builds the lock payload for a migration starting now.
func CreateLockInfo(dbPath, backupPath string, fromVersion uint, schemaType DatabaseType) *LockInfo {
	return &LockInfo{
		DBPath:      dbPath,
		BackupPath:  backupPath,
		StartTime:   time.Now().Format(time.RFC3339),
		FromVersion: fromVersion,
		PID:         os.Getpid(),
		SchemaType:  schemaType,
	}
}
