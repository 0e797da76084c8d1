package alembic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/pkg/utils"
)

// Sync copies the container's versions directory to the host and merges it
// into the tracked versions directory. Files are staged in a temporary
// directory first so a failed copy never leaves the host tree half-written.
// It returns the base names of version files that were not on the host before,
// sorted.
func (m *Manager) Sync(ctx context.Context) ([]string, error) {
	hostDir := m.cfg.Migrations.HostVersionsDir

	before, err := utils.ListFilesWithExt(hostDir, ".py")
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(before))
	for _, name := range before {
		existing[name] = true
	}

	staging, err := os.MkdirTemp("", "versions-sync-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	// Trailing /. makes compose cp copy the directory contents rather than
	// nesting the directory itself under the target.
	src := m.cfg.Migrations.ContainerVersionsDir + "/."
	if err := m.rt.CopyFrom(ctx, m.service(), src, staging); err != nil {
		return nil, err
	}

	staged, err := utils.ListFilesWithExt(staging, ".py")
	if err != nil {
		return nil, err
	}

	var added []string
	for _, name := range staged {
		if _, _, ok := ParseFilename(name); !ok {
			continue
		}
		if err := utils.CopyFile(filepath.Join(staging, name), filepath.Join(hostDir, name)); err != nil {
			return nil, err
		}
		if !existing[name] {
			added = append(added, name)
		}
	}

	logrus.WithFields(logrus.Fields{
		"staged": len(staged),
		"added":  len(added),
	}).Info("synchronized migrations to host")
	return added, nil
}
