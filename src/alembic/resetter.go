package alembic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/pkg/utils"
)

// baselineMessage is the message of the regenerated initial revision.
const baselineMessage = "initial migration"

// Reset destroys the migration history and regenerates a single baseline
// revision. It removes version files on both the host and the container side,
// stamps the database back to base, autogenerates the initial revision and
// syncs it out. Recovery from a mistaken reset is version control's job.
// Returns the base name of the baseline version file.
func (m *Manager) Reset(ctx context.Context) (string, error) {
	hostDir := m.cfg.Migrations.HostVersionsDir
	containerDir := m.cfg.Migrations.ContainerVersionsDir

	names, err := utils.ListFilesWithExt(hostDir, ".py")
	if err != nil {
		return "", err
	}
	removed := 0
	for _, name := range names {
		if _, _, ok := ParseFilename(name); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(hostDir, name)); err != nil {
			return "", fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	logrus.WithField("removed", removed).Info("cleared host migration files")

	// The versions directory may not be bind-mounted, so the container keeps
	// its own copies; clear them too or Sync would resurrect the old history.
	if _, err := m.rt.Exec(ctx, m.service(), "sh", "-c",
		fmt.Sprintf("rm -f %s/*.py", containerDir)); err != nil {
		return "", err
	}

	if _, err := m.alembic(ctx, "stamp", "base"); err != nil {
		return "", err
	}
	logrus.Info("database stamped to base")

	baseline, err := m.Generate(ctx, baselineMessage)
	if err != nil {
		return "", err
	}
	if _, err := m.Sync(ctx); err != nil {
		return "", err
	}

	// The whole point of a reset is a single-revision history; anything else
	// means the container directory held files the clear step missed.
	history, err := LoadHistory(hostDir)
	if err != nil {
		return "", err
	}
	if len(history.Revisions) != 1 || !history.Revisions[0].IsBase() {
		return "", fmt.Errorf("reset expected exactly one baseline revision, found %d", len(history.Revisions))
	}
	if baseline == "" {
		baseline = history.Revisions[0].Filename
	}
	return baseline, nil
}
