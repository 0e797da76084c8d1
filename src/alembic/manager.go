package alembic

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sashakt-platform/sashakt-ops/src/configs"
	"github.com/sashakt-platform/sashakt-ops/src/container"
)

// ErrEmptyMessage is returned when a migration is generated without a message.
var ErrEmptyMessage = errors.New("migration message cannot be empty")

// generatedFileRe matches alembic's "Generating /path/to/file.py ... done"
// progress line.
var generatedFileRe = regexp.MustCompile(`Generating\s+(\S+\.py)`)

// Manager runs the alembic lifecycle against the backend container and keeps
// the host-side versions directory in step with it.
type Manager struct {
	rt  container.Runtime
	cfg *configs.Config
}

func NewManager(rt container.Runtime, cfg *configs.Config) *Manager {
	return &Manager{rt: rt, cfg: cfg}
}

func (m *Manager) service() string {
	return m.cfg.Backend.Service
}

// alembic runs the alembic CLI inside the backend container.
func (m *Manager) alembic(ctx context.Context, args ...string) ([]byte, error) {
	return m.rt.Exec(ctx, m.service(), append([]string{"alembic"}, args...)...)
}

// Generate produces a new autogenerated revision inside the container and
// returns the base name of the generated version file. The file is not
// visible on the host until Sync runs.
func (m *Manager) Generate(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	logger := logrus.WithField("message", message)
	logger.Info("generating migration")

	out, err := m.alembic(ctx, "revision", "--autogenerate", "-m", message)
	if err != nil {
		return "", err
	}

	file := ""
	if match := generatedFileRe.FindSubmatch(out); match != nil {
		path := string(match[1])
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			path = path[i+1:]
		}
		file = path
	}
	logger.WithField("file", file).Info("migration generated")
	return file, nil
}
