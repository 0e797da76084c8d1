package alembic

import (
	"context"
	"strings"
)

// Status is a snapshot of the migration state on both sides of the container
// boundary.
type Status struct {
	// Current is the database revision as reported by `alembic current`.
	Current string
	// Files are the version file names tracked on the host.
	Files []string
	// Problems are revision-graph defects found on the host side.
	Problems []string
}

// Status reports the database's current revision together with the host-side
// history and its lint findings.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	out, err := m.alembic(ctx, "current")
	if err != nil {
		return nil, err
	}

	history, err := LoadHistory(m.cfg.Migrations.HostVersionsDir)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Current:  strings.TrimSpace(string(out)),
		Problems: history.Lint(),
	}
	for _, rev := range history.Revisions {
		status.Files = append(status.Files, rev.Filename)
	}
	return status, nil
}
