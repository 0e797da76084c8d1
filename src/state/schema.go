package state

import (
	"github.com/sashakt-platform/sashakt-ops/src/pkg/migration"
)

// DatabaseTypeOps is the registry key of the local audit database.
const DatabaseTypeOps migration.DatabaseType = "ops"

func init() {
	migration.MustRegisterSchema(&migration.DatabaseSchema{
		Type:            DatabaseTypeOps,
		Category:        migration.CategoryNormal,
		MigrationSource: embeddedSource{},
		Description:     "run history and revision ledger",
	})
}
