// Package migration is a small framework for migrating the tool's local
// sqlite databases with golang-migrate.
//
// Features:
//
//  1. Schema registry: each local database declares a DatabaseSchema with a
//     migration source (embedded SQL files in release builds, on-disk files
//     in dev builds).
//  2. Backup and recovery: critical databases are backed up before migrating
//     and restored when the migration fails.
//  3. Lock files: a JSON lock file next to the database prevents concurrent
//     migrations and lets the next start detect an interrupted one.
//
// Typical use:
//
//	migration.MustRegisterSchema(&migration.DatabaseSchema{
//	    Type:            "ops",
//	    Category:        migration.CategoryNormal,
//	    MigrationSource: mySource,
//	})
//	migrator, err := migration.NewMigrator(&migration.MigrationConfig{
//	    DBPath: "/path/to/ops.db",
//	    Schema: schema,
//	})
//	result, err := migrator.Run()
package migration
