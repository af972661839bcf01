// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files live in a single directory and follow the naming
// convention {version}_{description}.sql with a numeric version ("001",
// "002", ...). Each file runs inside its own transaction and is recorded
// in the schema_migrations table together with a checksum of its content,
// so a later run detects edits to already applied files. Versions must
// form a gapless sequence and every applied version must still have its
// file on disk.
//
// Example usage:
//
//	manager := migration.NewManager(pool.DB(), "migrations", logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
