// Package database provides SQLite connectivity for the frame capture store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent reads
//   - Forward-only schema migrations from an fs.FS
//   - Single-writer connection pooling
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql. New
// columns must be NULLABLE or have DEFAULT values so older binaries keep
// working against a migrated database.
package database
