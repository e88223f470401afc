package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ErrMigrationChanged means an applied migration file no longer matches
// the checksum recorded when it ran.
var ErrMigrationChanged = errors.New("database: applied migration was modified")

// migrationFile matches YYYYMMDD_HHMMSS[_description].up.sql.
var migrationFile = regexp.MustCompile(`^(\d{8}_\d{6})(?:_(\w+))?\.up\.sql$`)

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL,
	applied_at TEXT NOT NULL
) STRICT`

// Migration is one up migration read from the migrations filesystem.
type Migration struct {
	Version  string // YYYYMMDD_HHMMSS
	Name     string
	UpSQL    string
	Checksum string // hex SHA-256 of UpSQL
}

// MigrationRecord is one row of schema_migrations.
type MigrationRecord struct {
	Version   string
	Checksum  string
	AppliedAt time.Time
}

// Migrate applies every pending migration in version order, each in its own
// transaction. A failure leaves earlier migrations committed; the next call
// resumes at the failed one. Down migrations do not exist.
func (db *DB) Migrate(ctx context.Context, fsys fs.FS) error {
	_, pending, err := db.MigrationStatus(ctx, fsys)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if err := db.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %s %s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// MigrationStatus compares fsys against schema_migrations. Both results are
// ordered by version. It fails with ErrMigrationChanged when an applied
// file has been edited since it ran.
func (db *DB) MigrationStatus(ctx context.Context, fsys fs.FS) ([]MigrationRecord, []Migration, error) {
	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, nil, fmt.Errorf("creating schema_migrations: %w", err)
	}

	available, err := readMigrations(fsys)
	if err != nil {
		return nil, nil, err
	}
	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}

	sums := make(map[string]string, len(applied))
	for _, r := range applied {
		sums[r.Version] = r.Checksum
	}

	var pending []Migration
	for _, m := range available {
		sum, done := sums[m.Version]
		switch {
		case !done:
			pending = append(pending, m)
		case sum != m.Checksum:
			return nil, nil, fmt.Errorf("%w: %s", ErrMigrationChanged, m.Version)
		}
	}
	return applied, pending, nil
}

func (db *DB) appliedMigrations(ctx context.Context) ([]MigrationRecord, error) {
	rows, err := db.QueryContext(ctx, "SELECT version, checksum, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	defer rows.Close()

	var out []MigrationRecord
	for rows.Next() {
		var (
			r  MigrationRecord
			at string
		)
		if err := rows.Scan(&r.Version, &r.Checksum, &at); err != nil {
			return nil, fmt.Errorf("reading schema_migrations: %w", err)
		}
		if r.AppliedAt, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("migration %s: applied_at %q: %w", r.Version, at, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) apply(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // No-op after Commit

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return err
	}
	if err := record(ctx, tx, m); err != nil {
		return fmt.Errorf("recording: %w", err)
	}
	return tx.Commit()
}

func record(ctx context.Context, tx *sql.Tx, m Migration) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, checksum, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Checksum, time.Now().UTC().Format(time.RFC3339))
	return err
}

// readMigrations loads the up migrations at the root of fsys. Other files
// are ignored and a nil fsys has none.
func readMigrations(fsys fs.FS) ([]Migration, error) {
	if fsys == nil {
		return nil, nil
	}
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var out []Migration
	for _, file := range names {
		version, name, ok := parseMigrationFilename(file)
		if !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", file, err)
		}
		sum := sha256.Sum256(data)
		out = append(out, Migration{
			Version:  version,
			Name:     name,
			UpSQL:    string(data),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	return out, nil
}

// parseMigrationFilename splits "20261014_120000_frame_captures.up.sql"
// into "20261014_120000" and "frame_captures".
func parseMigrationFilename(filename string) (version, name string, ok bool) {
	m := migrationFile.FindStringSubmatch(filename)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
