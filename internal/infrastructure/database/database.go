package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/p0l0/xknx/internal/infrastructure/config"
)

const (
	// MemoryPath opens a private in-memory database. Used by tests.
	MemoryPath = ":memory:"

	dirPermissions  = 0750
	filePermissions = 0600

	// pingTimeout bounds the connectivity check in Open.
	pingTimeout = 5 * time.Second

	connMaxIdleTime = 30 * time.Minute
)

// ErrNotExist is returned by OpenReadOnly when the database file is missing.
var ErrNotExist = errors.New("database: file does not exist")

// DB is the capture database. The embedded *sql.DB is shared by the
// capture repository and the address recorder.
type DB struct {
	*sql.DB
	path     string
	readOnly bool
}

// Open opens or creates the database described by cfg.
//
// The parent directory is created as needed. The pool is limited to one
// connection: SQLite allows a single writer and an in-memory database
// exists only as long as its connection.
//
// Parameters:
//   - cfg: Database section of the monitor config
//
// Returns:
//   - *DB: Connected database
//   - error: If the directory, driver or first ping fails
func Open(cfg config.DatabaseConfig) (*DB, error) {
	inMemory := cfg.Path == MemoryPath
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := open(cfg.Path, dsnOptions(cfg, false), inMemory)
	if err != nil {
		return nil, err
	}

	if !inMemory {
		// The file may not exist until the first write.
		_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // See above
	}
	return db, nil
}

// OpenReadOnly opens an existing database for inspection while a monitor
// may still be writing to it. Migrations are not applied.
func OpenReadOnly(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("checking database file: %w", err)
	}

	cfg := config.DatabaseConfig{Path: path, BusyTimeout: 5}
	db, err := open(path, dsnOptions(cfg, true), false)
	if err != nil {
		return nil, err
	}
	db.readOnly = true
	return db, nil
}

// dsnOptions builds the go-sqlite3 connection parameters.
func dsnOptions(cfg config.DatabaseConfig, readOnly bool) url.Values {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.Itoa(cfg.BusyTimeout*int(time.Second/time.Millisecond)))
	q.Set("_foreign_keys", "on")
	switch {
	case readOnly:
		q.Set("mode", "ro")
	case cfg.WALMode && cfg.Path != MemoryPath:
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return q
}

func open(path string, q url.Values, inMemory bool) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if !inMemory {
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	return &DB{DB: sqlDB, path: path}, nil
}

// Close closes the pool. It is safe on a DB whose pool was never opened.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the database file path, or MemoryPath.
func (db *DB) Path() string {
	return db.path
}

// ReadOnly reports whether the database was opened with OpenReadOnly.
func (db *DB) ReadOnly() bool {
	return db.readOnly
}

// HealthCheck runs a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
