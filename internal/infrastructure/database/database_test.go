package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/p0l0/xknx/internal/infrastructure/config"
)

// TestOpen verifies database connection establishment.
func TestOpen(t *testing.T) {
	t.Run("creates database file and directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

		db, err := Open(config.DatabaseConfig{
			Path:        dbPath,
			WALMode:     true,
			BusyTimeout: 5,
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer db.Close() //nolint:errcheck // Test cleanup

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %v, want %v", db.Path(), dbPath)
		}
	})

	t.Run("in memory", func(t *testing.T) {
		db := openTestDB(t)

		ctx := context.Background()
		if _, err := db.ExecContext(ctx, "CREATE TABLE kept (id INTEGER)"); err != nil {
			t.Fatalf("CREATE error = %v", err)
		}
		// The table must survive across statements on the single connection.
		if _, err := db.ExecContext(ctx, "INSERT INTO kept (id) VALUES (1)"); err != nil {
			t.Fatalf("INSERT error = %v", err)
		}
	})
}

func TestOpenReadOnly(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "captures.db")
	db, err := Open(config.DatabaseConfig{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE frames (id INTEGER)"); err != nil {
		t.Fatalf("CREATE error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ro, err := OpenReadOnly(dbPath)
	if err != nil {
		t.Fatalf("OpenReadOnly() error = %v", err)
	}
	defer ro.Close() //nolint:errcheck // Test cleanup

	if !ro.ReadOnly() {
		t.Error("ReadOnly() = false")
	}
	var n int
	if err := ro.QueryRowContext(ctx, "SELECT COUNT(*) FROM frames").Scan(&n); err != nil {
		t.Errorf("SELECT error = %v", err)
	}
	if _, err := ro.ExecContext(ctx, "INSERT INTO frames (id) VALUES (1)"); err == nil {
		t.Error("INSERT on read-only database succeeded")
	}
}

func TestOpenReadOnlyMissing(t *testing.T) {
	_, err := OpenReadOnly(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("OpenReadOnly() error = %v, want ErrNotExist", err)
	}
}

func TestDSNOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.DatabaseConfig
		readOnly bool
		want     string
	}{
		{
			name: "wal",
			cfg:  config.DatabaseConfig{Path: "a.db", WALMode: true, BusyTimeout: 5},
			want: "_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		},
		{
			name: "memory ignores wal",
			cfg:  config.DatabaseConfig{Path: MemoryPath, WALMode: true},
			want: "_busy_timeout=0&_foreign_keys=on",
		},
		{
			name:     "read only",
			cfg:      config.DatabaseConfig{Path: "a.db", WALMode: true, BusyTimeout: 1},
			readOnly: true,
			want:     "_busy_timeout=1000&_foreign_keys=on&mode=ro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dsnOptions(tt.cfg, tt.readOnly).Encode(); got != tt.want {
				t.Errorf("dsnOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestHealthCheck verifies the health check functionality.
func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

// TestClose verifies graceful shutdown.
func TestClose(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

// TestSingleWriter verifies the pool is limited to one connection.
func TestSingleWriter(t *testing.T) {
	db := openTestDB(t)

	if stats := db.Stats(); stats.MaxOpenConnections != 1 {
		t.Errorf("MaxOpenConnections = %v, want 1 (SQLite single writer)", stats.MaxOpenConnections)
	}
}

// openTestDB opens an in-memory database closed at test cleanup.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(config.DatabaseConfig{Path: MemoryPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	return db
}
