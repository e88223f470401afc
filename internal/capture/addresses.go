package capture

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

// Observation is one group telegram seen on the bus.
type Observation struct {
	// Source is the sender's individual address, e.g. "1.1.5".
	Source string

	// Group is the destination group address, e.g. "1/2/3".
	Group string

	// Response is true for GroupValue_Response telegrams.
	Response bool

	// Value is the decoded value text, or "" when not decoded.
	Value string

	At time.Time
}

// GroupAddressInfo is a group address seen on the bus.
type GroupAddressInfo struct {
	Address         string    `json:"address"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	LastSource      string    `json:"last_source"`
	MessageCount    int64     `json:"message_count"`
	HasReadResponse bool      `json:"has_read_response"`
	LastValue       string    `json:"last_value,omitempty"`
}

// DeviceInfo is a device seen sending on the bus.
type DeviceInfo struct {
	Address      string    `json:"address"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	MessageCount int64     `json:"message_count"`
}

// AddressRecorder passively records group addresses and device individual
// addresses seen on the bus, building a directory of the installation over
// time.
//
// Thread Safety: All methods are safe for concurrent use.
type AddressRecorder struct {
	db     *sql.DB
	logger *logging.Logger

	// Prepared upserts, created by Start.
	groupStmt  *sql.Stmt
	deviceStmt *sql.Stmt
	mu         sync.Mutex
}

// NewAddressRecorder creates a recorder over a migrated database.
func NewAddressRecorder(db *sql.DB, logger *logging.Logger) *AddressRecorder {
	return &AddressRecorder{db: db, logger: logger}
}

// Start prepares the upsert statements. Must be called before Record.
func (r *AddressRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groupStmt != nil {
		return nil // Already started
	}

	groupStmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO group_addresses (group_address, first_seen, last_seen, last_source, has_read_response, last_value)
		VALUES (?1, ?2, ?2, ?3, ?4, ?5)
		ON CONFLICT(group_address) DO UPDATE SET
			last_seen = excluded.last_seen,
			last_source = excluded.last_source,
			message_count = message_count + 1,
			has_read_response = MAX(has_read_response, excluded.has_read_response),
			last_value = COALESCE(excluded.last_value, last_value)
	`)
	if err != nil {
		return fmt.Errorf("preparing group address upsert: %w", err)
	}

	deviceStmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO bus_devices (individual_address, first_seen, last_seen)
		VALUES (?1, ?2, ?2)
		ON CONFLICT(individual_address) DO UPDATE SET
			last_seen = excluded.last_seen,
			message_count = message_count + 1
	`)
	if err != nil {
		groupStmt.Close() //nolint:errcheck // Already failing
		return fmt.Errorf("preparing device upsert: %w", err)
	}

	r.groupStmt = groupStmt
	r.deviceStmt = deviceStmt
	r.logger.Debug("address recorder started")
	return nil
}

// Stop releases the prepared statements. Record is a no-op afterwards.
func (r *AddressRecorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groupStmt != nil {
		r.groupStmt.Close() //nolint:errcheck // Shutdown
		r.groupStmt = nil
	}
	if r.deviceStmt != nil {
		r.deviceStmt.Close() //nolint:errcheck // Shutdown
		r.deviceStmt = nil
	}
}

// Record upserts the source device and destination group of obs.
//
// The source 0.0.0 is not recorded as a device; interfaces send with it
// before they have been assigned an address.
func (r *AddressRecorder) Record(ctx context.Context, obs Observation) error {
	if obs.Group == "" {
		return fmt.Errorf("%w: observation without group address", ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groupStmt == nil {
		return nil // Not started or stopped
	}

	at := obs.At
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC().Format(timeLayout)

	if obs.Source != "" && obs.Source != "0.0.0" {
		if _, err := r.deviceStmt.ExecContext(ctx, obs.Source, ts); err != nil {
			return fmt.Errorf("recording device %s: %w", obs.Source, err)
		}
	}

	response := 0
	if obs.Response {
		response = 1
	}
	if _, err := r.groupStmt.ExecContext(ctx, obs.Group, ts, obs.Source, response, nullableString(obs.Value)); err != nil {
		return fmt.Errorf("recording group address %s: %w", obs.Group, err)
	}
	return nil
}

// Groups returns recorded group addresses, most recently seen first.
// A limit of 0 or less uses the default page size.
func (r *AddressRecorder) Groups(ctx context.Context, limit int) ([]GroupAddressInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT group_address, first_seen, last_seen, last_source, message_count, has_read_response, last_value
		FROM group_addresses
		ORDER BY last_seen DESC, group_address
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying group addresses: %w", err)
	}
	defer rows.Close()

	out := []GroupAddressInfo{}
	for rows.Next() {
		var (
			info        GroupAddressInfo
			first, last string
			response    int64
			value       sql.NullString
		)
		if err := rows.Scan(&info.Address, &first, &last, &info.LastSource, &info.MessageCount, &response, &value); err != nil {
			return nil, fmt.Errorf("scanning group address: %w", err)
		}
		if info.FirstSeen, err = parseTime(first); err != nil {
			return nil, err
		}
		if info.LastSeen, err = parseTime(last); err != nil {
			return nil, err
		}
		info.HasReadResponse = response != 0
		info.LastValue = value.String
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating group addresses: %w", err)
	}
	return out, nil
}

// Devices returns recorded devices, most recently seen first.
func (r *AddressRecorder) Devices(ctx context.Context, limit int) ([]DeviceInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT individual_address, first_seen, last_seen, message_count
		FROM bus_devices
		ORDER BY last_seen DESC, individual_address
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	out := []DeviceInfo{}
	for rows.Next() {
		var (
			info        DeviceInfo
			first, last string
		)
		if err := rows.Scan(&info.Address, &first, &last, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		if info.FirstSeen, err = parseTime(first); err != nil {
			return nil, err
		}
		if info.LastSeen, err = parseTime(last); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return out, nil
}

// Counts returns the number of recorded group addresses and devices.
func (r *AddressRecorder) Counts(ctx context.Context) (groups, devices int, err error) {
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM group_addresses`).Scan(&groups); err != nil {
		return 0, 0, fmt.Errorf("counting group addresses: %w", err)
	}
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bus_devices`).Scan(&devices); err != nil {
		return 0, 0, fmt.Errorf("counting devices: %w", err)
	}
	return groups, devices, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
