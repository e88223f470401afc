package capture

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p0l0/xknx/internal/knxip"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	// timeLayout is fixed width so received_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	idPrefix = "cap-"
)

// SQLiteRepository stores captures in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts rec. The ID and ReceivedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, rec *Record) error {
	if !rec.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidRecord, rec.Status)
	}
	if len(rec.Raw) == 0 {
		return fmt.Errorf("%w: empty datagram", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = idPrefix + uuid.NewString()
	}
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now()
	}
	rec.ReceivedAt = rec.ReceivedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO frame_captures (id, received_at, source, service_type, raw_hex, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ReceivedAt.Format(timeLayout), rec.Source, int64(rec.ServiceType),
		hex.EncodeToString(rec.Raw), string(rec.Status), nullableString(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("inserting capture: %w", err)
	}

	return nil
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const selectColumns = "SELECT id, received_at, source, service_type, raw_hex, status, error FROM frame_captures"

// Get returns one record by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns records matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.ServiceType != 0 {
		conditions = append(conditions, "service_type = ?")
		args = append(args, int64(filter.ServiceType))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM frame_captures" + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting captures: %w", err)
	}

	query := selectColumns + where + " ORDER BY received_at DESC, id DESC LIMIT ? OFFSET ?" //nolint:gosec // WHERE built from parameterised conditions
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying captures: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating captures: %w", err)
	}

	return &ListResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Summary counts stored records grouped by service type and status.
func (r *SQLiteRepository) Summary(ctx context.Context) ([]SummaryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT service_type, status, COUNT(*) FROM frame_captures
		 GROUP BY service_type, status ORDER BY service_type, status`)
	if err != nil {
		return nil, fmt.Errorf("summarising captures: %w", err)
	}
	defer rows.Close()

	summary := []SummaryRow{}
	for rows.Next() {
		var st int64
		var row SummaryRow
		if err := rows.Scan(&st, &row.Status, &row.Count); err != nil {
			return nil, fmt.Errorf("scanning capture summary: %w", err)
		}
		row.ServiceType = knxip.ServiceType(st) //nolint:gosec // column holds uint16 values
		summary = append(summary, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating capture summary: %w", err)
	}
	return summary, nil
}

// Prune deletes records received before the cutoff and returns how many
// were removed.
func (r *SQLiteRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM frame_captures WHERE received_at < ?", before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning captures: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning captures: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var receivedAt, rawHex, status string
	var st int64
	var errText sql.NullString

	if err := s.Scan(&rec.ID, &receivedAt, &rec.Source, &st, &rawHex, &status, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning capture: %w", err)
	}

	t, err := time.Parse(timeLayout, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing capture timestamp %q: %w", receivedAt, err)
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("decoding capture %s: %w", rec.ID, err)
	}

	rec.ReceivedAt = t
	rec.ServiceType = knxip.ServiceType(st) //nolint:gosec // column holds uint16 values
	rec.Raw = raw
	rec.Status = Status(status)
	if errText.Valid {
		rec.Error = errText.String
	}
	return &rec, nil
}
