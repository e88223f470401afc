package capture

import (
	"context"
	"time"

	"github.com/p0l0/xknx/internal/knxip"
)

// Status is the decode outcome for a captured datagram.
type Status string

// Decode outcomes.
const (
	// StatusOK means the frame decoded completely.
	StatusOK Status = "ok"

	// StatusDegraded means the frame decoded but its cEMI sub-frame was not
	// supported and was dropped.
	StatusDegraded Status = "degraded"

	// StatusError means decoding failed. Record.Error holds the reason.
	StatusError Status = "error"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusDegraded, StatusError:
		return true
	}
	return false
}

// Record is one captured datagram.
type Record struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`

	// Source is the sender as "ip:port".
	Source string `json:"source"`

	// ServiceType is 0 when the header could not be decoded.
	ServiceType knxip.ServiceType `json:"service_type"`

	Raw    []byte `json:"-"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Filter controls which records List returns.
type Filter struct {
	ServiceType knxip.ServiceType // optional: 0 matches every type
	Status      Status            // optional
	Since       time.Time         // optional: only records received at or after
	Limit       int               // default 50, max 500
	Offset      int               // pagination offset
}

// ListResult contains one page of records, newest first.
type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// SummaryRow counts stored records for one service type and status.
type SummaryRow struct {
	ServiceType knxip.ServiceType `json:"service_type"`
	Status      Status            `json:"status"`
	Count       int               `json:"count"`
}

// Repository defines the capture store operations.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
	Summary(ctx context.Context) ([]SummaryRow, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}
