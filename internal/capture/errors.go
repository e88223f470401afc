package capture

import "errors"

var (
	// ErrNotFound is returned by Get when no record has the given ID.
	ErrNotFound = errors.New("capture: not found")

	// ErrInvalidRecord is returned by Create for a record with an unknown
	// status or no raw bytes.
	ErrInvalidRecord = errors.New("capture: invalid record")
)
