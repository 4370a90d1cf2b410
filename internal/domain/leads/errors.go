package leads

import "errors"

var (
	// ErrInvalidTable is returned when records cannot form a table.
	ErrInvalidTable = errors.New("invalid lead table")
	// ErrLoadTable is returned when an override file cannot be read or parsed.
	ErrLoadTable = errors.New("load lead table")
)
