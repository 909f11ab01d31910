package repositories

import "errors"

var (
	// ErrNotFound is wrapped by all repositories when a row is missing.
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a conditional status update matched
	// no row, i.e. the order was not in the expected predecessor state.
	ErrStateConflict = errors.New("order is not in the required state")
)
