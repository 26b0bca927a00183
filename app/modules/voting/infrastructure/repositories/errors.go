package votingdb

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected indicates a conditional UPDATE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
