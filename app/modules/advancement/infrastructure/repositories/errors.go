package advancementdb

import "errors"

var (
	// ErrNotFound signals that the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoRowsAffected signals that a conditional write matched nothing,
	// typically because another advancer got there first.
	ErrNoRowsAffected = errors.New("no rows affected")
)
