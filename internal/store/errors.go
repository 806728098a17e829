package store

import "errors"

var (
	// ErrNotFound indicates the requested project, folder, or media row does
	// not exist for the given id and project combination.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation. Callers resolve it by
	// updating in place, never by inserting a duplicate.
	ErrConflict = errors.New("conflict")

	// ErrInvalidProjectScope indicates an operation attempted to cross
	// project boundaries, e.g. a batch containing rows for two projects.
	ErrInvalidProjectScope = errors.New("invalid project scope")

	// ErrStoreUnavailable indicates the store cannot serve the current
	// operation. The in-flight batch is aborted cleanly.
	ErrStoreUnavailable = errors.New("store unavailable")
)
