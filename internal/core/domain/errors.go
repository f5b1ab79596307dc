package domain

import "go.trai.ch/zerr"

var (
	// ErrResolution is returned when the load order cannot be built at all,
	// e.g. the load order file is missing, unreadable or empty.
	ErrResolution = zerr.New("load order resolution failed")

	// ErrCorruptArchive is returned when an archive container cannot be parsed.
	ErrCorruptArchive = zerr.New("corrupt archive")

	// ErrUnknownSchema is returned when no schema definition exists for a
	// (game, table) pair.
	ErrUnknownSchema = zerr.New("unknown table schema")

	// ErrDuplicateKey is returned when an INSERT INTO statement targets a row
	// key that already exists in the table.
	ErrDuplicateKey = zerr.New("duplicate row key")

	// ErrMissingParameter is returned when a script references a placeholder
	// with no supplied value.
	ErrMissingParameter = zerr.New("missing script parameter")

	// ErrCacheFreshness is returned when a persistent cache entry is corrupt or
	// unreadable. Callers treat it as a cache miss, never as a fatal error.
	ErrCacheFreshness = zerr.New("stale or corrupt cache entry")

	// ErrWriteFailure is returned when the final patch archive cannot be
	// serialized or persisted. Always fatal for the run.
	ErrWriteFailure = zerr.New("patch archive write failed")

	// ErrUnknownGame is returned when the requested game key is not registered.
	ErrUnknownGame = zerr.New("unknown game")
)
