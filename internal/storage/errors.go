package storage

import "errors"

var (
	// ErrNotFound indicates a requested resource does not exist. Missing
	// users never produce it (unknown user ids materialize a default
	// profile instead) but engines return it for missing auxiliary
	// records, e.g. a backup snapshot asked for by name.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the input parameters are invalid. It is
	// returned before any mutation; the store is untouched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorruptStore indicates the durable representation could not be
	// decoded. Reads recover by falling back to an empty store (logged);
	// this sentinel surfaces only from explicit verification paths.
	ErrCorruptStore = errors.New("corrupt store")

	// ErrStoreUnavailable indicates persistence is failing and the circuit
	// breaker is rejecting calls fast instead of letting them block.
	ErrStoreUnavailable = errors.New("store unavailable")
)
