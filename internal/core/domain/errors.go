package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMarket indicates a market with unknown country or language codes.
	ErrInvalidMarket = errors.New("invalid market")

	// ErrUnknownDocument indicates the engine has no record of a document.
	ErrUnknownDocument = errors.New("unknown document")

	// Engine Errors.

	// ErrEngine wraps failures raised inside the ranking engine.
	ErrEngine = errors.New("engine error")

	// ErrEngineDisposed indicates the engine was used after Dispose.
	ErrEngineDisposed = errors.New("engine disposed")

	// Storage Errors.

	// ErrStore indicates a store read or write failed.
	ErrStore = errors.New("store error")

	// Boundary Errors.

	// ErrEncoding indicates a document could not be represented at the engine boundary.
	ErrEncoding = errors.New("encoding error")

	// ErrDecoding indicates malformed or truncated data from the engine boundary.
	ErrDecoding = errors.New("decoding error")

	// ErrUnhandledEvent marks an event kind without a handler. It is a wiring
	// bug, raised by panic rather than returned.
	ErrUnhandledEvent = errors.New("unhandled event")
)
