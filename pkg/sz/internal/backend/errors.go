package backend

import "errors"

var (
	// ErrNotBuilt reports that dynamic loading is not available on this
	// platform.
	ErrNotBuilt = errors.New("sz/internal/backend: native loading not supported on this platform")

	// ErrMissingSymbol reports that the library lacks a required entry point.
	ErrMissingSymbol = errors.New("sz/internal/backend: missing symbol")
)
