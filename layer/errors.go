package layer

import "errors"

var (
	// ErrNotInitialized is returned when an operation runs before
	// Initialize or after Finalize.
	ErrNotInitialized = errors.New("layer stack is not initialized")

	// ErrLayerDisabled is returned when a disabled layer is addressed
	// explicitly.
	ErrLayerDisabled = errors.New("layer is disabled")
)
