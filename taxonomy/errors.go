package taxonomy

import "errors"

var (
	// ErrTreeRequired is returned when a taxonomy tree is not provided.
	ErrTreeRequired = errors.New("taxonomy tree required")

	// ErrInvalidTree indicates a malformed hierarchy (no root, multiple
	// roots, cycles, or depth beyond the fixed maximum).
	ErrInvalidTree = errors.New("invalid taxonomy tree")

	// ErrInvalidConfig indicates out-of-range classifier settings.
	ErrInvalidConfig = errors.New("invalid classifier configuration")
)
