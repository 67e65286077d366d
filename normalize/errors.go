package normalize

import "errors"

var (
	// ErrTableRequired is returned when a rule table is not provided.
	ErrTableRequired = errors.New("rule table required")

	// ErrInvalidRule indicates a rule table entry that cannot be compiled.
	ErrInvalidRule = errors.New("invalid normalization rule")
)
