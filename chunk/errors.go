package chunk

import "errors"

// ErrInvalidBounds indicates inconsistent chunk sizing configuration.
var ErrInvalidBounds = errors.New("invalid chunk bounds")
