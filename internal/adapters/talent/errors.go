package talent

import "errors"

// Sentinel kinds for score source errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnavailable      = errors.New("score source unavailable")
	ErrMalformedProfile = errors.New("malformed profile")
)
