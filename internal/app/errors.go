package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotFound      = errors.New("creator not found")
	ErrBadLimit      = errors.New("invalid limit")
	ErrBadDecision   = errors.New("invalid decision")
	ErrNoScoreSource = errors.New("no score source configured")
)
