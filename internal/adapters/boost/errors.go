package boost

import "errors"

// Sentinel kinds for boost source errors.
var (
	ErrQueryFailed      = errors.New("holder query failed")
	ErrAllQueriesFailed = errors.New("all holder queries failed")
)
