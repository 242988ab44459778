package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNegativeScore = errors.New("negative score")
)
