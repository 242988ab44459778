package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrDecisionFinal = errors.New("decision is final")
	ErrInvalidInput  = errors.New("invalid input")
)
