package repository

import "errors"

// Sentinel kinds for author store errors.
var (
	ErrNotFound      = errors.New("author not found")
	ErrInvalidFactor = errors.New("invalid decay factor")
)
