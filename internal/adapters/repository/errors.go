package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrClosed         = errors.New("store closed")
)
