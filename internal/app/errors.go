package service

import "errors"

var (
	// ErrNotStarted is returned by batch operations before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrQueueFull is reported for batch jobs the queue could not accept.
	ErrQueueFull = errors.New("dashboard queue full")
)
