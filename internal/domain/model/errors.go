package model

import "errors"

// ErrInvalidScope reports contradictory or unresolvable filter combinations,
// e.g. a grade cohort requested for a relay event.
var ErrInvalidScope = errors.New("invalid scope")
