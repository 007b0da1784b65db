package codec

import (
	"errors"
	"fmt"
)

// ErrFormat is the sentinel for malformed performance text.
var ErrFormat = errors.New("malformed performance value")

// FormatError carries the rejected input.
type FormatError struct {
	Input string
	Unit  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %q", e.Unit, e.Input)
}

func (e *FormatError) Unwrap() error { return ErrFormat }
