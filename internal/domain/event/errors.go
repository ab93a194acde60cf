package event

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyLine     = errors.New("empty line")
	ErrMalformedLine = errors.New("malformed line")
	ErrMissingType   = errors.New("missing event type")
)
