package transport

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyInput    = errors.New("empty input text")
	ErrRequestFailed = errors.New("request failed")
	ErrTransport     = errors.New("transport failure")
)
