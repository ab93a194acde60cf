package app

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyInput     = errors.New("empty input text")
	ErrPipelineFailed = errors.New("pipeline failed")
	ErrAbandoned      = errors.New("session abandoned")
)
