package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrBackpressure   = errors.New("backpressure")
	ErrUnknownClickID = errors.New("unknown click id")
	ErrNotConfigured  = errors.New("messenger not configured")
)

// wrapKind annotates a sentinel kind with the failing operation and,
// when present, the underlying cause.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}
