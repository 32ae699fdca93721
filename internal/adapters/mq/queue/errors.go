package queue

import "errors"

// Sentinel errors for queue consumers.
var (
	ErrStopped = errors.New("queue stopped")
)
