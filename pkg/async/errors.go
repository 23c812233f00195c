package async

import "errors"

var (
	ErrTimeout    = errors.New("async: timed out waiting for task completion")
	ErrTaskPanic  = errors.New("async: task panicked")
	ErrPoolClosed = errors.New("async: pool is closed")
)
