package exception

import "errors"

// Event bus errors
var (
	ErrBusClosed        = errors.New("bus: closed")
	ErrUnknownPartition = errors.New("bus: unknown partition")
)
