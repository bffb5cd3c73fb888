package exception

import "errors"

// Change-log source errors
var (
	ErrSourceClosed      = errors.New("source: closed")
	ErrSourceUnavailable = errors.New("source: unavailable")
	ErrNothingToCommit   = errors.New("source: nothing to commit")
)
