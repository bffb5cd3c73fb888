package exception

import "errors"

// Historical store and cache errors
var (
	ErrCacheMiss     = errors.New("store: cache miss")
	ErrCacheDisabled = errors.New("store: cache disabled")
)
