package exception

import "errors"

// Fan-out hub errors
var (
	ErrHubClosed          = errors.New("hub: closed")
	ErrUnknownChannel     = errors.New("hub: unknown channel")
	ErrSubscriptionClosed = errors.New("hub: subscription closed")
)
