package termcapture

import "errors"

// ErrConnectionLost is raised when the WebSocket observed a close/error
// event and no new bytes have arrived for the grace period.
var ErrConnectionLost = errors.New("termcapture: connection lost")

// ErrTimeout is raised when a wait primitive exceeds its budget.
var ErrTimeout = errors.New("termcapture: timeout")
