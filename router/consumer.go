package router

import "github.com/hupe1980/routemesh/payload"

// HandlerFunc reacts to one dispatched response. A returned error is logged
// by the router and never affects delivery to other consumers.
type HandlerFunc func(resp payload.Response) error

// Consumer wraps a handler together with its execution mode. The mode is
// fixed at construction so dispatch never has to re-inspect the handler.
//
// Non-blocking consumers are assumed to return quickly and each gets its
// own goroutine. Blocking consumers may run for a long time (network calls,
// user interaction) and are throttled through the router's bounded worker
// pool so a burst of dispatches cannot spawn unbounded goroutines.
type Consumer struct {
	handler  HandlerFunc
	blocking bool
}

// NonBlocking wraps a handler expected to return quickly.
func NonBlocking(fn HandlerFunc) Consumer {
	return Consumer{handler: fn}
}

// Blocking wraps a handler that may run for a long time.
func Blocking(fn HandlerFunc) Consumer {
	return Consumer{handler: fn, blocking: true}
}

// IsBlocking reports the consumer's execution mode.
func (c Consumer) IsBlocking() bool {
	return c.blocking
}
