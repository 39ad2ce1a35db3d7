// Package shutdown turns process signals into context cancellation and
// reload requests.
package shutdown

import (
	"context"
	"os/signal"
)

// Context returns a context cancelled on the first interrupt or
// termination signal.
func Context(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, stopSignals...)
}
