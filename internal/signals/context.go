// Package signals turns process termination signals into context
// cancellation for long-running subcommands.
package signals

import (
	"context"
	"os/signal"
)

// NotifyContext returns a context cancelled on the first Stop signal. The
// one-shot pipeline never installs it, so the generator child receives
// terminal signals through its process group untouched.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, Stop()...)
}
