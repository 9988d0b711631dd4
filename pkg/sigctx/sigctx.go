// Package sigctx cancels a context on process termination signals.
package sigctx

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext is done on SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}
