// Package signal cancels command contexts on interrupt.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context cancelled on the first SIGINT or SIGTERM.
// After that the default handlers are restored, so a second Ctrl-C kills a
// stream that does not stop on its own.
func NotifyContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
