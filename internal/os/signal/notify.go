// Package signal turns the interrupt signals received by the process into context cancellation.
package signal

import (
	"context"
	"errors"
	"os"
	"os/signal"
)

// Interrupted is the cancellation cause of a context cancelled by NotifyContext.
type Interrupted struct {
	Signal os.Signal
}

func (err Interrupted) Error() string {
	return "received signal: " + err.Signal.String()
}

func (err Interrupted) Unwrap() error {
	return context.Canceled
}

// NotifyContext returns a copy of ctx cancelled with an Interrupted cause when an interrupt signal arrives.
func NotifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, interruptSignals...)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			cancel(Interrupted{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(nil) }
}

// FromContext returns the signal that cancelled ctx, or nil if ctx was not cancelled by one.
func FromContext(ctx context.Context) os.Signal {
	var cause Interrupted
	if errors.As(context.Cause(ctx), &cause) {
		return cause.Signal
	}

	return nil
}
