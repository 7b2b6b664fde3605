package exec

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// relaySignals forwards SIGINT, SIGTERM, and SIGHUP to the child so an
// interrupted run tears the compose step down rather than orphaning it.
// The returned stop function must be called when the child exits.
func relaySignals(ctx context.Context, process *os.Process) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig := <-sigChan:
				_ = process.Signal(sig)
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
