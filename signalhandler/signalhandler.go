package signalhandler

import (
	"os"
	"os/signal"
	"syscall"

	"imagevariants/logging"
)

// ExitInterrupted is the exit status used when the run is stopped by a signal
const ExitInterrupted = 130

// SetupHandler stops the process on SIGINT/SIGTERM. Derivatives already
// renamed into place stay; a variant mid-write only leaves its temp file.
// The returned function unregisters the handler.
func SetupHandler() (stop func()) {
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Interrupted by %v, stopping", sig)
			logging.CloseLogger()
			os.Exit(ExitInterrupted)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
