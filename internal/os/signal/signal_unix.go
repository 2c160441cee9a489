//go:build !windows

package signal

import (
	"os"
	"syscall"
)

// InterruptSignal asks a child process to stop.
var InterruptSignal os.Signal = syscall.SIGINT

var interruptSignals = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
