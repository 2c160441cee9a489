//go:build windows

package signal

import "os"

// InterruptSignal is nil: child processes cannot be interrupted on Windows and are killed instead.
var InterruptSignal os.Signal

var interruptSignals = []os.Signal{os.Interrupt}
