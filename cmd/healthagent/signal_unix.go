//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals are the signals that stop the service gracefully.
// Process managers (systemd, kubernetes) send SIGTERM; an interactive Ctrl+C
// arrives as os.Interrupt.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
