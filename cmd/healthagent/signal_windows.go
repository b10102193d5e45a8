//go:build windows

package main

import (
	"os"
)

// terminationSignals are the signals that stop the service gracefully. On
// Windows only Ctrl+C (os.Interrupt) is delivered.
var terminationSignals = []os.Signal{os.Interrupt}
