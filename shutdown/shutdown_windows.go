//go:build windows

package shutdown

import "os"

var stopSignals = []os.Signal{os.Interrupt}

// Reload never fires on Windows; use the tray or the TUI instead.
func Reload() <-chan os.Signal {
	return nil
}
