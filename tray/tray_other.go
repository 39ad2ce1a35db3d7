//go:build !darwin

package tray

import (
	"runtime"

	"github.com/getlantern/systray"
)

// Init starts the tray loop on its own locked OS thread and returns a
// channel closed when the user picks Quit.
func Init() <-chan struct{} {
	started.Store(true)
	go func() {
		runtime.LockOSThread()
		systray.Run(onReady, onExit)
	}()
	return quitCh
}

// Stop ends the tray loop. It does nothing if Init was never called.
func Stop() {
	if started.CompareAndSwap(true, false) {
		systray.Quit()
	}
}
