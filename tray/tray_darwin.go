//go:build darwin

package tray

import (
	"github.com/getlantern/systray"
	"golang.design/x/hotkey/mainthread"
)

// Init installs the tray icon. On macOS the Cocoa loop already runs on
// the main thread for the hotkey backend, so the tray registers there
// instead of starting its own loop.
func Init() <-chan struct{} {
	started.Store(true)
	mainthread.Call(func() {
		systray.Register(onReady, onExit)
	})
	return quitCh
}

// Stop removes the tray icon. The Cocoa loop belongs to the hotkey
// backend and keeps running. It does nothing if Init was never called.
func Stop() {
	if started.CompareAndSwap(true, false) {
		mainthread.Call(systray.Quit)
	}
}
