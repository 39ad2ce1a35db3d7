//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

const hotkeyBackend = "x/hotkey"

func init() {
	runtime.LockOSThread()
}

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	// the settings window needs the main thread for itself
	if hasFlag(os.Args[1:], "gui") {
		initGUI() // takes main thread, runs the listener in a goroutine
		return
	}
	code := 0
	mainthread.Init(func() { code = execute() })
	os.Exit(code)
}
