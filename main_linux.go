//go:build linux

package main

import "os"

const hotkeyBackend = "evdev"

func main() {
	// Set up crash logging early, before any CGO code runs
	initCrashLog()

	if hasFlag(os.Args[1:], "gui") {
		initGUI()
		return
	}
	os.Exit(execute())
}
