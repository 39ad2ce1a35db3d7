//go:build !gui

package main

import (
	"fmt"
	"os"

	"clipmagic/dispatch"
)

func initGUI() {
	fmt.Fprintln(os.Stderr, "clipmagic: built without GUI support (rebuild with -tags gui)")
	os.Exit(1)
}

func guiActive() bool            { return false }
func guiRefresh(*app)            {}
func guiReport(dispatch.Outcome) {}
func guiQuit()                   {}
