//go:build gui

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"clipmagic/config"
	"clipmagic/dispatch"
	"clipmagic/gui"
	"clipmagic/store"
)

var guiApp *gui.App

func initGUI() {
	// Lock this goroutine to OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(
		func() {
			code := execute()
			if code != 0 {
				os.Exit(code)
			}
		},
		func(entries []store.Entry) error {
			a := current.Load()
			if a == nil {
				return errors.New("not running yet")
			}
			return a.saveEntries(entries)
		},
		gracefulShutdown,
	)
	def := config.Default()
	initial := gui.Settings{
		Entries:      def.StoreEntries(store.DefaultCapacity),
		Combinations: def.Hotkeys.Slots,
	}
	if err := gui.Run(guiApp, initial); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func guiActive() bool { return guiApp != nil }

func guiRefresh(a *app) {
	if guiApp == nil {
		return
	}
	slots := a.slots()
	s := gui.Settings{
		Entries:      a.store.Snapshot(),
		Combinations: make([]string, len(slots)),
	}
	for i, slot := range slots {
		s.Combinations[i] = slot.Combination
	}
	guiApp.SetSettings(s)
}

func guiReport(o dispatch.Outcome) {
	if guiApp != nil {
		guiApp.SetLastAction(outcomeLine(o))
	}
}

func guiQuit() {
	if guiApp != nil {
		guiApp.Quit()
	}
}
