//go:build windows

package hotkey

import (
	"time"

	"golang.design/x/hotkey"
	"golang.org/x/sys/windows"
)

var modMap = map[Modifier]hotkey.Modifier{
	ModCtrl:  hotkey.ModCtrl,
	ModAlt:   hotkey.ModAlt,
	ModShift: hotkey.ModShift,
	ModSuper: hotkey.ModWin,
}

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	getAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

const (
	vkShift = 0x10
	vkCtrl  = 0x11
	vkAlt   = 0x12
	vkLwin  = 0x5B
	vkRwin  = 0x5C

	modifierPoll    = 10 * time.Millisecond
	modifierTimeout = time.Second
)

var modifierKeys = map[Modifier][]int{
	ModCtrl:  {vkCtrl},
	ModAlt:   {vkAlt},
	ModShift: {vkShift},
	ModSuper: {vkLwin, vkRwin},
}

func isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}

// waitModifiers blocks until none of mods is held. Keystrokes sent with
// SendInput merge with the physical keyboard state, so a paste sent
// while Ctrl+Alt+Shift are down arrives as Ctrl+Alt+Shift+V.
func waitModifiers(mods Modifier, stop <-chan struct{}) {
	deadline := time.Now().Add(modifierTimeout)
	for time.Now().Before(deadline) {
		held := false
		for m, vks := range modifierKeys {
			if mods&m == 0 {
				continue
			}
			for _, vk := range vks {
				if isKeyPressed(vk) {
					held = true
				}
			}
		}
		if !held {
			return
		}
		select {
		case <-stop:
			return
		case <-time.After(modifierPoll):
		}
	}
}
