//go:build darwin

package hotkey

import "golang.design/x/hotkey"

var modMap = map[Modifier]hotkey.Modifier{
	ModCtrl:  hotkey.ModCtrl,
	ModAlt:   hotkey.ModOption,
	ModShift: hotkey.ModShift,
	ModSuper: hotkey.ModCmd,
}

// waitModifiers returns at once: posted CGEvents carry their own
// modifier flags, so keys still held do not leak into them.
func waitModifiers(Modifier, <-chan struct{}) {}
