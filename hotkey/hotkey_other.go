//go:build darwin || windows

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

// xHotkey wraps golang.design/x/hotkey (Carbon on macOS, RegisterHotKey
// on Windows). On macOS the process must run under mainthread.Init.
type xHotkey struct {
	hk      *hotkey.Hotkey
	mods    Modifier
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func New(c Combination) (Hotkey, error) {
	mods, key, err := native(c)
	if err != nil {
		return nil, err
	}
	return &xHotkey{
		hk:      hotkey.New(mods, key),
		mods:    c.Mods,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, keyupBuffer),
		stop:    make(chan struct{}),
	}, nil
}

func native(c Combination) ([]hotkey.Modifier, hotkey.Key, error) {
	var mods []hotkey.Modifier
	for _, m := range modifierNames {
		if c.Has(m.mod) {
			mods = append(mods, modMap[m.mod])
		}
	}
	key, ok := keyMap[c.Key]
	if !ok {
		return nil, 0, fmt.Errorf("key %q not available", c.Key)
	}
	return mods, key, nil
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-h.stop:
				return
			case _, ok := <-h.hk.Keydown():
				if !ok {
					return
				}
			}
			select {
			case h.keydown <- struct{}{}:
			case <-h.stop:
				return
			}
			select {
			case <-h.stop:
				return
			case _, ok := <-h.hk.Keyup():
				if !ok {
					return
				}
			}
			waitModifiers(h.mods, h.stop)
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	h.once.Do(func() {
		close(h.stop)
		h.hk.Unregister()
	})
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

var keyMap = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	"space": hotkey.KeySpace, "return": hotkey.KeyReturn, "tab": hotkey.KeyTab,
	"escape": hotkey.KeyEscape, "delete": hotkey.KeyDelete,
	"up": hotkey.KeyUp, "down": hotkey.KeyDown, "left": hotkey.KeyLeft, "right": hotkey.KeyRight,
}

// Diagnose checks that the combination can be mapped and registered.
func Diagnose(c Combination) (string, error) {
	hk, err := New(c)
	if err != nil {
		return "", err
	}
	if err := hk.Register(); err != nil {
		return "", fmt.Errorf("%s is taken or refused: %w", c, err)
	}
	hk.Unregister()
	return fmt.Sprintf("hotkey support available (%s)", c), nil
}
