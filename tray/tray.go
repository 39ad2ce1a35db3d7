// Package tray shows the tray icon and its menu: one line per slot, the
// last action, and reload, open-config, login and quit items.
package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Slot describes one bound action for the menu.
type Slot struct {
	Index       int
	Combination string
	Text        string
	Clipboard   bool
}

const (
	appName  = "clipmagic"
	idleTip  = appName + " – ready"
	errorTTL = 10 * time.Second
	maxSlots = 9
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once
	started   atomic.Bool

	reloadFn     func()
	openConfigFn func()
	loginFn      func(bool) error
	loginOn      bool

	mu      sync.Mutex
	slots   []Slot
	lastMsg string
	errGen  int
	warnOn  bool
)

func OnReload(fn func())     { reloadFn = fn }
func OnOpenConfig(fn func()) { openConfigFn = fn }

// OnLogin shows a "Start at Login" checkbox, checked when on. fn gets the
// requested state; the checkbox only changes if fn succeeds.
func OnLogin(on bool, fn func(bool) error) {
	loginOn = on
	loginFn = fn
}

// SetSlots replaces the slot lines in the menu.
func SetSlots(s []Slot) {
	mu.Lock()
	slots = append([]Slot(nil), s...)
	mu.Unlock()
	refreshSlots()
}

// SetLastAction shows the result of the most recent action.
func SetLastAction(msg string, ok bool) {
	mu.Lock()
	lastMsg = msg
	mu.Unlock()
	updateLastAction(msg)
	if ok {
		flashIcon()
	}
}

// SetError shows msg in the tooltip and a warning icon for a while.
func SetError(msg string) {
	mu.Lock()
	errGen++
	gen := errGen
	warnOn = true
	mu.Unlock()

	updateTooltip(appName + " – " + msg)
	updateWarningIcon(true)
	go func() {
		time.Sleep(errorTTL)
		mu.Lock()
		stale := gen != errGen
		if !stale {
			warnOn = false
		}
		mu.Unlock()
		if stale {
			return
		}
		updateTooltip(idleTip)
		updateWarningIcon(false)
	}()
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}

// SlotLabel renders a slot for a menu line, eliding long text.
func SlotLabel(s Slot) string {
	text := strings.ReplaceAll(s.Text, "\n", "⏎")
	if r := []rune(text); len(r) > 32 {
		text = string(r[:31]) + "…"
	}
	if text == "" {
		text = "(empty)"
	}
	combo := s.Combination
	if combo == "" {
		combo = "unbound"
	}
	label := fmt.Sprintf("%d  %s  %s", s.Index+1, combo, text)
	if s.Clipboard {
		label += "  📋"
	}
	return label
}

// OpenFile opens path with the desktop's default application.
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
