//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

// evdev codes of the modifier keys, left and right.
var modifierCodes = map[uint16]Modifier{
	29: ModCtrl, 97: ModCtrl,
	56: ModAlt, 100: ModAlt,
	42: ModShift, 54: ModShift,
	125: ModSuper, 126: ModSuper,
}

// evdevHotkey watches every keyboard under /dev/input for one
// combination. It works the same under X11 and Wayland but needs the
// user in the 'input' group. Nothing is grabbed: the focused window
// still sees the keystrokes.
type evdevHotkey struct {
	combo   Combination
	code    uint16
	keydown chan struct{}
	keyup   chan struct{}
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

func New(c Combination) (Hotkey, error) {
	code, ok := keyCodes[c.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not available", c.Key)
	}
	return &evdevHotkey{
		combo:   c,
		code:    code,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, keyupBuffer),
		stop:    make(chan struct{}),
	}, nil
}

func (h *evdevHotkey) Register() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

// matcher tracks modifier state for one device. It reports a press when
// the combination's key goes down with exactly its modifiers held, and a
// release once that key and those modifiers are all up again.
// Autorepeat events (value 2) never match.
type matcher struct {
	mods    Modifier
	code    uint16
	held    map[uint16]bool
	keyDown bool
	pending int // presses not yet released
}

func newMatcher(c Combination, code uint16) *matcher {
	return &matcher{mods: c.Mods, code: code, held: make(map[uint16]bool)}
}

func (m *matcher) active() Modifier {
	var active Modifier
	for code := range m.held {
		active |= modifierCodes[code]
	}
	return active
}

// feed consumes one key event and reports whether it completed a press
// and how many earlier presses it released.
func (m *matcher) feed(evCode uint16, evValue int32) (pressed bool, released int) {
	if _, ok := modifierCodes[evCode]; ok {
		switch evValue {
		case keyPress:
			m.held[evCode] = true
		case keyRelease:
			delete(m.held, evCode)
		}
		return false, m.release()
	}
	if evCode != m.code {
		return false, 0
	}
	switch evValue {
	case keyPress:
		m.keyDown = true
		if m.active() == m.mods {
			m.pending++
			return true, 0
		}
	case keyRelease:
		m.keyDown = false
		return false, m.release()
	}
	return false, 0
}

func (m *matcher) release() int {
	if m.pending == 0 || m.keyDown || m.active()&m.mods != 0 {
		return 0
	}
	n := m.pending
	m.pending = 0
	return n
}

func (h *evdevHotkey) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	m := newMatcher(h.combo, h.code)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			pressed, released := m.feed(evCode, evValue)
			if pressed {
				select {
				case h.keydown <- struct{}{}:
				case <-h.stop:
					return
				}
			}
			for ; released > 0; released-- {
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		close(h.stop)
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *evdevHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	// Skip our own virtual keyboard so typed text can never fire a hotkey.
	name, _ := os.ReadFile(filepath.Join("/sys/class/input", eventName, "device", "name"))
	if strings.TrimSpace(string(name)) == "clipmagic-keyboard" {
		return false
	}
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks keyboard access for the combination.
func Diagnose(c Combination) (string, error) {
	if _, ok := keyCodes[c.Key]; !ok {
		return "", fmt.Errorf("key %q not available", c.Key)
	}
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}

var keyCodes = map[string]uint16{
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
	"escape": 1, "delete": 111, "tab": 15, "return": 28, "space": 57,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
	"up": 103, "left": 105, "right": 106, "down": 108,
}
