//go:build linux && !robotgo

package inject

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"clipmagic/clipboard"
)

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit   = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit  = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate  = 0x5501     // UI_DEV_CREATE
	uiDevDestroy = 0x5502     // UI_DEV_DESTROY
)

// input event types from linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01
)

const (
	busUSB     = 0x03
	keyLShift  = 42
	deviceName = "clipmagic-keyboard"
)

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

// uinputTyper types through a virtual keyboard created with /dev/uinput.
// It works under X11 and Wayland alike but needs write access to the
// uinput node.
type uinputTyper struct {
	mu sync.Mutex
	fd *os.File
}

// New returns the platform typer. The clipboard is unused on Linux:
// uinput types characters directly.
func New(_ clipboard.ReadWriter) Typer {
	return &uinputTyper{}
}

func (u *uinputTyper) Init() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.open()
}

// open must be called with mu held. A failed open is retried on the next
// call so fixing permissions does not need a restart.
func (u *uinputTyper) open() error {
	if u.fd != nil {
		return nil
	}
	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			return errors.New("uinput device not found, try: sudo modprobe uinput")
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		return err
	}
	ioctl := func(req, arg uintptr) error {
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
			return errno
		}
		return nil
	}
	if err := ioctl(uiSetEvbit, evKey); err != nil {
		f.Close()
		return fmt.Errorf("UI_SET_EVBIT EV_KEY: %w", err)
	}
	if err := ioctl(uiSetEvbit, evSyn); err != nil {
		f.Close()
		return fmt.Errorf("UI_SET_EVBIT EV_SYN: %w", err)
	}
	// Register all standard keys so udev classifies this as a keyboard
	for i := uintptr(0); i < 256; i++ {
		if err := ioctl(uiSetKeybit, i); err != nil {
			f.Close()
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", i, err)
		}
	}
	dev := uinputUserDev{}
	copy(dev.Name[:], deviceName)
	dev.ID.Bustype = busUSB
	dev.ID.Vendor = 0x1234
	dev.ID.Product = 0x5679
	dev.ID.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		f.Close()
		return err
	}
	if err := ioctl(uiDevCreate, 0); err != nil {
		f.Close()
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	u.fd = f
	// Give compositor time to recognize the new input device
	time.Sleep(200 * time.Millisecond)
	return nil
}

func (u *uinputTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.open(); err != nil {
		return &Error{Op: "init", Err: err}
	}
	skipped := 0
	for _, r := range text {
		code, shift, ok := runeToKey(r)
		if !ok {
			skipped++
			continue
		}
		if err := u.tap(code, shift); err != nil {
			return &Error{Op: "write", Err: err}
		}
	}
	if skipped > 0 {
		return &Error{Op: "map", Err: fmt.Errorf("%d character(s) have no key on the US layout and were skipped", skipped)}
	}
	return nil
}

func (u *uinputTyper) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fd == nil {
		return nil
	}
	syscall.Syscall(syscall.SYS_IOCTL, u.fd.Fd(), uiDevDestroy, 0)
	err := u.fd.Close()
	u.fd = nil
	return err
}

func (u *uinputTyper) event(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	if err := binary.Write(u.fd, binary.LittleEndian, &ev); err != nil {
		return err
	}
	syn := inputEvent{Type: evSyn}
	return binary.Write(u.fd, binary.LittleEndian, &syn)
}

func (u *uinputTyper) tap(code uint16, shift bool) error {
	if shift {
		if err := u.event(evKey, keyLShift, 1); err != nil {
			return err
		}
	}
	if err := u.event(evKey, code, 1); err != nil {
		return err
	}
	if err := u.event(evKey, code, 0); err != nil {
		return err
	}
	if shift {
		return u.event(evKey, keyLShift, 0)
	}
	return nil
}

// Verify opens the virtual keyboard and reports its node name.
func Verify(t Typer) (string, error) {
	if err := Init(t); err != nil {
		return "", fmt.Errorf("uinput init: %w", err)
	}
	return "uinput virtual keyboard " + deviceName + " created", nil
}
