package hotkey

import "sync"

// FakeHotkey is a Hotkey driven by SimKeydown and SimKeyup.
type FakeHotkey struct {
	mu          sync.Mutex
	registered  bool
	keydown     chan struct{}
	keyup       chan struct{}
	RegisterErr error
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 16),
		keyup:   make(chan struct{}, keyupBuffer),
	}
}

func (f *FakeHotkey) Register() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.registered = true
	return nil
}

func (f *FakeHotkey) Unregister() {
	f.mu.Lock()
	f.registered = false
	f.mu.Unlock()
}

func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }

// SimKeydown presses the hotkey. Like the OS, it does nothing once the
// hotkey is unregistered; the return value reports whether it fired.
func (f *FakeHotkey) SimKeydown() bool {
	f.mu.Lock()
	on := f.registered
	f.mu.Unlock()
	if on {
		f.keydown <- struct{}{}
	}
	return on
}

// SimKeyup lets go of the combination. Releases nobody waits for are
// dropped once the buffer is full, as with the real backends.
func (f *FakeHotkey) SimKeyup() {
	select {
	case f.keyup <- struct{}{}:
	default:
	}
}

func (f *FakeHotkey) Registered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered
}

// FakeBackend hands out FakeHotkeys and lets tests press them by
// combination. Combinations in Refuse fail to register with the given
// error, as when another program already owns the shortcut.
type FakeBackend struct {
	mu      sync.Mutex
	hotkeys map[Combination]*FakeHotkey
	Refuse  map[Combination]error
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		hotkeys: make(map[Combination]*FakeHotkey),
		Refuse:  make(map[Combination]error),
	}
}

// New is a Factory.
func (b *FakeBackend) New(c Combination) (Hotkey, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hk := NewFake()
	hk.RegisterErr = b.Refuse[c]
	b.hotkeys[c] = hk
	return hk, nil
}

// Press taps c: the most recent hotkey built for it goes down and is
// let go again. It reports whether a registered hotkey received it.
func (b *FakeBackend) Press(c Combination) bool {
	if !b.Hold(c) {
		return false
	}
	b.Release(c)
	return true
}

// Hold presses c without letting go.
func (b *FakeBackend) Hold(c Combination) bool {
	hk := b.Hotkey(c)
	if hk == nil {
		return false
	}
	return hk.SimKeydown()
}

// Release lets go of c.
func (b *FakeBackend) Release(c Combination) {
	if hk := b.Hotkey(c); hk != nil {
		hk.SimKeyup()
	}
}

func (b *FakeBackend) Hotkey(c Combination) *FakeHotkey {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hotkeys[c]
}
