// Package hotkey registers global keyboard shortcuts and delivers their
// key-down events through a Registry.
package hotkey

// Hotkey is one OS-level global shortcut.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	// Keyup fires once per key-down, after the key and every modifier of
	// the combination have been let go.
	Keyup() <-chan struct{}
}

// Factory builds an unregistered Hotkey for a combination.
type Factory func(Combination) (Hotkey, error)

// keyupBuffer holds releases nobody has waited for yet. Releases beyond
// it are dropped; a waiter then falls back to its timeout.
const keyupBuffer = 16
