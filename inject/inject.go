// Package inject types text into whatever window has keyboard focus.
//
// Nothing here checks where focus is: if the user switched windows the
// text lands there.
package inject

import (
	"errors"
	"fmt"
)

// Typer synthesizes keystrokes for text.
type Typer interface {
	Type(text string) error
}

// Error is returned when the input subsystem cannot be initialized or
// rejects the synthesized events.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("inject: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var ErrUnsupported = errors.New("keystroke injection not supported on this platform")

// Init prepares the platform typer ahead of the first keystroke so that
// permission problems show up at startup instead of on first use.
func Init(t Typer) error {
	if i, ok := t.(interface{ Init() error }); ok {
		return i.Init()
	}
	return nil
}
