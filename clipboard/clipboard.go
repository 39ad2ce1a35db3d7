// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"fmt"
	"time"

	cb "github.com/atotto/clipboard"
)

const (
	DefaultAttempts = 10
	DefaultBackoff  = 10 * time.Millisecond
	maxBackoff      = 200 * time.Millisecond
)

// Writer puts plain text on the clipboard.
type Writer interface {
	Write(text string) error
}

// Reader returns the current plain-text clipboard contents.
type Reader interface {
	Read() (string, error)
}

type ReadWriter interface {
	Reader
	Writer
}

// Error reports that the clipboard could not be written after every
// attempt. Err is the failure from the last attempt.
type Error struct {
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("clipboard: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RetriesExhausted is always true for an *Error; it exists so callers
// can report the condition by name.
func (e *Error) RetriesExhausted() bool { return true }

// System is the OS clipboard. The clipboard is shared with every other
// process and may be held open briefly by one of them, so writes are
// retried with a doubling backoff.
type System struct {
	Attempts int
	Backoff  time.Duration

	write func(string) error
	read  func() (string, error)
	sleep func(time.Duration)
}

func New(attempts int, backoff time.Duration) *System {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &System{
		Attempts: attempts,
		Backoff:  backoff,
		write:    cb.WriteAll,
		read:     cb.ReadAll,
		sleep:    time.Sleep,
	}
}

func (s *System) Write(text string) error {
	var err error
	wait := s.Backoff
	for i := 1; i <= s.Attempts; i++ {
		if err = s.write(text); err == nil {
			return nil
		}
		if i == s.Attempts {
			break
		}
		s.sleep(wait)
		wait = min(wait*2, maxBackoff)
	}
	return &Error{Attempts: s.Attempts, Err: err}
}

func (s *System) Read() (string, error) {
	return s.read()
}

// Unsupported reports whether no clipboard utility was found
// (xclip, xsel or wl-clipboard on Linux).
func Unsupported() bool {
	return cb.Unsupported
}
