package inject

import (
	"time"

	"clipmagic/clipboard"
)

// pasteThrough stages text on clip, calls paste, and puts the previous
// contents back once the target has had settle to read them. When the
// previous contents cannot be read nothing is staged or pasted, so the
// clipboard never ends up holding text the user did not ask for.
func pasteThrough(clip clipboard.ReadWriter, text string, settle time.Duration, paste func() error) error {
	prev, err := clip.Read()
	if err != nil {
		return &Error{Op: "save", Err: err}
	}
	if prev == text {
		if err := paste(); err != nil {
			return &Error{Op: "paste", Err: err}
		}
		return nil
	}
	if err := clip.Write(text); err != nil {
		// a failed write may still have replaced the contents
		clip.Write(prev)
		return &Error{Op: "stage", Err: err}
	}

	pasteErr := paste()
	if pasteErr == nil {
		time.Sleep(settle)
	}
	if err := clip.Write(prev); err != nil {
		return &Error{Op: "restore", Err: err}
	}
	if pasteErr != nil {
		return &Error{Op: "paste", Err: pasteErr}
	}
	return nil
}
