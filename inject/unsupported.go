//go:build !linux && !darwin && !windows && !robotgo

package inject

import "clipmagic/clipboard"

type unsupportedTyper struct{}

func New(_ clipboard.ReadWriter) Typer { return unsupportedTyper{} }

func (unsupportedTyper) Init() error { return ErrUnsupported }

func (unsupportedTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	return &Error{Op: "init", Err: ErrUnsupported}
}

func Verify(Typer) (string, error) { return "", ErrUnsupported }
