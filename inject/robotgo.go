//go:build robotgo

package inject

import (
	"github.com/go-vgo/robotgo"

	"clipmagic/clipboard"
)

// robotTyper types through robotgo, which maps each rune with the
// platform's native unicode input path and so handles non-ASCII text.
type robotTyper struct{}

func New(_ clipboard.ReadWriter) Typer {
	return robotTyper{}
}

func (robotTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	robotgo.TypeStr(text)
	return nil
}

func Verify(Typer) (string, error) {
	return "robotgo " + robotgo.GetVersion(), nil
}
