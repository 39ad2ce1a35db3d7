//go:build !linux && !darwin && !windows

package hotkey

func New(Combination) (Hotkey, error) { return nil, ErrUnsupported }

func Diagnose(Combination) (string, error) { return "", ErrUnsupported }
