//go:build !darwin && !linux && !windows

package login

import "errors"

func Enabled() bool { return false }

func Enable([]string) error { return errors.New("start at login is not supported on this platform") }

func Disable() error { return nil }
