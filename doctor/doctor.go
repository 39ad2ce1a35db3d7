package doctor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"clipmagic/clipboard"
	"clipmagic/config"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/store"
)

const testText = "clipmagic-doctor-test"

// Doctor runs the diagnostic checks. The zero value is not usable; see
// New.
type Doctor struct {
	Out         io.Writer
	In          *bufio.Reader
	Interactive bool
	// Wait bounds each step that waits on the user or the OS.
	Wait time.Duration
	// Countdown is the pause before typing, to let the user focus a
	// text field.
	Countdown time.Duration

	ConfigPath   string
	NewHotkey    hotkey.Factory
	Diagnose     func(hotkey.Combination) (string, error)
	Clipboard    clipboard.ReadWriter
	HasClipboard func() bool
	Typer        inject.Typer
	Verify       func(inject.Typer) (string, error)
}

// New returns a doctor wired to the real platform backends. It is
// interactive when stdin is a terminal.
func New(configPath string) *Doctor {
	clip := clipboard.New(config.DefaultAttempts, config.DefaultBackoffMs*time.Millisecond)
	return &Doctor{
		Out:          os.Stdout,
		In:           bufio.NewReader(os.Stdin),
		Interactive:  term.IsTerminal(int(os.Stdin.Fd())),
		Wait:         10 * time.Second,
		Countdown:    5 * time.Second,
		ConfigPath:   configPath,
		NewHotkey:    hotkey.New,
		Diagnose:     hotkey.Diagnose,
		Clipboard:    clip,
		HasClipboard: systemClipboard,
		Typer:        inject.New(clip),
		Verify:       inject.Verify,
	}
}

func systemClipboard() bool { return !clipboard.Unsupported() }

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(configPath string) int {
	resetTerminal()
	setupInterruptHandler()
	return New(configPath).Run()
}

func (d *Doctor) Run() int {
	d.printf("clipmagic doctor - system diagnostics\n")
	d.printf("=====================================\n")

	cfg, ok := d.checkConfig()
	bindings, _ := cfg.Bindings(store.DefaultCapacity)

	checks := []func() bool{
		func() bool { return d.checkHotkeys(bindings) },
		d.checkClipboard,
		d.checkInjection,
	}
	for _, check := range checks {
		if !check() {
			ok = false
		}
	}

	d.printf("\n")
	if ok {
		d.printf("All checks passed!\n")
		return 0
	}
	d.printf("Some checks failed. See details above.\n")
	return 1
}

func (d *Doctor) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}

func (d *Doctor) confirm(question string) bool {
	d.printf("%s [y/n]: ", question)
	answer, _ := d.In.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *Doctor) checkConfig() (*config.Config, bool) {
	d.printf("\n[1/4] Configuration\n")
	cfg, err := config.Load(d.ConfigPath)
	if err != nil {
		d.printf("  FAIL: %s: %v\n", d.ConfigPath, err)
		d.printf("  Using built-in defaults\n")
		return cfg, false
	}
	ok := true
	_, errs := cfg.Bindings(store.DefaultCapacity)
	for _, err := range errs {
		d.printf("  FAIL: %v\n", err)
		ok = false
	}
	if ok {
		d.printf("  PASS: %s (%d entries)\n", d.ConfigPath, len(cfg.Entries))
	}
	return cfg, ok
}

func (d *Doctor) checkHotkeys(bindings []hotkey.Binding) bool {
	d.printf("\n[2/4] Global hotkeys\n")
	if len(bindings) == 0 {
		d.printf("  FAIL: no hotkeys configured\n")
		return false
	}
	msg, err := d.Diagnose(bindings[0].Combination)
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}
	d.printf("  %s\n", msg)

	reg := hotkey.NewRegistry(d.NewHotkey)
	defer reg.Close()

	ok := true
	for _, b := range bindings {
		if _, err := reg.Register(b); err != nil {
			d.printf("  FAIL: slot %d: %v\n", b.Slot+1, err)
			ok = false
			continue
		}
		d.printf("  PASS: slot %d bound to %s\n", b.Slot+1, b.Combination)
	}
	if !ok || !d.Interactive {
		return ok
	}

	first := reg.Bindings()[0]
	d.printf("Press %s...\n", first.Combination)
	ctx, cancel := context.WithTimeout(context.Background(), d.Wait)
	defer cancel()
	id, err := reg.Next(ctx)
	if err != nil {
		d.printf("  FAIL: timeout waiting for hotkey\n")
		return false
	}
	b, _ := reg.Lookup(id)
	d.printf("  PASS: %s detected (slot %d)\n", b.Combination, b.Slot+1)
	// the hotkey may leave the terminal in raw mode
	resetTerminal()
	return true
}

func (d *Doctor) checkClipboard() bool {
	d.printf("\n[3/4] Clipboard\n")
	if !d.HasClipboard() {
		d.printf("  FAIL: no clipboard utility found (install xclip, xsel or wl-clipboard)\n")
		return false
	}

	prev, _ := d.Clipboard.Read()
	want := fmt.Sprintf("%s-%d", testText, time.Now().UnixNano())

	type result struct {
		got   string
		err   error
		phase string
	}
	ch := make(chan result, 1)
	go func() {
		if err := d.Clipboard.Write(want); err != nil {
			ch <- result{err: err, phase: "write"}
			return
		}
		got, err := d.Clipboard.Read()
		if err != nil {
			ch <- result{err: err, phase: "read"}
			return
		}
		ch <- result{got: got}
	}()

	var res result
	select {
	case res = <-ch:
	case <-time.After(d.Wait):
		d.printf("  FAIL: clipboard timed out (clipboard tool hung?)\n")
		return false
	}
	d.Clipboard.Write(prev)

	if res.err != nil {
		d.printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
		return false
	}
	if res.got != want {
		d.printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", want, res.got)
		return false
	}
	d.printf("  PASS: clipboard write/read verified\n")
	return true
}

func (d *Doctor) checkInjection() bool {
	d.printf("\n[4/4] Keystroke injection\n")
	if err := inject.Init(d.Typer); err != nil {
		d.printf("  FAIL: %v\n", err)
		d.printf("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput\n")
		return false
	}
	if c, ok := d.Typer.(io.Closer); ok {
		defer c.Close()
	}
	msg, err := d.Verify(d.Typer)
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}
	d.printf("  %s\n", msg)
	if !d.Interactive {
		d.printf("  PASS: injection initialized (not typing without a terminal)\n")
		return true
	}

	d.printf("Focus a text editor window...\n")
	for left := d.Countdown; left > 0; left -= time.Second {
		d.printf("  %d...\n", int(left/time.Second))
		time.Sleep(time.Second)
	}
	if err := d.Typer.Type(testText); err != nil {
		d.printf("  FAIL: %v\n", err)
		return false
	}

	resetTerminal()
	if !d.confirm(fmt.Sprintf("\nDid the text %q appear?", testText)) {
		d.printf("  FAIL: typing not confirmed\n")
		return false
	}
	d.printf("  PASS: typing verified by user\n")
	return true
}
