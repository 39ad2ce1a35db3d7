package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"clipmagic/beep"
	"clipmagic/clipboard"
	"clipmagic/config"
	"clipmagic/dispatch"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/log"
)

var waitTimeout = 5 * time.Second

// lockedWriter serializes lines written from the dispatcher and the sink.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// runTestMode runs the listener against simulated hotkeys, an in-memory
// clipboard and a recording typer, driven by line commands on in:
//
//	PRESS <slot>   press and let go of the hotkey bound to slot (1-based)
//	HOLD <slot>    press the hotkey bound to slot without letting go
//	RELEASE <slot> let go of the hotkey bound to slot
//	WAIT           wait until every press so far has an outcome
//	RELOAD         re-read the configuration file
//	CLIPBOARD      print the clipboard contents
//	SLEEP <ms>     pause
//	QUIT           shut down
//
// Typed text, outcomes and clipboard contents are written to out.
// CLIPMAGIC_TEST_CLIPBOARD_FAIL=1 makes every clipboard write fail.
// WAIT gives up after waitTimeout, since a press whose hotkey was
// rebound before it ran never gets an outcome.
func runTestMode(in io.Reader, out io.Writer) error {
	beep.Disable()
	w := &lockedWriter{w: out}

	path, err := config.Path(opts.configPath)
	if err != nil {
		return err
	}

	backend := hotkey.NewFakeBackend()
	clip := clipboard.NewFake()
	if os.Getenv("CLIPMAGIC_TEST_CLIPBOARD_FAIL") == "1" {
		clip.Fail = errors.New("clipboard unavailable")
	}
	typer := inject.NewRecorder(w)

	done := make(chan struct{}, 1024)
	report := dispatch.SinkFunc(func(o dispatch.Outcome) {
		if o.OK() {
			fmt.Fprintf(w, "OUTCOME slot=%d ok\n", o.Slot+1)
		} else {
			stages := make([]string, len(o.Failures))
			for i, f := range o.Failures {
				stages[i] = strings.ReplaceAll(f.Stage.String(), " ", "_")
			}
			fmt.Fprintf(w, "OUTCOME slot=%d failed=%s\n", o.Slot+1, strings.Join(stages, ","))
		}
		done <- struct{}{}
	})

	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(w, "WARNING %v\n", err)
	}
	a := newApp(path, cfg, backend.New, clip, typer, report)
	current.Store(a)

	n, _ := a.bind()
	if n == 0 {
		a.close()
		return fmt.Errorf("no hotkey could be registered")
	}
	log.SessionStart(a.store.Capacity(), n, "test")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- a.run(ctx) }()

	pending := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "PRESS", "HOLD":
			slot, err := argInt(fields)
			if err != nil {
				fmt.Fprintf(w, "ERROR %v\n", err)
				continue
			}
			combo, ok := a.combination(slot - 1)
			if !ok || !backend.Hold(combo) {
				fmt.Fprintf(w, "IGNORED slot=%d\n", slot)
				continue
			}
			if strings.EqualFold(fields[0], "PRESS") {
				backend.Release(combo)
			}
			pending++
		case "RELEASE":
			slot, err := argInt(fields)
			if err != nil {
				fmt.Fprintf(w, "ERROR %v\n", err)
				continue
			}
			if combo, ok := a.combination(slot - 1); ok {
				fmt.Fprintf(w, "RELEASED slot=%d\n", slot)
				backend.Release(combo)
			}
		case "WAIT":
			timeout := time.NewTimer(waitTimeout)
		wait:
			for ; pending > 0; pending-- {
				select {
				case <-done:
				case <-timeout.C:
					fmt.Fprintf(w, "ERROR wait: %d without outcome\n", pending)
					pending = 0
					break wait
				}
			}
			timeout.Stop()
		case "RELOAD":
			if err := a.reload(); err != nil {
				fmt.Fprintf(w, "ERROR reload: %v\n", err)
				continue
			}
			fmt.Fprintln(w, "RELOADED")
		case "CLIPBOARD":
			text, _ := clip.Read()
			fmt.Fprintf(w, "CLIPBOARD %q\n", text)
		case "SLEEP":
			if ms, err := argInt(fields); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return stopTestMode(a, cancel, runErr)
		default:
			fmt.Fprintf(w, "ERROR unknown command %q\n", fields[0])
		}
	}
	return stopTestMode(a, cancel, runErr)
}

func stopTestMode(a *app, cancel context.CancelFunc, runErr <-chan error) error {
	cancel()
	err := <-runErr
	a.close()
	log.Close()
	return err
}

func argInt(fields []string) (int, error) {
	if len(fields) < 2 {
		return 0, fmt.Errorf("%s needs an argument", fields[0])
	}
	return strconv.Atoi(fields[1])
}
