package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"clipmagic/clipboard"
	"clipmagic/config"
	"clipmagic/dispatch"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/log"
	"clipmagic/store"
	"clipmagic/tray"
)

// app ties the configuration, the action table, the hotkey registry and
// the dispatcher together. Live and test modes differ only in the
// backends passed to newApp.
type app struct {
	configPath string
	store      *store.Store
	registry   *hotkey.Registry
	dispatcher *dispatch.Dispatcher
	typer      inject.Typer
	sink       *dispatch.AsyncSink

	loops     sync.WaitGroup
	closeOnce sync.Once

	mu       sync.Mutex
	closed   bool
	cfg      *config.Config
	bindings []hotkey.Binding
}

// newApp prepares the dispatcher for cfg, the configuration loaded from
// path. Reloads and saves go back to path.
func newApp(path string, cfg *config.Config, newHotkey hotkey.Factory, clip clipboard.Writer, typer inject.Typer, sinks ...dispatch.Sink) *app {
	s := store.New(store.DefaultCapacity)
	s.ReplaceAll(cfg.StoreEntries(s.Capacity()))

	sink := dispatch.NewAsyncSink(append([]dispatch.Sink{dispatch.Journal}, sinks...)...)
	a := &app{
		configPath: path,
		store:      s,
		registry:   hotkey.NewRegistry(newHotkey),
		dispatcher: dispatch.New(s, clip, typer, sink),
		typer:      typer,
		sink:       sink,
		cfg:        cfg,
	}
	return a
}

// loadConfig reads the configuration at path. A file that cannot be
// read is logged and reported while the defaults are still returned.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Errorf("config load: %v", err)
	}
	return cfg, err
}

// bind registers the configured hotkeys and returns how many succeeded.
// Bindings that fail are logged and skipped.
func (a *app) bind() (int, []error) {
	a.mu.Lock()
	bindings, errs := a.cfg.Bindings(a.store.Capacity())
	a.mu.Unlock()
	for _, err := range errs {
		log.Errorf("config hotkey: %v", err)
	}

	n, regErrs := a.dispatcher.Bind(a.registry, bindings)
	a.mu.Lock()
	a.bindings = a.registry.Bindings()
	a.mu.Unlock()
	return n, append(errs, regErrs...)
}

// reload re-reads the configuration file, swaps the action table and,
// if the hotkeys changed, registers them again.
func (a *app) reload() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		log.ConfigReload(a.configPath, 0, err)
		return err
	}
	entries := cfg.StoreEntries(a.store.Capacity())
	a.store.ReplaceAll(entries)

	a.mu.Lock()
	rebind := !slices.Equal(a.cfg.Hotkeys.Slots, cfg.Hotkeys.Slots)
	a.cfg = cfg
	a.mu.Unlock()
	log.ConfigReload(a.configPath, len(entries), nil)

	if !rebind {
		return nil
	}
	if err := a.registry.UnregisterAll(); err != nil {
		return err
	}
	n, errs := a.bind()
	if n == 0 {
		return fmt.Errorf("no hotkey could be registered: %w", errors.Join(errs...))
	}
	return nil
}

// saveEntries writes edited entries back to the configuration file and
// applies them immediately.
func (a *app) saveEntries(entries []store.Entry) error {
	a.mu.Lock()
	cfg := *a.cfg
	cfg.SetEntries(entries)
	a.mu.Unlock()

	if err := config.Save(a.configPath, &cfg); err != nil {
		return err
	}
	a.mu.Lock()
	a.cfg = &cfg
	a.mu.Unlock()
	a.store.ReplaceAll(cfg.StoreEntries(a.store.Capacity()))
	return nil
}

func (a *app) currentConfig() *config.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// slots describes every slot with its binding, for the tray and the TUI.
func (a *app) slots() []tray.Slot {
	a.mu.Lock()
	bindings := a.bindings
	a.mu.Unlock()

	entries := a.store.Snapshot()
	out := make([]tray.Slot, len(entries))
	for i, e := range entries {
		out[i] = tray.Slot{Index: i, Text: e.Text, Clipboard: e.PushToClipboard}
	}
	for _, b := range bindings {
		if b.Slot < len(out) {
			out[b.Slot].Combination = b.Combination.String()
		}
	}
	return out
}

// combination returns the hotkey bound to slot.
func (a *app) combination(slot int) (hotkey.Combination, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, b := range a.bindings {
		if b.Slot == slot {
			return b.Combination, true
		}
	}
	return hotkey.Combination{}, false
}

// run dispatches presses until ctx is cancelled or the app is closed.
// After close it returns at once.
func (a *app) run(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.loops.Add(1)
	a.mu.Unlock()
	defer a.loops.Done()
	return a.dispatcher.Run(ctx, a.registry)
}

// close releases every hotkey, waits for an action already running to
// finish, releases the input device and flushes pending outcomes.
func (a *app) close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.registry.Close()
		a.loops.Wait()
		if c, ok := a.typer.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warnf("close input device: %v", err)
			}
		}
		a.sink.Close()
		log.SessionEnd(a.dispatcher.Count())
	})
}
