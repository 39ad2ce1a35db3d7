// Package dispatch turns hotkey presses into clipboard writes and typed
// text.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"clipmagic/clipboard"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/log"
	"clipmagic/store"
)

// Events is the side of a hotkey.Registry the listening loop reads.
type Events interface {
	Next(ctx context.Context) (hotkey.RegistrationID, error)
	AwaitRelease(ctx context.Context, id hotkey.RegistrationID) error
	Lookup(id hotkey.RegistrationID) (hotkey.Binding, bool)
}

type Dispatcher struct {
	store *store.Store
	clip  clipboard.Writer
	typer inject.Typer
	sink  Sink

	mu    sync.Mutex // one action at a time
	count atomic.Int64
}

// New returns a dispatcher reading actions from s. A nil sink discards
// outcomes.
func New(s *store.Store, clip clipboard.Writer, typer inject.Typer, sink Sink) *Dispatcher {
	if sink == nil {
		sink = discard{}
	}
	return &Dispatcher{store: s, clip: clip, typer: typer, sink: sink}
}

// Dispatch runs the action stored in slot and reports exactly one
// outcome. A clipboard failure does not stop the text from being typed.
// Nothing is retried.
func (d *Dispatcher) Dispatch(slot int) Outcome {
	return d.dispatch(slot, hotkey.Combination{})
}

func (d *Dispatcher) dispatch(slot int, combo hotkey.Combination) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry := d.store.Get(slot)
	out := Outcome{Slot: slot, Combination: combo}

	if entry.PushToClipboard {
		if err := d.clip.Write(entry.Text); err != nil {
			out.Failures = append(out.Failures, Failure{Stage: StageClipboardWrite, Err: err})
		}
	}
	if err := d.typer.Type(entry.Text); err != nil {
		out.Failures = append(out.Failures, Failure{Stage: StageInputInjection, Err: err})
	}

	d.count.Add(1)
	d.sink.Report(out)
	return out
}

// Count is the number of actions dispatched so far.
func (d *Dispatcher) Count() int { return int(d.count.Load()) }

// Bind registers every binding with reg. A binding that cannot be
// registered is logged and skipped so the rest keep working.
func (d *Dispatcher) Bind(reg *hotkey.Registry, bindings []hotkey.Binding) (registered int, errs []error) {
	for _, b := range bindings {
		if b.Slot < 0 || b.Slot >= d.store.Capacity() {
			err := fmt.Errorf("binding %s: slot %d out of range [0,%d)", b.Combination, b.Slot, d.store.Capacity())
			log.HotkeyRegisterFailed(b.Slot, b.Combination.String(), err)
			errs = append(errs, err)
			continue
		}
		if _, err := reg.Register(b); err != nil {
			log.HotkeyRegisterFailed(b.Slot, b.Combination.String(), err)
			errs = append(errs, err)
			continue
		}
		log.HotkeyRegistered(b.Slot, b.Combination.String())
		registered++
	}
	return registered, errs
}

// Run dispatches presses from events until ctx is cancelled or the
// registry is closed. An action already running when that happens is
// finished first.
//
// Typing starts only once the combination has been let go, so the held
// modifiers do not combine with the injected keys. A combination held
// past the release timeout is dispatched anyway.
func (d *Dispatcher) Run(ctx context.Context, events Events) error {
	for {
		id, err := events.Next(ctx)
		if err != nil {
			if errors.Is(err, hotkey.ErrRegistryClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		b, ok := events.Lookup(id)
		if !ok {
			continue
		}
		switch err := events.AwaitRelease(ctx, id); {
		case err == nil:
		case errors.Is(err, hotkey.ErrReleaseTimeout):
			log.HotkeyHeld(b.Slot, b.Combination.String())
		case errors.Is(err, hotkey.ErrNotRegistered):
			continue
		case errors.Is(err, hotkey.ErrRegistryClosed) || ctx.Err() != nil:
			return nil
		default:
			return err
		}
		d.dispatch(b.Slot, b.Combination)
	}
}
