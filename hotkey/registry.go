package hotkey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// queueSize bounds presses waiting for the consumer. Presses beyond it
// wait in the per-binding forwarders rather than being dropped.
const queueSize = 64

// releaseTimeout bounds how long AwaitRelease waits for a combination
// to be let go.
const releaseTimeout = 2 * time.Second

var (
	ErrRegistryClosed    = errors.New("hotkey registry closed")
	ErrAlreadyRegistered = errors.New("combination already registered")
	ErrNotRegistered     = errors.New("registration not found")
	ErrUnsupported       = errors.New("global hotkeys not supported on this platform")
	ErrReleaseTimeout    = errors.New("combination still held")
)

// RegistrationID identifies one live registration in a Registry.
type RegistrationID uint64

// Binding ties a combination to an action slot.
type Binding struct {
	Combination Combination
	Slot        int
}

// RegistrationError reports a binding the OS or the registry refused.
type RegistrationError struct {
	Combination Combination
	Err         error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %s: %v", e.Combination, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

type registration struct {
	id      RegistrationID
	binding Binding
	hk      Hotkey
	stop    chan struct{}
}

// Registry owns a set of registered hotkeys and merges their key-down
// events into one queue read with Next. Each registration gets its own
// forwarding goroutine, so the OS side keeps listening while the
// consumer is busy.
type Registry struct {
	newHotkey      Factory
	releaseTimeout time.Duration

	mu     sync.Mutex
	nextID RegistrationID
	regs   map[RegistrationID]*registration
	closed bool

	events chan RegistrationID
	done   chan struct{}
}

// NewRegistry returns an empty registry. A nil factory uses the
// platform backend.
func NewRegistry(f Factory) *Registry {
	if f == nil {
		f = New
	}
	return &Registry{
		newHotkey:      f,
		releaseTimeout: releaseTimeout,
		regs:           make(map[RegistrationID]*registration),
		events:         make(chan RegistrationID, queueSize),
		done:           make(chan struct{}),
	}
}

func (r *Registry) Register(b Binding) (RegistrationID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRegistryClosed
	}
	for _, reg := range r.regs {
		if reg.binding.Combination == b.Combination {
			return 0, &RegistrationError{Combination: b.Combination, Err: ErrAlreadyRegistered}
		}
	}
	hk, err := r.newHotkey(b.Combination)
	if err != nil {
		return 0, &RegistrationError{Combination: b.Combination, Err: err}
	}
	if err := hk.Register(); err != nil {
		return 0, &RegistrationError{Combination: b.Combination, Err: err}
	}
	r.nextID++
	reg := &registration{
		id:      r.nextID,
		binding: b,
		hk:      hk,
		stop:    make(chan struct{}),
	}
	r.regs[reg.id] = reg
	go r.forward(reg)
	return reg.id, nil
}

func (r *Registry) forward(reg *registration) {
	for {
		select {
		case <-reg.stop:
			return
		case <-r.done:
			return
		case <-reg.hk.Keydown():
		}
		select {
		case r.events <- reg.id:
		case <-reg.stop:
			return
		case <-r.done:
			return
		}
	}
}

func (r *Registry) Unregister(id RegistrationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	reg, ok := r.regs[id]
	if !ok {
		return ErrNotRegistered
	}
	delete(r.regs, id)
	close(reg.stop)
	reg.hk.Unregister()
	return nil
}

// UnregisterAll releases every registration and leaves the registry
// open for new ones.
func (r *Registry) UnregisterAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	for id, reg := range r.regs {
		close(reg.stop)
		reg.hk.Unregister()
		delete(r.regs, id)
	}
	return nil
}

// Next blocks until a registered combination is pressed and returns its
// registration. Presses of a combination that has since been
// unregistered are skipped. After Close it returns ErrRegistryClosed.
func (r *Registry) Next(ctx context.Context) (RegistrationID, error) {
	for {
		select {
		case <-r.done:
			return 0, ErrRegistryClosed
		default:
		}
		select {
		case id := <-r.events:
			r.mu.Lock()
			_, live := r.regs[id]
			closed := r.closed
			r.mu.Unlock()
			if closed {
				return 0, ErrRegistryClosed
			}
			if live {
				return id, nil
			}
		case <-r.done:
			return 0, ErrRegistryClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// AwaitRelease blocks until the combination behind id has been let go,
// key and modifiers both, for the press Next last returned. It gives up
// with ErrReleaseTimeout when the keys stay down too long.
func (r *Registry) AwaitRelease(ctx context.Context, id RegistrationID) error {
	r.mu.Lock()
	reg, ok := r.regs[id]
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrRegistryClosed
	}
	if !ok {
		return ErrNotRegistered
	}

	timer := time.NewTimer(r.releaseTimeout)
	defer timer.Stop()
	select {
	case <-reg.hk.Keyup():
		return nil
	case <-reg.stop:
		select {
		case <-r.done:
			return ErrRegistryClosed
		default:
			return ErrNotRegistered
		}
	case <-r.done:
		return ErrRegistryClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrReleaseTimeout
	}
}

func (r *Registry) Lookup(id RegistrationID) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	if !ok {
		return Binding{}, false
	}
	return reg.binding, true
}

// Bindings returns the live bindings ordered by slot.
func (r *Registry) Bindings() []Binding {
	r.mu.Lock()
	out := make([]Binding, 0, len(r.regs))
	for _, reg := range r.regs {
		out = append(out, reg.binding)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

// Close releases every registration. It is safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.done)
	for id, reg := range r.regs {
		close(reg.stop)
		reg.hk.Unregister()
		delete(r.regs, id)
	}
	return nil
}
