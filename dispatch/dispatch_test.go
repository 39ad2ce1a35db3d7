package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipmagic/clipboard"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/store"
)

// collector is a Sink recording every outcome.
type collector struct {
	mu  sync.Mutex
	out []Outcome
}

func (c *collector) Report(o Outcome) {
	c.mu.Lock()
	c.out = append(c.out, o)
	c.mu.Unlock()
}

func (c *collector) outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Outcome(nil), c.out...)
}

type fixture struct {
	store *store.Store
	clip  *clipboard.Fake
	typer *inject.Recorder
	sink  *collector
	d     *Dispatcher
}

func newFixture(entries ...store.Entry) *fixture {
	f := &fixture{
		store: store.New(store.DefaultCapacity),
		clip:  clipboard.NewFake(),
		typer: inject.NewRecorder(nil),
		sink:  &collector{},
	}
	f.store.ReplaceAll(entries)
	f.d = New(f.store, f.clip, f.typer, f.sink)
	return f
}

func TestScenario(t *testing.T) {
	f := newFixture(
		store.Entry{Text: "hello", PushToClipboard: true},
		store.Entry{Text: "world"},
		store.Entry{Text: ""},
	)
	f.clip.Write("before")

	out := f.d.Dispatch(0)
	assert.True(t, out.OK(), out.String())
	clip, _ := f.clip.Read()
	assert.Equal(t, "hello", clip)
	assert.Equal(t, []string{"hello"}, f.typer.Typed())

	out = f.d.Dispatch(1)
	assert.True(t, out.OK(), out.String())
	clip, _ = f.clip.Read()
	assert.Equal(t, "hello", clip, "clipboard changed by a non-clipboard entry")
	assert.Equal(t, []string{"hello", "world"}, f.typer.Typed())

	out = f.d.Dispatch(2)
	assert.True(t, out.OK(), out.String())
	clip, _ = f.clip.Read()
	assert.Equal(t, "hello", clip)
	assert.Equal(t, []string{"hello", "world", ""}, f.typer.Typed())

	assert.Len(t, f.sink.outcomes(), 3)
}

func TestClipboardUntouchedWithoutFlag(t *testing.T) {
	f := newFixture(store.Entry{Text: "world"}, store.Entry{Text: "x"})
	f.d.Dispatch(0)
	f.d.Dispatch(1)
	f.d.Dispatch(2)
	assert.Empty(t, f.clip.Writes())
}

func TestClipboardFailureStillTypes(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	busy := errors.New("clipboard held by another process")
	f.clip.Fail = busy

	out := f.d.Dispatch(0)

	require.Len(t, out.Failures, 1)
	fail, ok := out.Failed(StageClipboardWrite)
	require.True(t, ok)
	assert.ErrorIs(t, fail.Err, busy)
	var cerr *clipboard.Error
	assert.ErrorAs(t, fail.Err, &cerr)
	assert.Equal(t, []string{"hello"}, f.typer.Typed(), "typing must still happen")
	_, injFailed := out.Failed(StageInputInjection)
	assert.False(t, injFailed)
}

func TestInjectionFailure(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	f.typer.Fail = errors.New("no uinput")

	out := f.d.Dispatch(0)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, StageInputInjection, out.Failures[0].Stage)
	var ierr *inject.Error
	assert.ErrorAs(t, out.Failures[0].Err, &ierr)
	clip, _ := f.clip.Read()
	assert.Equal(t, "hello", clip)
}

func TestBothStagesFail(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	f.clip.Fail = errors.New("busy")
	f.typer.Fail = errors.New("denied")

	out := f.d.Dispatch(0)

	require.Len(t, out.Failures, 2)
	assert.Equal(t, StageClipboardWrite, out.Failures[0].Stage)
	assert.Equal(t, StageInputInjection, out.Failures[1].Stage)
	assert.Contains(t, out.String(), "clipboard write")
	assert.Contains(t, out.String(), "input injection")

	// a failure leaves the dispatcher usable
	f.clip.Fail = nil
	f.typer.Fail = nil
	assert.True(t, f.d.Dispatch(0).OK())
	assert.Len(t, f.sink.outcomes(), 2)
}

func TestIdempotentDispatch(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	first := f.d.Dispatch(0)
	second := f.d.Dispatch(0)
	assert.True(t, first.OK())
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"hello", "hello"}, f.typer.Typed())
}

func TestReplaceAllDuringDispatch(t *testing.T) {
	f := newFixture(store.Entry{Text: "a"})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			f.store.ReplaceAll([]store.Entry{{Text: "b"}})
			f.store.ReplaceAll([]store.Entry{{Text: "a"}})
		}
	}()
	for i := 0; i < 200; i++ {
		f.d.Dispatch(0)
	}
	wg.Wait()
	for _, s := range f.typer.Typed() {
		if s != "a" && s != "b" {
			t.Fatalf("typed %q", s)
		}
	}
	assert.Equal(t, 200, f.d.Count())
}

func runLoop(t *testing.T, f *fixture, reg *hotkey.Registry) (stop func(), done <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.d.Run(ctx, reg) }()
	return cancel, errc
}

func waitOutcomes(t *testing.T, c *collector, n int) []Outcome {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if out := c.outcomes(); len(out) >= n {
			return out
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got %d outcomes, want %d", len(c.outcomes()), n)
	return nil
}

func TestOneOutcomePerPress(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello"}, store.Entry{Text: "world"})
	fb := hotkey.NewFakeBackend()
	reg := hotkey.NewRegistry(fb.New)
	defer reg.Close()

	combos := hotkey.DefaultCombinations(3)
	n, errs := f.d.Bind(reg, []hotkey.Binding{
		{Combination: combos[0], Slot: 0},
		{Combination: combos[1], Slot: 1},
	})
	require.Empty(t, errs)
	require.Equal(t, 2, n)

	stop, done := runLoop(t, f, reg)
	defer stop()

	// presses of different combinations travel separate forwarders, so
	// wait for each before the next to pin the order
	for i, c := range []hotkey.Combination{combos[0], combos[1], combos[0]} {
		require.True(t, fb.Press(c))
		waitOutcomes(t, f.sink, i+1)
	}
	time.Sleep(20 * time.Millisecond)
	out := f.sink.outcomes()
	require.Len(t, out, 3, "each press yields exactly one outcome")
	assert.Equal(t, []string{"hello", "world", "hello"}, f.typer.Typed())
	assert.Equal(t, combos[0], out[0].Combination)
	assert.Equal(t, 1, out[1].Slot)

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBindSkipsFailures(t *testing.T) {
	f := newFixture()
	fb := hotkey.NewFakeBackend()
	reg := hotkey.NewRegistry(fb.New)
	defer reg.Close()

	combos := hotkey.DefaultCombinations(3)
	fb.Refuse[combos[1]] = errors.New("grabbed by another program")

	n, errs := f.d.Bind(reg, []hotkey.Binding{
		{Combination: combos[0], Slot: 0},
		{Combination: combos[1], Slot: 1},
		{Combination: combos[2], Slot: 2},
		{Combination: combos[0], Slot: 1},
		{Combination: hotkey.MustParse("ctrl+9"), Slot: 7},
	})
	assert.Equal(t, 2, n)
	require.Len(t, errs, 3)
	var rerr *hotkey.RegistrationError
	assert.ErrorAs(t, errs[0], &rerr)
	assert.ErrorIs(t, errs[1], hotkey.ErrAlreadyRegistered)
	assert.Contains(t, errs[2].Error(), "out of range")
	assert.Len(t, reg.Bindings(), 2)
}

func TestShutdownStopsDispatch(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	fb := hotkey.NewFakeBackend()
	reg := hotkey.NewRegistry(fb.New)
	c := hotkey.DefaultCombinations(1)[0]
	_, errs := f.d.Bind(reg, []hotkey.Binding{{Combination: c, Slot: 0}})
	require.Empty(t, errs)

	stop, done := runLoop(t, f, reg)
	defer stop()

	require.NoError(t, reg.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after registry Close")
	}

	assert.False(t, fb.Press(c))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.sink.outcomes())
	assert.Empty(t, f.typer.Typed())
	assert.Empty(t, f.clip.Writes())
}

func TestTypesAfterRelease(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello", PushToClipboard: true})
	fb := hotkey.NewFakeBackend()
	reg := hotkey.NewRegistry(fb.New)
	defer reg.Close()
	c := hotkey.DefaultCombinations(1)[0]
	_, errs := f.d.Bind(reg, []hotkey.Binding{{Combination: c, Slot: 0}})
	require.Empty(t, errs)

	stop, _ := runLoop(t, f, reg)
	defer stop()

	require.True(t, fb.Hold(c))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.typer.Typed(), "typed while the combination was held")
	assert.Empty(t, f.clip.Writes())
	assert.Empty(t, f.sink.outcomes())

	fb.Release(c)
	out := waitOutcomes(t, f.sink, 1)
	assert.True(t, out[0].OK())
	assert.Equal(t, []string{"hello"}, f.typer.Typed())
}

func TestUnregisteredWhileHeldIsSkipped(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello"})
	fb := hotkey.NewFakeBackend()
	reg := hotkey.NewRegistry(fb.New)
	defer reg.Close()
	c := hotkey.DefaultCombinations(1)[0]
	_, errs := f.d.Bind(reg, []hotkey.Binding{{Combination: c, Slot: 0}})
	require.Empty(t, errs)

	stop, done := runLoop(t, f, reg)
	defer stop()

	require.True(t, fb.Hold(c))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, reg.UnregisterAll())
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, f.sink.outcomes())
	assert.Empty(t, f.typer.Typed())

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// heldEvents delivers one press whose combination is never let go.
type heldEvents struct {
	sent bool
}

func (e *heldEvents) Next(ctx context.Context) (hotkey.RegistrationID, error) {
	if !e.sent {
		e.sent = true
		return 1, nil
	}
	<-ctx.Done()
	return 0, ctx.Err()
}

func (e *heldEvents) AwaitRelease(context.Context, hotkey.RegistrationID) error {
	return hotkey.ErrReleaseTimeout
}

func (e *heldEvents) Lookup(hotkey.RegistrationID) (hotkey.Binding, bool) {
	return hotkey.Binding{Combination: hotkey.DefaultCombinations(1)[0], Slot: 0}, true
}

func TestHeldPastTimeoutStillDispatches(t *testing.T) {
	f := newFixture(store.Entry{Text: "hello"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- f.d.Run(ctx, &heldEvents{}) }()

	out := waitOutcomes(t, f.sink, 1)
	assert.Equal(t, 0, out[0].Slot)
	assert.Equal(t, []string{"hello"}, f.typer.Typed())

	cancel()
	assert.NoError(t, <-errc)
}
