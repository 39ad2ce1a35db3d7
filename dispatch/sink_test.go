package dispatch

import (
	"sync"
	"testing"
	"time"
)

func TestAsyncSinkOrder(t *testing.T) {
	c := &collector{}
	a := NewAsyncSink(c)
	for i := 0; i < 100; i++ {
		a.Report(Outcome{Slot: i})
	}
	a.Close()

	out := c.outcomes()
	if len(out) != 100 {
		t.Fatalf("delivered %d outcomes, want 100", len(out))
	}
	for i, o := range out {
		if o.Slot != i {
			t.Fatalf("outcome %d has slot %d", i, o.Slot)
		}
	}
}

func TestAsyncSinkDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	slow := SinkFunc(func(Outcome) {
		once.Do(func() { <-release })
	})
	a := NewAsyncSink(slow)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			a.Report(Outcome{Slot: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked behind a slow sink")
	}
	close(release)
	a.Close()
}

func TestAsyncSinkFanOut(t *testing.T) {
	c1, c2 := &collector{}, &collector{}
	a := NewAsyncSink(c1, c2)
	a.Report(Outcome{Slot: 1})
	a.Close()
	a.Close()
	a.Report(Outcome{Slot: 2})

	if len(c1.outcomes()) != 1 || len(c2.outcomes()) != 1 {
		t.Errorf("fan-out delivered %d and %d", len(c1.outcomes()), len(c2.outcomes()))
	}
}

func TestOutcomeString(t *testing.T) {
	if s := (Outcome{Slot: 2}).String(); s != "slot 2: ok" {
		t.Errorf("got %q", s)
	}
	if s := Stage(9).String(); s != "stage(9)" {
		t.Errorf("got %q", s)
	}
}
