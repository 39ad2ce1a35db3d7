package dispatch

import (
	"sync"

	"clipmagic/log"
)

// Sink receives outcomes. Report must not block for long: the dispatcher
// calls it inline.
type Sink interface {
	Report(Outcome)
}

type SinkFunc func(Outcome)

func (f SinkFunc) Report(o Outcome) { f(o) }

type discard struct{}

func (discard) Report(Outcome) {}

// AsyncSink queues outcomes and delivers them, in order, to its sinks
// from a single goroutine. Report never blocks; the queue is unbounded.
type AsyncSink struct {
	sinks []Sink

	mu     sync.Mutex
	queue  []Outcome
	closed bool

	wake chan struct{}
	done chan struct{}
	quit chan struct{}
	once sync.Once
}

func NewAsyncSink(sinks ...Sink) *AsyncSink {
	a := &AsyncSink{
		sinks: sinks,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
		quit:  make(chan struct{}),
	}
	go a.loop()
	return a
}

// Report enqueues o. Outcomes reported after Close are dropped.
func (a *AsyncSink) Report(o Outcome) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.queue = append(a.queue, o)
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *AsyncSink) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
		case <-a.quit:
			a.drain()
			return
		}
		a.drain()
	}
}

func (a *AsyncSink) drain() {
	for {
		a.mu.Lock()
		batch := a.queue
		a.queue = nil
		a.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, o := range batch {
			for _, s := range a.sinks {
				s.Report(o)
			}
		}
	}
}

// Close delivers everything already queued and stops the delivery
// goroutine.
func (a *AsyncSink) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.quit)
	})
	<-a.done
}

// Journal is a Sink that writes each outcome to the action log.
var Journal Sink = SinkFunc(func(o Outcome) {
	a := log.Action{Slot: o.Slot}
	if o.Combination.Key != "" {
		a.Combination = o.Combination.String()
	}
	for _, f := range o.Failures {
		a.Failed = append(a.Failed, f.String())
	}
	log.ActionResult(a)
})
