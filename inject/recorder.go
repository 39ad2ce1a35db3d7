package inject

import (
	"fmt"
	"io"
	"sync"
)

// Recorder is a Typer that records text instead of typing it. With Out
// set it also writes one "TYPED <text>" line per call.
type Recorder struct {
	mu    sync.Mutex
	typed []string
	Out   io.Writer
	Fail  error
}

func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{Out: out}
}

func (r *Recorder) Type(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return &Error{Op: "type", Err: r.Fail}
	}
	r.typed = append(r.typed, text)
	if r.Out != nil {
		fmt.Fprintf(r.Out, "TYPED %q\n", text)
	}
	return nil
}

func (r *Recorder) Typed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.typed...)
}
