package dispatch

import (
	"fmt"
	"strings"

	"clipmagic/hotkey"
)

// Stage names the side effect that failed.
type Stage int

const (
	StageClipboardWrite Stage = iota + 1
	StageInputInjection
)

func (s Stage) String() string {
	switch s {
	case StageClipboardWrite:
		return "clipboard write"
	case StageInputInjection:
		return "input injection"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

type Failure struct {
	Stage Stage
	Err   error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

// Outcome is the result of one dispatched press. An Outcome with no
// failures is a success; otherwise it lists each failed stage in the
// order the stages ran.
type Outcome struct {
	Slot int
	// Combination is the hotkey that triggered the action, zero when the
	// action was dispatched directly.
	Combination hotkey.Combination
	Failures    []Failure
}

func (o Outcome) OK() bool { return len(o.Failures) == 0 }

// Failed returns the failure recorded for stage, if any.
func (o Outcome) Failed(stage Stage) (Failure, bool) {
	for _, f := range o.Failures {
		if f.Stage == stage {
			return f, true
		}
	}
	return Failure{}, false
}

func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("slot %d: ok", o.Slot)
	}
	parts := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		parts[i] = f.String()
	}
	return fmt.Sprintf("slot %d: %s", o.Slot, strings.Join(parts, "; "))
}
