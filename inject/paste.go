//go:build (darwin || windows) && !robotgo

package inject

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"

	"clipmagic/clipboard"
)

// pasteSettle is how long the target application gets to read the
// clipboard before the previous contents are put back.
const pasteSettle = 150 * time.Millisecond

// pasteTyper delivers text by staging it on the clipboard and sending
// the platform paste shortcut. The clipboard contents from before the
// call are restored afterwards; when they cannot be read the text is not
// pasted at all.
type pasteTyper struct {
	mu   sync.Mutex
	clip clipboard.ReadWriter
	kb   *keybd_event.KeyBonding

	settle time.Duration
}

func New(clip clipboard.ReadWriter) Typer {
	return &pasteTyper{clip: clip, settle: pasteSettle}
}

func (p *pasteTyper) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open()
}

func (p *pasteTyper) open() error {
	if p.kb != nil {
		return nil
	}
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	p.kb = &kb
	return nil
}

func (p *pasteTyper) Type(text string) error {
	if text == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return &Error{Op: "init", Err: err}
	}

	return pasteThrough(p.clip, text, p.settle, p.sendPaste)
}

func (p *pasteTyper) sendPaste() error {
	p.kb.Clear()
	p.kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		p.kb.HasSuper(true) // Cmd+V
	} else {
		p.kb.HasCTRL(true)
	}
	return p.kb.Launching()
}

// Verify initializes the key binding and reports the paste shortcut used.
func Verify(t Typer) (string, error) {
	if err := Init(t); err != nil {
		return "", fmt.Errorf("keyboard event init: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return "keyboard event binding OK (Cmd+V)", nil
	}
	return "keyboard event binding OK (Ctrl+V)", nil
}
