package clipboard

import "sync"

// Fake is an in-memory clipboard. Fail, when set, is returned from every
// Write and the contents are left unchanged.
type Fake struct {
	mu     sync.Mutex
	text   string
	writes []string
	Fail   error
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) Write(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, text)
	if f.Fail != nil {
		return &Error{Attempts: 1, Err: f.Fail}
	}
	f.text = text
	return nil
}

func (f *Fake) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, nil
}

// Writes returns every text passed to Write, including failed ones.
func (f *Fake) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}
