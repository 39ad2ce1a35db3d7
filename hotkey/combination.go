package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModAlt
	ModShift
	ModSuper
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModShift, "shift"},
	{ModSuper, "super"},
}

var modifierAliases = map[string]Modifier{
	"ctrl": ModCtrl, "control": ModCtrl,
	"alt": ModAlt, "option": ModAlt, "opt": ModAlt,
	"shift": ModShift,
	"super": ModSuper, "win": ModSuper, "cmd": ModSuper, "command": ModSuper, "meta": ModSuper,
}

var keyAliases = map[string]string{
	"enter": "return",
	"esc":   "escape",
}

// Keys lists every key name a Combination may use.
var Keys = func() map[string]bool {
	m := map[string]bool{
		"space": true, "return": true, "tab": true, "escape": true, "delete": true,
		"up": true, "down": true, "left": true, "right": true,
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = true
	}
	for i := 1; i <= 12; i++ {
		m[fmt.Sprintf("f%d", i)] = true
	}
	return m
}()

// Combination is a set of modifiers plus one key, e.g. ctrl+alt+shift+1.
type Combination struct {
	Mods Modifier
	Key  string
}

// String renders the combination in canonical order: ctrl, alt, shift,
// super, key. ParseCombination(c.String()) == c.
func (c Combination) String() string {
	var parts []string
	for _, m := range modifierNames {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, c.Key), "+")
}

func (c Combination) Has(m Modifier) bool { return c.Mods&m != 0 }

// ParseCombination parses strings like "ctrl+alt+shift+1". Case and
// surrounding spaces are ignored. At least one modifier is required: a
// bare global key would swallow normal typing.
func ParseCombination(s string) (Combination, error) {
	var c Combination
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) < 2 {
		return c, fmt.Errorf("hotkey %q: need at least one modifier and a key", s)
	}
	for _, p := range parts[:len(parts)-1] {
		p = strings.TrimSpace(p)
		m, ok := modifierAliases[p]
		if !ok {
			return c, fmt.Errorf("hotkey %q: unknown modifier %q (available: ctrl, alt, shift, super)", s, p)
		}
		if c.Mods&m != 0 {
			return c, fmt.Errorf("hotkey %q: modifier %q repeated", s, p)
		}
		c.Mods |= m
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if !Keys[key] {
		return c, fmt.Errorf("hotkey %q: unknown key %q", s, key)
	}
	c.Key = key
	return c, nil
}

// MustParse is ParseCombination for combinations fixed at build time.
func MustParse(s string) Combination {
	c, err := ParseCombination(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCombinations are the built-in slot shortcuts: Ctrl+Alt+Shift
// with the digit one above the slot index.
func DefaultCombinations(n int) []Combination {
	out := make([]Combination, 0, n)
	for i := 0; i < n && i < 9; i++ {
		out = append(out, Combination{Mods: ModCtrl | ModAlt | ModShift, Key: fmt.Sprintf("%d", i+1)})
	}
	return out
}
