// Package config loads the action table and hotkey bindings from a TOML
// file and watches it for edits.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"clipmagic/hotkey"
	"clipmagic/log"
	"clipmagic/store"
)

const (
	AppName  = "clipmagic"
	FileName = "default-config.toml"

	DefaultAttempts  = 10
	DefaultBackoffMs = 10
)

type Config struct {
	Entries   []EntryConfig   `toml:"entries"`
	Hotkeys   HotkeysConfig   `toml:"hotkeys"`
	Clipboard ClipboardConfig `toml:"clipboard"`
	Feedback  FeedbackConfig  `toml:"feedback"`
}

type EntryConfig struct {
	Data          string `toml:"data"`
	ClipboardFlag bool   `toml:"clipboard_flag"`
}

type HotkeysConfig struct {
	// Slots[i] is the combination bound to entry i. An empty string
	// leaves the slot unbound.
	Slots []string `toml:"slots"`
}

type ClipboardConfig struct {
	Attempts  int `toml:"attempts"`
	BackoffMs int `toml:"backoff_ms"`
}

type FeedbackConfig struct {
	Beep bool `toml:"beep"`
}

// Default configuration
func Default() *Config {
	cfg := &Config{
		Entries: make([]EntryConfig, store.DefaultCapacity),
		Clipboard: ClipboardConfig{
			Attempts:  DefaultAttempts,
			BackoffMs: DefaultBackoffMs,
		},
		Feedback: FeedbackConfig{Beep: true},
	}
	for _, c := range hotkey.DefaultCombinations(store.DefaultCapacity) {
		cfg.Hotkeys.Slots = append(cfg.Hotkeys.Slots, c.String())
	}
	return cfg
}

// Path resolves the config file: the --config flag, then
// CLIPMAGIC_CONFIG, then <UserConfigDir>/clipmagic/default-config.toml.
func Path(flagPath string) (string, error) {
	if flagPath != "" {
		return filepath.Abs(flagPath)
	}
	if env := os.Getenv("CLIPMAGIC_CONFIG"); env != "" {
		return filepath.Abs(env)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Load reads the configuration at path. A missing file is created with
// defaults. A file that cannot be decoded yields the defaults together
// with the decode error, so callers can report it and keep running.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return cfg, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to decode config: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		log.Warnf("config %s: unknown keys %s", path, strings.Join(names, ", "))
	}

	def := Default()
	if !md.IsDefined("hotkeys", "slots") {
		cfg.Hotkeys.Slots = def.Hotkeys.Slots
	}
	if !md.IsDefined("clipboard", "attempts") {
		cfg.Clipboard.Attempts = def.Clipboard.Attempts
	}
	if !md.IsDefined("clipboard", "backoff_ms") {
		cfg.Clipboard.BackoffMs = def.Clipboard.BackoffMs
	}
	if !md.IsDefined("feedback", "beep") {
		cfg.Feedback.Beep = def.Feedback.Beep
	}
	return &cfg, nil
}

// Save writes cfg to path, creating the directory if needed. The file is
// replaced atomically so a watcher never reads half a file.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+FileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// StoreEntries converts the configured entries to exactly n store
// entries, truncating or padding with empty ones.
func (c *Config) StoreEntries(n int) []store.Entry {
	entries := make([]store.Entry, len(c.Entries))
	for i, e := range c.Entries {
		entries[i] = store.Entry{Text: e.Data, PushToClipboard: e.ClipboardFlag}
	}
	return store.Normalize(entries, n)
}

// SetEntries replaces the configured entries.
func (c *Config) SetEntries(entries []store.Entry) {
	c.Entries = make([]EntryConfig, len(entries))
	for i, e := range entries {
		c.Entries[i] = EntryConfig{Data: e.Text, ClipboardFlag: e.PushToClipboard}
	}
}

// Bindings parses the slot combinations for a table of n slots. Slots
// that fail to parse or lie beyond the table are returned as errors and
// left unbound.
func (c *Config) Bindings(n int) ([]hotkey.Binding, []error) {
	var (
		out  []hotkey.Binding
		errs []error
	)
	for slot, s := range c.Hotkeys.Slots {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if slot >= n {
			errs = append(errs, fmt.Errorf("hotkey %q: slot %d beyond %d entries", s, slot, n))
			continue
		}
		combo, err := hotkey.ParseCombination(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, hotkey.Binding{Combination: combo, Slot: slot})
	}
	return out, errs
}

// ClipboardPolicy returns the retry attempts and initial backoff.
// Non-positive values fall back to the defaults.
func (c *Config) ClipboardPolicy() (int, time.Duration) {
	attempts, backoff := c.Clipboard.Attempts, c.Clipboard.BackoffMs
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoffMs
	}
	return attempts, time.Duration(backoff) * time.Millisecond
}
