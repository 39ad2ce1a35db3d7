package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipmagic/clipboard"
	"clipmagic/config"
	"clipmagic/dispatch"
	"clipmagic/hotkey"
	"clipmagic/tray"
)

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		opts = options{}
		forceInit = false
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execRoot(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "clipmagic test-version-1.0.0")
}

func TestConfigPathCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	out, err := execRoot(t, "config", "path", "--config", path)
	assert.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")

	_, err := execRoot(t, "config", "init", "--config", path)
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = execRoot(t, "config", "init", "--config", path)
	assert.Error(t, err, "refuses to overwrite")

	_, err = execRoot(t, "config", "init", "--force", "--config", path)
	assert.NoError(t, err)
}

func TestConfigShowCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[entries]]\ndata = \"hi\"\n"), 0644))

	out, err := execRoot(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, `data = "hi"`)
	assert.Contains(t, out, "ctrl+alt+shift+1")
}

func TestLogPathArg(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"--tui"}, ""},
		{[]string{"--logpath", "/tmp/l"}, "/tmp/l"},
		{[]string{"-logpath", "/tmp/l"}, "/tmp/l"},
		{[]string{"--tui", "--logpath=/tmp/x"}, "/tmp/x"},
		{[]string{"--logpath"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, logPathArg(tt.args), "logPathArg(%q)", tt.args)
	}
}

func TestHasFlag(t *testing.T) {
	assert.True(t, hasFlag([]string{"--tui", "--gui"}, "gui"))
	assert.True(t, hasFlag([]string{"-gui"}, "gui"))
	assert.False(t, hasFlag([]string{"--guild"}, "gui"))
	assert.False(t, hasFlag(nil, "gui"))
}

func TestOutcomeLine(t *testing.T) {
	combo := hotkey.Combination{Mods: hotkey.ModCtrl | hotkey.ModAlt, Key: "1"}

	ok := dispatch.Outcome{Slot: 0, Combination: combo}
	assert.Equal(t, "Slot 1 (ctrl+alt+1): ok", outcomeLine(ok))

	failed := dispatch.Outcome{Slot: 2, Failures: []dispatch.Failure{
		{Stage: dispatch.StageClipboardWrite, Err: &clipboard.Error{Attempts: 10, Err: errors.New("busy")}},
		{Stage: dispatch.StageInputInjection, Err: errors.New("no device")},
	}}
	line := outcomeLine(failed)
	assert.True(t, strings.HasPrefix(line, "Slot 3: clipboard write: "), line)
	assert.Contains(t, line, "; input injection: no device")
}

func TestTUIModel(t *testing.T) {
	reloaded := make(chan struct{}, 1)
	m := newTUIModel(nil, func() { reloaded <- struct{}{} })

	next, _ := m.Update(SlotsMsg{Slots: []tray.Slot{
		{Index: 0, Combination: "ctrl+alt+shift+1", Text: "hello\nworld", Clipboard: true},
		{Index: 1},
	}})
	m = next.(tuiModel)
	view := m.View()
	assert.Contains(t, view, "ctrl+alt+shift+1")
	assert.Contains(t, view, "hello⏎world")
	assert.Contains(t, view, "unbound")
	assert.Contains(t, view, "No actions yet")

	for i := 0; i < maxHistory+2; i++ {
		next, _ = m.Update(OutcomeMsg{Outcome: dispatch.Outcome{Slot: i % 2}, At: time.Now()})
		m = next.(tuiModel)
	}
	next, _ = m.Update(OutcomeMsg{Outcome: dispatch.Outcome{Slot: 1, Failures: []dispatch.Failure{
		{Stage: dispatch.StageInputInjection, Err: errors.New("denied")},
	}}, At: time.Now()})
	m = next.(tuiModel)
	assert.Len(t, m.history, maxHistory)
	assert.Equal(t, maxHistory+3, m.count)
	assert.Equal(t, 1, m.failures)
	assert.False(t, m.history[0].ok)
	assert.Contains(t, m.View(), "11 actions, 1 failed")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	cmd()
	select {
	case <-reloaded:
	default:
		t.Fatal("r did not reload")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTUIHelpersWithoutProgram(t *testing.T) {
	assert.Nil(t, tuiDone())
	tuiLog("nothing %d", 1)
	tuiReport(dispatch.Outcome{})
	tuiQuit()
}

func TestRunTestMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[entries]]\ndata = \"hello\"\nclipboard_flag = true\n"), 0644))
	opts = options{configPath: path}
	defer func() { opts = options{} }()

	in := strings.NewReader("PRESS 1\nWAIT\nPRESS 7\nCLIPBOARD\nBOGUS\nQUIT\n")
	out := new(bytes.Buffer)
	require.NoError(t, runTestMode(in, out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		`TYPED "hello"`,
		"OUTCOME slot=1 ok",
		"IGNORED slot=7",
		`CLIPBOARD "hello"`,
		`ERROR unknown command "BOGUS"`,
	}, lines)
}

func TestRunTestModeClipboardFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[entries]]\ndata = \"hello\"\nclipboard_flag = true\n"), 0644))
	opts = options{configPath: path}
	defer func() { opts = options{} }()
	t.Setenv("CLIPMAGIC_TEST_CLIPBOARD_FAIL", "1")

	out := new(bytes.Buffer)
	require.NoError(t, runTestMode(strings.NewReader("PRESS 1\nWAIT\n"), out))
	assert.Contains(t, out.String(), `TYPED "hello"`)
	assert.Contains(t, out.String(), "OUTCOME slot=1 failed=clipboard_write")
}

func TestRunTestModeTypesAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[entries]]\ndata = \"hello\"\n"), 0644))
	opts = options{configPath: path}
	defer func() { opts = options{} }()

	in := strings.NewReader("HOLD 1\nSLEEP 50\nRELEASE 1\nWAIT\nQUIT\n")
	out := new(bytes.Buffer)
	require.NoError(t, runTestMode(in, out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"RELEASED slot=1",
		`TYPED "hello"`,
		"OUTCOME slot=1 ok",
	}, lines)
}

func TestRunTestModeWaitSurvivesRebind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[entries]]\ndata = \"hello\"\n"), 0644))
	opts = options{configPath: path}
	defer func() { opts = options{} }()
	defer func(d time.Duration) { waitTimeout = d }(waitTimeout)
	waitTimeout = 100 * time.Millisecond

	pr, pw := io.Pipe()
	out := &syncBuffer{}
	errc := make(chan error, 1)
	go func() { errc <- runTestMode(pr, out) }()

	fmt.Fprintln(pw, "HOLD 1")
	body := "[[entries]]\ndata = \"hello\"\n\n[hotkeys]\nslots = [\"ctrl+alt+9\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	fmt.Fprintln(pw, "RELOAD")
	fmt.Fprintln(pw, "WAIT")
	fmt.Fprintln(pw, "PRESS 1")
	fmt.Fprintln(pw, "WAIT")
	fmt.Fprintln(pw, "QUIT")

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("test mode blocked")
	}
	pw.Close()

	got := out.String()
	assert.Contains(t, got, "RELOADED")
	assert.Contains(t, got, "ERROR wait: 1 without outcome")
	assert.Equal(t, 1, strings.Count(got, "OUTCOME slot=1 ok"), got)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
