//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("CLIPMAGIC_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "CLIPMAGIC_TEST_BIN not set; point it at a built clipmagic binary")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

const sampleConfig = `
[[entries]]
data = "hello"
clipboard_flag = true

[[entries]]
data = "world"

[[entries]]
data = ""
`

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "default-config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type run struct {
	out    string
	logDir string
	config string
}

func runClipmagic(t *testing.T, stdin, config string, env ...string) run {
	t.Helper()
	dir := t.TempDir()
	r := run{logDir: filepath.Join(dir, "logs"), config: filepath.Join(dir, "default-config.toml")}
	if config != "" {
		writeConfig(t, dir, config)
	}

	cmd := exec.Command(testBinary, "--test", "--config", r.config, "--logpath", r.logDir)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("clipmagic exited with error: %v\noutput: %s", err, out)
	}
	r.out = string(out)
	return r
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireLine(t *testing.T, out, line string) {
	t.Helper()
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) == line {
			return
		}
	}
	t.Errorf("missing line %q in output:\n%s", line, out)
}

func TestPressTypesSlotText(t *testing.T) {
	r := runClipmagic(t, cmds("PRESS 1", "WAIT", "PRESS 2", "WAIT", "PRESS 3", "WAIT", "CLIPBOARD", "QUIT"), sampleConfig)

	requireLine(t, r.out, `TYPED "hello"`)
	requireLine(t, r.out, `TYPED "world"`)
	requireLine(t, r.out, `TYPED ""`)
	requireLine(t, r.out, "OUTCOME slot=1 ok")
	requireLine(t, r.out, "OUTCOME slot=2 ok")
	requireLine(t, r.out, "OUTCOME slot=3 ok")
	requireLine(t, r.out, `CLIPBOARD "hello"`)
}

func TestActionLog(t *testing.T) {
	r := runClipmagic(t, cmds("PRESS 1", "PRESS 1", "WAIT", "QUIT"), sampleConfig)

	actions := readLog(t, r.logDir, "actions_log.txt")
	if got := strings.Count(actions, "slot=0"); got != 2 {
		t.Errorf("expected 2 actions for slot 0, got %d:\n%s", got, actions)
	}
	diag := readLog(t, r.logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "hotkey_registered", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("expected %s in diagnostics", want)
		}
	}
}

func TestClipboardFailureStillTypes(t *testing.T) {
	r := runClipmagic(t, cmds("PRESS 1", "WAIT", "CLIPBOARD", "QUIT"), sampleConfig, "CLIPMAGIC_TEST_CLIPBOARD_FAIL=1")

	requireLine(t, r.out, `TYPED "hello"`)
	requireLine(t, r.out, "OUTCOME slot=1 failed=clipboard_write")
	requireLine(t, r.out, `CLIPBOARD ""`)

	actions := readLog(t, r.logDir, "actions_log.txt")
	if !strings.Contains(actions, "clipboard write") {
		t.Errorf("expected clipboard failure in action log:\n%s", actions)
	}
}

func TestMissingConfigIsCreated(t *testing.T) {
	r := runClipmagic(t, cmds("PRESS 1", "WAIT", "QUIT"), "")

	requireLine(t, r.out, `TYPED ""`)
	if _, err := os.Stat(r.config); err != nil {
		t.Errorf("expected default config to be written: %v", err)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sampleConfig)
	logDir := filepath.Join(dir, "logs")

	cmd := exec.Command(testBinary, "--test", "--config", path, "--logpath", logDir)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}

	fmt.Fprint(stdin, cmds("PRESS 1", "WAIT"))
	if err := os.WriteFile(path, []byte("[[entries]]\ndata = \"changed\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fmt.Fprint(stdin, cmds("RELOAD", "PRESS 1", "WAIT", "QUIT"))
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		t.Fatalf("clipmagic exited with error: %v\noutput: %s", err, out.String())
	}
	requireLine(t, out.String(), `TYPED "hello"`)
	requireLine(t, out.String(), "RELOADED")
	requireLine(t, out.String(), `TYPED "changed"`)
}

func TestUnboundSlotIgnored(t *testing.T) {
	cfg := sampleConfig + "\n[hotkeys]\nslots = [\"ctrl+alt+shift+1\"]\n"
	r := runClipmagic(t, cmds("PRESS 2", "PRESS 1", "WAIT", "QUIT"), cfg)

	requireLine(t, r.out, "IGNORED slot=2")
	requireLine(t, r.out, "OUTCOME slot=1 ok")
}

func TestHeldHotkeyTypesAfterRelease(t *testing.T) {
	r := runClipmagic(t, cmds("HOLD 1", "SLEEP 100", "RELEASE 1", "WAIT", "QUIT"), sampleConfig)

	released := strings.Index(r.out, "RELEASED slot=1")
	typed := strings.Index(r.out, `TYPED "hello"`)
	if released < 0 || typed < 0 || typed < released {
		t.Errorf("expected typing after release, got:\n%s", r.out)
	}
	requireLine(t, r.out, "OUTCOME slot=1 ok")
}
