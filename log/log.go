package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog     zerolog.Logger
	diagFile    *os.File
	actionsFile *os.File
	logMu       sync.Mutex
	logReady    bool
	pid         int
	dir         string
)

// Action is one journaled hotkey press.
type Action struct {
	Slot        int
	Combination string
	// Failed holds "stage: cause" for every stage that failed. Empty
	// means the action succeeded.
	Failed []string
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: CLIPMAGIC_LOG_PATH environment variable
	if envPath := os.Getenv("CLIPMAGIC_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	actionsPath := filepath.Join(dir, "actions_log.txt")
	actionsFile, err = os.OpenFile(actionsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if actionsFile != nil {
		actionsFile.Close()
		actionsFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// ActionResult records a dispatched action in the diagnostics log and
// appends a line to actions_log.txt.
func ActionResult(a Action) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if len(a.Failed) > 0 {
		ev = diagLog.Warn().Strs("failed", a.Failed)
	}
	ev.Int("slot", a.Slot).
		Str("combination", a.Combination).
		Bool("ok", len(a.Failed) == 0).
		Msg("action")

	status := "ok"
	if len(a.Failed) > 0 {
		status = strings.Join(a.Failed, "; ")
	}
	combo := a.Combination
	if combo == "" {
		combo = "-"
	}
	logMu.Lock()
	defer logMu.Unlock()
	if actionsFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\tslot=%d\t%s\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, a.Slot, combo, status)
	actionsFile.WriteString(line)
}

func HotkeyRegistered(slot int, combination string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("slot", slot).
		Str("combination", combination).
		Msg("hotkey_registered")
}

func HotkeyRegisterFailed(slot int, combination string, err error) {
	if !logReady {
		return
	}
	diagLog.Error().
		Int("slot", slot).
		Str("combination", combination).
		Err(err).
		Msg("hotkey_register_failed")
}

// HotkeyHeld records a combination that was not let go in time.
func HotkeyHeld(slot int, combination string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Int("slot", slot).
		Str("combination", combination).
		Msg("hotkey_held")
}

func ConfigReload(path string, entries int, err error) {
	if !logReady {
		return
	}
	if err != nil {
		diagLog.Error().Str("path", path).Err(err).Msg("config_reload")
		return
	}
	diagLog.Info().Str("path", path).Int("entries", entries).Msg("config_reload")
}

func SessionStart(capacity, bindings int, backend string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("capacity", capacity).
		Int("bindings", bindings).
		Str("backend", backend).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}
