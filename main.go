package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"clipmagic/beep"
	"clipmagic/clipboard"
	"clipmagic/config"
	"clipmagic/dispatch"
	"clipmagic/doctor"
	"clipmagic/hotkey"
	"clipmagic/inject"
	"clipmagic/log"
	"clipmagic/login"
	"clipmagic/shutdown"
	"clipmagic/tray"
)

var version = "dev"

type options struct {
	configPath string
	logPath    string
	tui        bool
	noTray     bool
	test       bool
	gui        bool
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "clipmagic",
	Short: "Type stored text snippets with global hotkeys",
	Long: `clipmagic listens for global hotkeys and types the text stored in the
matching slot into the focused window, optionally copying it to the
clipboard as well. Slots and hotkeys live in a TOML configuration file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runListener(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("clipmagic %s\n", version)
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check hotkeys, clipboard and keystroke injection",
	Run: func(cmd *cobra.Command, _ []string) {
		path, err := config.Path(opts.configPath)
		if err != nil {
			cmd.PrintErrln("Error:", err)
			os.Exit(1)
		}
		os.Exit(doctor.Run(path))
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "configuration file (default: $CLIPMAGIC_CONFIG or the user config directory)")
	f.StringVar(&opts.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	rootCmd.Flags().BoolVar(&opts.tui, "tui", false, "show a terminal status view")
	rootCmd.Flags().BoolVar(&opts.noTray, "no-tray", false, "do not show a tray icon")
	rootCmd.Flags().BoolVar(&opts.test, "test", false, "test mode (headless, stdin-driven)")
	rootCmd.Flags().BoolVar(&opts.gui, "gui", false, "show the settings window (gui builds only)")

	rootCmd.AddCommand(versionCmd, doctorCmd, configCmd, loginCmd)
}

// execute runs the command line and returns the process exit code.
func execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// initCrashLog appends Go runtime crash reports to crash_log.txt in the
// log directory.
func initCrashLog() {
	dir, err := log.ResolveDir(logPathArg(os.Args[1:]))
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	crashPath := filepath.Join(dir, "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// logPathArg finds --logpath before cobra has parsed the command line.
func logPathArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--logpath" || arg == "-logpath":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(arg) > len("--logpath=") && arg[:len("--logpath=")] == "--logpath=":
			return arg[len("--logpath="):]
		}
	}
	return ""
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "--"+name || arg == "-"+name {
			return true
		}
	}
	return false
}

func initLogging() {
	logPath, err := log.ResolveDir(opts.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

var (
	shutdownOnce sync.Once
	current      atomic.Pointer[app]
)

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if a := current.Load(); a != nil {
			a.close()
		}
		log.Close()
		tray.Quit()
		tray.Stop()
		tuiQuit()
		guiQuit()
	})
}

func runListener(cmd *cobra.Command) error {
	initLogging()

	if opts.test {
		return runTestMode(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	path, err := config.Path(opts.configPath)
	if err != nil {
		return err
	}
	cfg, loadErr := loadConfig(path)
	if loadErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", loadErr)
	}
	if !cfg.Feedback.Beep {
		beep.Disable()
	}

	clip := clipboard.New(cfg.ClipboardPolicy())
	typer := inject.New(clip)
	if err := inject.Init(typer); err != nil {
		log.Warnf("keystroke injection init: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: keystroke injection unavailable: %v\n", err)
	}

	useTUI := opts.tui && term.IsTerminal(int(os.Stdout.Fd()))
	sinks := []dispatch.Sink{feedbackSink}
	if useTUI {
		sinks = append(sinks, dispatch.SinkFunc(tuiReport))
	}
	if guiActive() {
		sinks = append(sinks, dispatch.SinkFunc(guiReport))
	}

	a := newApp(path, cfg, hotkey.New, clip, typer, sinks...)
	current.Store(a)

	n, errs := a.bind()
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if n == 0 {
		a.close()
		return fmt.Errorf("no hotkey could be registered")
	}
	log.SessionStart(a.store.Capacity(), n, hotkeyBackend)
	guiRefresh(a)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	reload := func() {
		if err := a.reload(); err != nil {
			tray.SetError("reload failed")
			tuiLog("reload failed: %v", err)
			return
		}
		tray.SetSlots(a.slots())
		tuiSend(SlotsMsg{Slots: a.slots()})
		guiRefresh(a)
		tuiLog("configuration reloaded")
	}

	go func() {
		if err := config.Watch(ctx, path, reload); err != nil {
			log.Warnf("config watch: %v", err)
		}
	}()
	go func() {
		for range shutdown.Reload() {
			reload()
		}
	}()

	var trayQuit <-chan struct{}
	if !opts.noTray && !guiActive() {
		tray.OnReload(reload)
		tray.OnOpenConfig(func() {
			if err := tray.OpenFile(path); err != nil {
				log.Warnf("open config: %v", err)
			}
		})
		tray.OnLogin(login.Enabled(), setLogin)
		tray.SetSlots(a.slots())
		trayQuit = tray.Init()
	}

	if useTUI {
		startTUI(a.slots(), reload)
	}

	go func() {
		beep.Init()
		beep.PlayReady()
	}()
	go func() {
		select {
		case <-ctx.Done():
		case <-trayQuit:
		case <-tuiDone():
		}
		gracefulShutdown()
	}()

	err = a.run(ctx)
	gracefulShutdown()
	return err
}

// feedbackSink plays a cue for each outcome unless beeps are disabled.
var feedbackSink = dispatch.SinkFunc(func(o dispatch.Outcome) {
	if o.OK() {
		beep.PlaySuccess()
		tray.SetLastAction(outcomeLine(o), true)
		return
	}
	beep.PlayError()
	tray.SetLastAction(outcomeLine(o), false)
	tray.SetError(o.Failures[0].Stage.String() + " failed")
})

// outcomeLine renders an outcome for people, numbering slots from one.
func outcomeLine(o dispatch.Outcome) string {
	line := fmt.Sprintf("Slot %d", o.Slot+1)
	if o.Combination.Key != "" {
		line += " (" + o.Combination.String() + ")"
	}
	if o.OK() {
		return line + ": ok"
	}
	parts := make([]string, len(o.Failures))
	for i, f := range o.Failures {
		parts[i] = f.String()
	}
	return line + ": " + strings.Join(parts, "; ")
}
