//go:build linux

package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// itemPath is the XDG autostart entry.
func itemPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", label+".desktop")
}

func Enabled() bool { return exists(itemPath()) }

// Enable writes an autostart entry that runs clipmagic with args.
func Enable(args []string) error {
	exe, err := executable()
	if err != nil {
		return err
	}
	argv := []string{desktopQuote(exe)}
	for _, a := range args {
		argv = append(argv, desktopQuote(a))
	}
	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=clipmagic
Comment=Type saved snippets with global hotkeys
Exec=%s
Terminal=false
X-GNOME-Autostart-enabled=true
`, strings.Join(argv, " "))
	return writeFile(itemPath(), []byte(entry))
}

func Disable() error { return remove(itemPath()) }

// desktopQuote quotes an Exec argument as the desktop entry format requires.
func desktopQuote(s string) string {
	if !strings.ContainsAny(s, " \t\n\"'\\><~|&;$*?#()`%") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`, `%`, `%%`)
	return `"` + r.Replace(s) + `"`
}
