//go:build darwin

package login

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func itemPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", label+".plist")
}

func Enabled() bool { return exists(itemPath()) }

// Enable installs a launch agent that runs clipmagic with args.
func Enable(args []string) error {
	exe, err := executable()
	if err != nil {
		return err
	}

	var argv strings.Builder
	for _, a := range append([]string{exe}, args...) {
		fmt.Fprintf(&argv, "\t\t<string>%s</string>\n", html.EscapeString(a))
	}
	var env strings.Builder
	for _, key := range []string{"CLIPMAGIC_CONFIG", "CLIPMAGIC_LOG_PATH"} {
		if v := os.Getenv(key); v != "" {
			fmt.Fprintf(&env, "\t\t<key>%s</key>\n\t\t<string>%s</string>\n", key, html.EscapeString(v))
		}
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
	<key>EnvironmentVariables</key>
	<dict>
%s	</dict>
</dict>
</plist>
`, label, argv.String(), env.String())

	path := itemPath()
	if err := writeFile(path, []byte(plist)); err != nil {
		return err
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	// A loaded agent must be booted out before it can be bootstrapped again.
	exec.Command("launchctl", "bootout", domain, path).Run()
	if out, err := exec.Command("launchctl", "bootstrap", domain, path).CombinedOutput(); err != nil {
		return fmt.Errorf("launchctl bootstrap: %w (%s)", err, out)
	}
	return nil
}

func Disable() error {
	path := itemPath()
	if !exists(path) {
		return nil
	}
	exec.Command("launchctl", "bootout", fmt.Sprintf("gui/%d", os.Getuid()), path).Run()
	return remove(path)
}
