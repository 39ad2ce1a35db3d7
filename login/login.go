// Package login starts clipmagic when the user logs in.
package login

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const label = "com.clipmagic.app"

// Args are the command-line arguments the login item passes back to
// clipmagic. Only flags that change where state lives are kept.
func Args(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		for _, name := range []string{"--config", "--logpath"} {
			switch {
			case a == name && i+1 < len(args):
				out = append(out, a, args[i+1])
				i++
			case strings.HasPrefix(a, name+"="):
				out = append(out, a)
			}
		}
	}
	return out
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
