//go:build linux

package login

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableDisable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.False(t, Enabled())
	require.NoError(t, Enable([]string{"--config", "/my configs/c.toml"}))
	assert.True(t, Enabled())

	data, err := os.ReadFile(filepath.Join(dir, "autostart", label+".desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[Desktop Entry]")
	assert.Contains(t, string(data), `--config "/my configs/c.toml"`)

	require.NoError(t, Disable())
	assert.False(t, Enabled())
	require.NoError(t, Disable(), "disabling twice is not an error")
}

func TestDesktopQuote(t *testing.T) {
	assert.Equal(t, "/usr/bin/clipmagic", desktopQuote("/usr/bin/clipmagic"))
	assert.Equal(t, `"/a b/c"`, desktopQuote("/a b/c"))
	got := desktopQuote(`100% "x"`)
	assert.True(t, strings.HasPrefix(got, `"100%% \"x\""`), got)
}
