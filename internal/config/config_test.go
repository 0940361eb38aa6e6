package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefault(t *testing.T) {
	var c Config
	c.SetDefault()

	assert.Equal(t, "~/.xscreensaver", c.OptionsPath)
	assert.Equal(t, "xscreensaver", c.ScreensaverBin)
	assert.Equal(t, "xscreensaver-command", c.CommandBin)
	assert.Equal(t, "xset", c.XsetBin)
	assert.Equal(t, "gsettings", c.GsettingsBin)
	assert.True(t, *c.ManageDPMS)
	assert.False(t, *c.Debug)
}

func TestLoadConfigFromBytes(t *testing.T) {
	tomlData := `
options_path = "/home/someone/.xscreensaver"
manage_dpms = false
debug = true
`
	c, err := LoadConfigFromBytes([]byte(tomlData))
	require.NoError(t, err)

	assert.Equal(t, "/home/someone/.xscreensaver", c.OptionsPath)
	assert.False(t, *c.ManageDPMS)
	assert.True(t, *c.Debug)
	// Untouched fields still get defaults.
	assert.Equal(t, "xscreensaver-command", c.CommandBin)
}

func TestLoadConfigFromBytesInvalid(t *testing.T) {
	_, err := LoadConfigFromBytes([]byte("options_path = ["))
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`xset_bin = "/usr/local/bin/xset"`), 0644))

	c, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/xset", c.XsetBin)
}

func TestLoadConfigFromFileMissing(t *testing.T) {
	c, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "xscreensaver", c.ScreensaverBin)
}

func TestExpandedOptionsPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := Config{OptionsPath: "~/.xscreensaver"}
	assert.Equal(t, filepath.Join(home, ".xscreensaver"), c.ExpandedOptionsPath())

	c.OptionsPath = "/etc/xscreensaver"
	assert.Equal(t, "/etc/xscreensaver", c.ExpandedOptionsPath())
}
