// Package config loads the daemon's own settings file. The xscreensaver
// options file is separate and handled by internal/xss.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "~/.config/fauxscreensaver/config.toml"

// Config holds paths and feature toggles. Every field is optional;
// SetDefault fills the gaps.
type Config struct {
	OptionsPath    string `toml:"options_path"`
	ScreensaverBin string `toml:"screensaver_bin"`
	CommandBin     string `toml:"command_bin"`
	XsetBin        string `toml:"xset_bin"`
	GsettingsBin   string `toml:"gsettings_bin"`
	ManageDPMS     *bool  `toml:"manage_dpms"`
	Debug          *bool  `toml:"debug"`
}

// SetDefault sets default values for any field left empty.
func (c *Config) SetDefault() {
	if c.OptionsPath == "" {
		c.OptionsPath = "~/.xscreensaver"
	}
	if c.ScreensaverBin == "" {
		c.ScreensaverBin = "xscreensaver"
	}
	if c.CommandBin == "" {
		c.CommandBin = "xscreensaver-command"
	}
	if c.XsetBin == "" {
		c.XsetBin = "xset"
	}
	if c.GsettingsBin == "" {
		c.GsettingsBin = "gsettings"
	}
	if c.ManageDPMS == nil {
		defaultVal := true
		c.ManageDPMS = &defaultVal
	}
	if c.Debug == nil {
		defaultVal := false
		c.Debug = &defaultVal
	}
}

// ExpandedOptionsPath resolves a leading ~ against the home directory.
func (c *Config) ExpandedOptionsPath() string {
	return expandHome(c.OptionsPath)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// LoadConfigFromFile reads the config at path, or returns defaults when
// the file does not exist. An empty path means DefaultPath.
func LoadConfigFromFile(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		if os.IsNotExist(err) {
			config := &Config{}
			config.SetDefault()
			return config, nil
		}
		return nil, err
	}
	return LoadConfigFromBytes(data)
}

func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	config.SetDefault()
	return &config, nil
}
