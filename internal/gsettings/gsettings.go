// Package gsettings forces the desktop policy keys that would fight the
// bridge to inert values while it runs, and restores them afterwards.
package gsettings

import (
	"log/slog"
	"strings"
)

// Invoker issues short-lived external commands.
type Invoker interface {
	Invoke(name string, args ...string) ([]byte, bool)
}

type policyKey struct {
	schema string
	name   string
	inert  string
}

var policyKeys = []policyKey{
	{"org.gnome.desktop.screensaver", "idle-activation-enabled", "false"},
	{"org.gnome.desktop.session", "idle-delay", "uint32 0"},
	{"org.gnome.settings-daemon.plugins.power", "sleep-display-ac", "0"},
	{"org.gnome.settings-daemon.plugins.power", "sleep-display-battery", "0"},
}

// Clamp saves and overrides the policy keys via the gsettings binary.
// Keys whose schema is not installed are skipped.
type Clamp struct {
	inv   Invoker
	bin   string
	saved map[policyKey]string
	log   *slog.Logger
}

func New(inv Invoker, bin string, log *slog.Logger) *Clamp {
	return &Clamp{inv: inv, bin: bin, log: log}
}

// Activate records the current value of each key and forces it inert.
func (c *Clamp) Activate() {
	c.saved = make(map[policyKey]string)
	for _, k := range policyKeys {
		out, ok := c.inv.Invoke(c.bin, "get", k.schema, k.name)
		if !ok {
			continue
		}
		value := strings.TrimSpace(string(out))
		if value == "" {
			c.log.Debug("policy key not available, skipping", "schema", k.schema, "key", k.name)
			continue
		}
		c.saved[k] = value
		if value == k.inert {
			continue
		}
		c.log.Debug("clamping policy key", "schema", k.schema, "key", k.name, "was", value, "now", k.inert)
		c.set(k, k.inert)
	}
}

// Restore puts every saved value back.
func (c *Clamp) Restore() {
	for k, value := range c.saved {
		c.log.Debug("restoring policy key", "schema", k.schema, "key", k.name, "value", value)
		c.set(k, value)
	}
	c.saved = nil
}

func (c *Clamp) set(k policyKey, value string) {
	if _, ok := c.inv.Invoke(c.bin, "set", k.schema, k.name, value); !ok {
		c.log.Warn("cannot set policy key", "schema", k.schema, "key", k.name)
	}
}
