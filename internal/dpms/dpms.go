// Package dpms toggles display power management via xset. All calls are
// best effort: a missing or failing xset is logged and otherwise ignored.
package dpms

import (
	"bytes"
	"log/slog"
)

// Invoker issues short-lived external commands.
type Invoker interface {
	Invoke(name string, args ...string) ([]byte, bool)
}

// Control enables or disables display standby.
type Control struct {
	inv    Invoker
	xset   string
	manage bool
	log    *slog.Logger
}

func NewControl(inv Invoker, xset string, manage bool, log *slog.Logger) *Control {
	return &Control{inv: inv, xset: xset, manage: manage, log: log}
}

// Set turns DPMS on or off. It does nothing when management is disabled.
func (c *Control) Set(on bool) {
	if !c.manage {
		return
	}
	arg := "-dpms"
	if on {
		arg = "+dpms"
	}
	out, ok := c.inv.Invoke(c.xset, arg)
	if !ok {
		c.log.Error("cannot toggle dpms", "xset", c.xset, "arg", arg)
		return
	}
	// xset is silent on success.
	if len(bytes.TrimSpace(out)) > 0 {
		c.log.Error("xset returned output", "arg", arg, "output", string(bytes.TrimSpace(out)))
	}
}
