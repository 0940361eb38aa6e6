// Package gsm follows the GNOME session manager's idle-inhibitor list
// and drives the tracker's inhibit/uninhibit on its edges.
package gsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	service    = "org.gnome.SessionManager"
	objectPath = "/org/gnome/SessionManager"
	iface      = "org.gnome.SessionManager"

	inhibitorFlagIdle = uint32(8)
)

// Inhibiting is the tracker surface driven by the inhibitor registry.
type Inhibiting interface {
	Inhibit()
	Uninhibit()
}

// Listen re-queries IsInhibited(idle) on every InhibitorAdded and
// InhibitorRemoved signal and calls the tracker only when the answer
// changed. It does not inspect or mutate the inhibitor list itself.
func Listen(ctx context.Context, target Inhibiting, log *slog.Logger) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	for _, member := range []string{"InhibitorAdded", "InhibitorRemoved"} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath(objectPath),
			dbus.WithMatchInterface(iface),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("add match failed: %w", err)
		}
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	inhibited := false
	check := func() {
		now, err := isIdleInhibited(conn)
		if err != nil {
			log.Error("cannot query IsInhibited", "error", err)
			return
		}
		log.Debug("session manager idle inhibition", "inhibited", now)
		if now == inhibited {
			return
		}
		inhibited = now
		if now {
			target.Inhibit()
		} else {
			target.Uninhibit()
		}
	}
	check()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			switch sig.Name {
			case iface + ".InhibitorAdded", iface + ".InhibitorRemoved":
				log.Debug("inhibitor list changed", "signal", sig.Name)
				check()
			}
		}
	}
}

func isIdleInhibited(conn *dbus.Conn) (bool, error) {
	obj := conn.Object(service, dbus.ObjectPath(objectPath))
	var inhibited bool
	if err := obj.Call(iface+".IsInhibited", 0, inhibitorFlagIdle).Store(&inhibited); err != nil {
		return false, err
	}
	return inhibited, nil
}
