// Package logind maps lock-related signals for the daemon's own logind
// session onto the state tracker.
package logind

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	service          = "org.freedesktop.login1"
	managerPath      = "/org/freedesktop/login1"
	managerInterface = "org.freedesktop.login1.Manager"
	sessionInterface = "org.freedesktop.login1.Session"
	propsInterface   = "org.freedesktop.DBus.Properties"
)

// Controls is the tracker surface driven by session signals.
type Controls interface {
	Lock()
	SetActive(bool)
	SimulateUserActivity()
}

// Watch listens for Lock, Unlock, session Active changes and
// PrepareForSleep, scoped to the current session. It returns nil right
// away when logind is not running.
func Watch(ctx context.Context, target Controls, log *slog.Logger) error {
	if _, err := os.Stat("/run/systemd/seats/"); err != nil {
		log.Debug("logind is not running, skipping session listener")
		return nil
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	sessionPath, err := currentSessionPath(conn)
	if err != nil {
		log.Debug("cannot get current logind session, skipping session listener", "error", err)
		return nil
	}
	log.Debug("watching logind session", "path", sessionPath)

	for _, member := range []string{"Lock", "Unlock"} {
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath(sessionPath),
			dbus.WithMatchInterface(sessionInterface),
			dbus.WithMatchMember(member),
		); err != nil {
			return fmt.Errorf("add match failed: %w", err)
		}
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(sessionPath),
		dbus.WithMatchInterface(propsInterface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(managerPath)),
		dbus.WithMatchInterface(managerInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match for PrepareForSleep failed: %w", err)
	}

	signals := make(chan *dbus.Signal, 10)
	conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			switch sig.Name {
			case sessionInterface + ".Lock":
				log.Debug("received Lock signal from logind")
				target.Lock()
			case sessionInterface + ".Unlock":
				log.Debug("received Unlock signal from logind")
				target.SetActive(false)
			case propsInterface + ".PropertiesChanged":
				if sig.Path == sessionPath {
					handlePropertiesChanged(conn, sig, sessionPath, target, log)
				}
			case managerInterface + ".PrepareForSleep":
				if len(sig.Body) > 0 {
					if sleeping, _ := sig.Body[0].(bool); sleeping {
						log.Debug("system is going to sleep, locking")
						target.Lock()
					}
				}
			}
		}
	}
}

// handlePropertiesChanged simulates user activity when our session
// becomes the active one again, e.g. after a VT switch back.
func handlePropertiesChanged(conn *dbus.Conn, sig *dbus.Signal, sessionPath dbus.ObjectPath, target Controls, log *slog.Logger) {
	if len(sig.Body) < 3 {
		return
	}
	iface, ok := sig.Body[0].(string)
	if !ok || iface != sessionInterface {
		return
	}
	touched := false
	if changed, ok := sig.Body[1].(map[string]dbus.Variant); ok {
		_, touched = changed["Active"]
	}
	if !touched {
		invalidated, ok := sig.Body[2].([]string)
		if !ok {
			return
		}
		for _, name := range invalidated {
			if name == "Active" {
				touched = true
				break
			}
		}
	}
	if !touched {
		return
	}

	obj := conn.Object(service, sessionPath)
	variant, err := obj.GetProperty(sessionInterface + ".Active")
	if err != nil {
		log.Error("cannot get session Active property", "error", err)
		return
	}
	if active, _ := variant.Value().(bool); active {
		log.Debug("session became active, simulating user activity")
		target.SimulateUserActivity()
	}
}

func currentSessionPath(conn *dbus.Conn) (dbus.ObjectPath, error) {
	obj := conn.Object(service, dbus.ObjectPath(managerPath))
	var path dbus.ObjectPath
	if err := obj.Call(managerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path); err != nil {
		return "", fmt.Errorf("failed to get session by pid: %w", err)
	}
	return path, nil
}
