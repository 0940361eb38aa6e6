// Package ipc exports the org.gnome.ScreenSaver service on the session
// bus, forwarding its verbs to the state tracker and broadcasting
// ActiveChanged for every tracker transition.
package ipc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// Saver is the tracker surface the facade forwards to.
type Saver interface {
	Lock()
	SimulateUserActivity()
	SetActive(bool)
	Active() bool
	ActiveTime() uint32
	ActiveChanged() <-chan bool
}

// ScreenSaver is the exported D-Bus object. It holds no state of its own.
type ScreenSaver struct {
	saver Saver
	quit  func()
	log   *slog.Logger
}

func (s *ScreenSaver) Quit(sender dbus.Sender) *dbus.Error {
	s.log.Debug("received Quit", "sender", string(sender))
	s.quit()
	return nil
}

func (s *ScreenSaver) Lock(sender dbus.Sender) *dbus.Error {
	s.log.Debug("received Lock", "sender", string(sender))
	s.saver.Lock()
	return nil
}

func (s *ScreenSaver) SimulateUserActivity(sender dbus.Sender) *dbus.Error {
	s.log.Debug("received SimulateUserActivity", "sender", string(sender))
	s.saver.SimulateUserActivity()
	return nil
}

func (s *ScreenSaver) SetActive(sender dbus.Sender, value bool) *dbus.Error {
	s.log.Debug("received SetActive", "sender", string(sender), "value", value)
	s.saver.SetActive(value)
	return nil
}

func (s *ScreenSaver) GetActive(sender dbus.Sender) (bool, *dbus.Error) {
	active := s.saver.Active()
	s.log.Debug("received GetActive", "sender", string(sender), "returning", active)
	return active, nil
}

func (s *ScreenSaver) GetActiveTime(sender dbus.Sender) (uint32, *dbus.Error) {
	seconds := s.saver.ActiveTime()
	s.log.Debug("received GetActiveTime", "sender", string(sender), "returning", seconds)
	return seconds, nil
}

func (s *ScreenSaver) ShowMessage(sender dbus.Sender, summary, body, icon string) *dbus.Error {
	s.log.Warn("ShowMessage not implemented", "sender", string(sender), "summary", summary, "body", body, "icon", icon)
	return nil
}

// Serve claims the well-known name, exports the object and forwards
// tracker notifications until ctx is done.
func Serve(ctx context.Context, saver Saver, quit func(), log *slog.Logger) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("%s is already owned", ServiceName)
	}

	ss := &ScreenSaver{saver: saver, quit: quit, log: log}
	if err := conn.Export(ss, ObjectPath, InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	log.Debug("serving screensaver service", "name", ServiceName, "path", ObjectPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case active := <-saver.ActiveChanged():
			log.Debug("emitting ActiveChanged", "active", active)
			if err := conn.Emit(dbus.ObjectPath(ObjectPath), InterfaceName+".ActiveChanged", active); err != nil {
				log.Error("cannot emit ActiveChanged", "error", err)
			}
		}
	}
}
