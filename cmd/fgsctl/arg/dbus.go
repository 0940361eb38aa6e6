package arg

import (
	"fmt"

	"github.com/fauxgnome/fauxscreensaver/internal/ipc"
	"github.com/godbus/dbus/v5"
)

// screensaverObject connects to the session bus and returns the service
// object. The caller closes the connection.
func screensaverObject() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, conn.Object(ipc.ServiceName, dbus.ObjectPath(ipc.ObjectPath)), nil
}

// call invokes a no-argument, no-result method on the service.
func call(method string) error {
	conn, obj, err := screensaverObject()
	if err != nil {
		return err
	}
	defer conn.Close()
	if call := obj.Call(ipc.InterfaceName+"."+method, 0); call.Err != nil {
		return fmt.Errorf("%s failed: %w", method, call.Err)
	}
	return nil
}
