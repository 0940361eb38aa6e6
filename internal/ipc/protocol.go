package ipc

import "github.com/godbus/dbus/v5/introspect"

const (
	ServiceName   = "org.gnome.ScreenSaver"
	ObjectPath    = "/org/gnome/ScreenSaver"
	InterfaceName = "org.gnome.ScreenSaver"
)

const introspectXML = `
<node>
	<interface name="org.gnome.ScreenSaver">
		<method name="Quit"/>
		<method name="Lock"/>
		<method name="SimulateUserActivity"/>
		<method name="SetActive">
			<arg name="value" type="b" direction="in"/>
		</method>
		<method name="GetActive">
			<arg name="value" type="b" direction="out"/>
		</method>
		<method name="GetActiveTime">
			<arg name="seconds" type="u" direction="out"/>
		</method>
		<method name="ShowMessage">
			<arg name="summary" type="s" direction="in"/>
			<arg name="body" type="s" direction="in"/>
			<arg name="icon" type="s" direction="in"/>
		</method>
		<signal name="ActiveChanged">
			<arg type="b"/>
		</signal>
	</interface>` + introspect.IntrospectDataString + `
</node>`
