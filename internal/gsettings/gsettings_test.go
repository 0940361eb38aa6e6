package gsettings

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeInvoker struct {
	values map[string]string // "schema key" -> current value
	sets   []string          // recorded "schema key value"
}

func (f *fakeInvoker) Invoke(name string, args ...string) ([]byte, bool) {
	switch args[0] {
	case "get":
		v, ok := f.values[args[1]+" "+args[2]]
		if !ok {
			return nil, false
		}
		return []byte(v + "\n"), true
	case "set":
		f.sets = append(f.sets, strings.Join(args[1:], " "))
		return nil, true
	}
	return nil, false
}

func testClamp(values map[string]string) (*Clamp, *fakeInvoker) {
	fake := &fakeInvoker{values: values}
	return New(fake, "gsettings", slog.New(slog.NewTextHandler(io.Discard, nil))), fake
}

func TestActivateClampsAndRestores(t *testing.T) {
	c, fake := testClamp(map[string]string{
		"org.gnome.desktop.screensaver idle-activation-enabled":    "true",
		"org.gnome.desktop.session idle-delay":                     "uint32 300",
		"org.gnome.settings-daemon.plugins.power sleep-display-ac": "900",
	})

	c.Activate()
	assert.ElementsMatch(t, []string{
		"org.gnome.desktop.screensaver idle-activation-enabled false",
		"org.gnome.desktop.session idle-delay uint32 0",
		"org.gnome.settings-daemon.plugins.power sleep-display-ac 0",
	}, fake.sets)

	fake.sets = nil
	c.Restore()
	assert.ElementsMatch(t, []string{
		"org.gnome.desktop.screensaver idle-activation-enabled true",
		"org.gnome.desktop.session idle-delay uint32 300",
		"org.gnome.settings-daemon.plugins.power sleep-display-ac 900",
	}, fake.sets)
}

func TestActivateSkipsAlreadyInert(t *testing.T) {
	c, fake := testClamp(map[string]string{
		"org.gnome.desktop.screensaver idle-activation-enabled": "false",
	})

	c.Activate()
	assert.Empty(t, fake.sets)

	// The inert value was still saved, so Restore writes it back.
	c.Restore()
	assert.Equal(t, []string{"org.gnome.desktop.screensaver idle-activation-enabled false"}, fake.sets)
}

func TestMissingKeysAreSkipped(t *testing.T) {
	c, fake := testClamp(map[string]string{})

	c.Activate()
	c.Restore()
	assert.Empty(t, fake.sets)
}
