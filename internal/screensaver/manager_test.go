package screensaver

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fauxgnome/fauxscreensaver/internal/dpms"
	"github.com/fauxgnome/fauxscreensaver/internal/xss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeInvoker) Invoke(name string, args ...string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))
	return nil, true
}

func (f *fakeInvoker) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) (*Manager, *fakeInvoker) {
	t.Helper()
	fake := &fakeInvoker{}
	logger := testLogger()
	display := dpms.NewControl(fake, "xset", true, logger)
	m := NewManager(nil, display, Options{
		ScreensaverBin: "xscreensaver",
		CommandBin:     "xscreensaver-command",
	}, logger)
	m.inv = fake
	return m, fake
}

func mustEvent(t *testing.T, line string) xss.Event {
	t.Helper()
	ev, ok, err := xss.ParseEvent(line)
	require.NoError(t, err)
	require.True(t, ok)
	return ev
}

func drainActive(m *Manager) []bool {
	var out []bool
	for {
		select {
		case v := <-m.ActiveChanged():
			out = append(out, v)
		default:
			return out
		}
	}
}

func TestWatcherEventSequence(t *testing.T) {
	m, _ := newTestManager(t)

	m.handleEvent(mustEvent(t, "BLANK Mon Jan 01 10:00:00 2024"))
	assert.True(t, m.Active())
	assert.False(t, m.Locked())
	assert.Equal(t, []bool{true}, drainActive(m))

	// LOCK reaffirms active: locked flips, no active-changed.
	m.handleEvent(mustEvent(t, "LOCK Mon Jan 01 10:00:05 2024"))
	assert.True(t, m.Active())
	assert.True(t, m.Locked())
	assert.Empty(t, drainActive(m))

	m.handleEvent(mustEvent(t, "UNBLANK Mon Jan 01 10:05:00 2024"))
	assert.False(t, m.Active())
	assert.False(t, m.Locked())
	assert.Equal(t, []bool{false}, drainActive(m))
}

func TestActiveSinceFollowsTransitionsOnly(t *testing.T) {
	m, _ := newTestManager(t)

	blank := mustEvent(t, "BLANK Mon Jan 01 10:00:00 2024")
	m.handleEvent(blank)
	require.Equal(t, blank.Since, m.activeSince)

	// A reaffirming LOCK must not move the transition timestamp.
	m.handleEvent(mustEvent(t, "LOCK Mon Jan 01 10:00:05 2024"))
	assert.Equal(t, blank.Since, m.activeSince)
}

func TestLockedImpliesActive(t *testing.T) {
	m, _ := newTestManager(t)

	lines := []string{
		"BLANK Mon Jan 01 10:00:00 2024",
		"LOCK Mon Jan 01 10:00:05 2024",
		"LOCK Mon Jan 01 10:00:06 2024",
		"UNBLANK Mon Jan 01 10:05:00 2024",
		"LOCK Mon Jan 01 10:06:00 2024",
	}
	for _, line := range lines {
		m.handleEvent(mustEvent(t, line))
		if m.Locked() {
			assert.True(t, m.Active(), "locked must imply active after %q", line)
		}
	}
}

func TestActiveTime(t *testing.T) {
	m, _ := newTestManager(t)
	assert.Equal(t, uint32(0), m.ActiveTime())

	m.mu.Lock()
	m.active = true
	m.activeSince = time.Now().Add(-90 * time.Second)
	m.mu.Unlock()
	assert.InDelta(t, 90, float64(m.ActiveTime()), 1)
}

func TestSetActive(t *testing.T) {
	m, fake := newTestManager(t)

	m.SetActive(true)
	assert.Equal(t, []string{"xscreensaver-command -activate"}, fake.commands())
	// The command is fire-and-forget: state follows the watcher, not the call.
	assert.False(t, m.Active())

	// Already in the requested state: no command.
	m.SetActive(false)
	assert.Len(t, fake.commands(), 1)

	m.handleEvent(mustEvent(t, "BLANK Mon Jan 01 10:00:00 2024"))
	m.SetActive(false)
	assert.Equal(t, "xscreensaver-command -deactivate", fake.commands()[1])
}

func TestLockOnlyWhenUnlocked(t *testing.T) {
	m, fake := newTestManager(t)

	m.Lock()
	assert.Equal(t, []string{"xscreensaver-command -lock"}, fake.commands())

	m.handleEvent(mustEvent(t, "LOCK Mon Jan 01 10:00:05 2024"))
	m.Lock()
	assert.Len(t, fake.commands(), 1)
}

func TestSimulateUserActivity(t *testing.T) {
	m, fake := newTestManager(t)

	m.handleEvent(mustEvent(t, "LOCK Mon Jan 01 10:00:05 2024"))
	m.SimulateUserActivity()
	assert.Equal(t, "xscreensaver-command -deactivate", fake.commands()[0])
}

func TestDoInhibitSuppressesWhenUnlocked(t *testing.T) {
	m, fake := newTestManager(t)

	m.doInhibit()
	assert.Equal(t, []string{
		"xscreensaver-command -deactivate",
		"xset -dpms",
	}, fake.commands())
}

func TestDoInhibitSkipsWhenLocked(t *testing.T) {
	m, fake := newTestManager(t)

	m.handleEvent(mustEvent(t, "LOCK Mon Jan 01 10:00:05 2024"))
	m.doInhibit()
	assert.Empty(t, fake.commands())
}

func TestInhibitInterval(t *testing.T) {
	tests := []struct {
		timeout int
		want    time.Duration
	}{
		{600, 590 * time.Second},
		{31, 21 * time.Second},
		{30, 20 * time.Second},
		{5, 20 * time.Second},
		{0, 20 * time.Second},
	}

	m, _ := newTestManager(t)
	for _, tt := range tests {
		m.mu.Lock()
		m.timeout = tt.timeout
		m.mu.Unlock()
		assert.Equal(t, tt.want, m.inhibitInterval(), "timeout=%d", tt.timeout)
	}
}

func TestSetTimeoutNotifiesOnChangeOnly(t *testing.T) {
	m, _ := newTestManager(t)

	m.setTimeout(330, false)
	select {
	case v := <-m.TimeoutChanged():
		assert.Equal(t, 330, v)
	default:
		t.Fatal("expected a timeout-changed notification")
	}

	m.setTimeout(330, false)
	select {
	case v := <-m.TimeoutChanged():
		t.Fatalf("unexpected timeout-changed notification: %d", v)
	default:
	}
}

func TestInhibitRearmsOnTimeoutChange(t *testing.T) {
	m, _ := newTestManager(t)

	inh, err := newInhibitor(func() {}, testLogger())
	require.NoError(t, err)
	defer inh.shutdown()
	m.inhibitor = inh

	m.Inhibit()
	assert.True(t, inh.engaged())
	assert.Equal(t, 590*time.Second, inh.interval)

	m.setTimeout(100, false)
	assert.True(t, inh.engaged())
	assert.Equal(t, 90*time.Second, inh.interval)
	assert.Len(t, inh.sched.Jobs(), 1)
}

func TestUninhibitIdempotent(t *testing.T) {
	m, fake := newTestManager(t)

	inh, err := newInhibitor(func() {}, testLogger())
	require.NoError(t, err)
	defer inh.shutdown()
	m.inhibitor = inh

	m.Inhibit()
	m.Uninhibit()
	assert.False(t, inh.engaged())
	assert.Equal(t, []string{"xset +dpms"}, fake.commands())

	// No timer armed: nothing more happens.
	m.Uninhibit()
	assert.Len(t, fake.commands(), 1)
}
