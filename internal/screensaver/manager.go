// Package screensaver tracks the authoritative screensaver state on top
// of a supervised xscreensaver daemon and schedules lock inhibition.
package screensaver

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fauxgnome/fauxscreensaver/internal/dpms"
	"github.com/fauxgnome/fauxscreensaver/internal/proc"
	"github.com/fauxgnome/fauxscreensaver/internal/xss"
)

// Invoker issues short-lived external commands; satisfied by *proc.Runner.
type Invoker interface {
	Invoke(name string, args ...string) ([]byte, bool)
}

// Options names the external collaborators of the Manager.
type Options struct {
	ScreensaverBin string
	CommandBin     string
	OptionsPath    string
}

// timeQueryRe matches the "-time" query response, e.g.
// "XScreenSaver 6.06: screen locked since Mon Jan  1 10:00:00 2024 (...)".
var timeQueryRe = regexp.MustCompile(`screen (\S+) since ([^(]+)`)

// Manager owns the (active, locked, since, timeout) state. locked implies
// active; the watcher stream is the only source of active transitions.
type Manager struct {
	runner *proc.Runner
	inv    Invoker
	dpms   *dpms.Control
	opts   Options
	log    *slog.Logger

	mu          sync.Mutex
	active      bool
	locked      bool
	activeSince time.Time
	timeout     int

	daemon    *proc.Handle
	watcher   *proc.Handle
	options   *xss.OptionsWatcher
	inhibitor *inhibitor
	stop      chan struct{}

	activeCh  chan bool
	timeoutCh chan int
}

func NewManager(runner *proc.Runner, display *dpms.Control, opts Options, log *slog.Logger) *Manager {
	return &Manager{
		runner:    runner,
		inv:       runner,
		dpms:      display,
		opts:      opts,
		log:       log,
		timeout:   xss.DefaultTimeout,
		activeCh:  make(chan bool, 16),
		timeoutCh: make(chan int, 16),
	}
}

// ActiveChanged delivers the new active value after each transition.
func (m *Manager) ActiveChanged() <-chan bool { return m.activeCh }

// TimeoutChanged delivers new timeout values read from the options file.
func (m *Manager) TimeoutChanged() <-chan int { return m.timeoutCh }

// Activate starts the lock daemon and the watcher, initializes state from
// a one-shot "-time" query and begins following the options file. Failure
// to spawn either process is fatal; the service cannot run without them.
func (m *Manager) Activate() error {
	m.log.Debug("starting screensaver", "bin", m.opts.ScreensaverBin)
	daemon, err := m.runner.Start(m.opts.ScreensaverBin, "-nosplash")
	if err != nil {
		return fmt.Errorf("cannot start screensaver: %w", err)
	}
	m.daemon = daemon
	// Give the daemon a moment to create its window before querying it.
	time.Sleep(time.Second)

	m.stop = make(chan struct{})
	m.initState()

	m.log.Debug("starting watcher", "bin", m.opts.CommandBin)
	watcher, out, err := m.runner.StartPiped(m.opts.CommandBin, "-watch")
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	m.watcher = watcher
	go m.readWatcher(out)

	inh, err := newInhibitor(m.doInhibit, m.log)
	if err != nil {
		return fmt.Errorf("cannot create inhibition scheduler: %w", err)
	}
	m.inhibitor = inh

	options, err := xss.NewOptionsWatcher(m.opts.OptionsPath, m.log)
	if err != nil {
		return fmt.Errorf("cannot watch options file: %w", err)
	}
	m.options = options
	m.setTimeout(options.Timeout(), true)
	if err := options.Start(); err != nil {
		return fmt.Errorf("cannot watch options file: %w", err)
	}
	go m.watchOptions(options)

	return nil
}

// Deactivate tears everything down in reverse order of creation. A daemon
// that already died is not exited again.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
	inhibitor, options, watcher, daemon := m.inhibitor, m.options, m.watcher, m.daemon
	m.inhibitor, m.options, m.watcher, m.daemon = nil, nil, nil, nil
	m.mu.Unlock()

	if inhibitor != nil {
		inhibitor.shutdown()
	}
	if options != nil {
		options.Stop()
	}
	if watcher != nil {
		m.log.Debug("ending watcher")
		watcher.Terminate()
	}
	if daemon != nil && daemon.Alive() {
		m.log.Debug("ending screensaver")
		m.inv.Invoke(m.opts.CommandBin, "-exit")
		time.Sleep(time.Second)
	}

	m.mu.Lock()
	m.active = false
	m.locked = false
	m.mu.Unlock()
}

// initState derives the starting state from a synchronous "-time" query.
// Anything unparsable means inactive and unlocked as of now.
func (m *Manager) initState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	m.locked = false
	m.activeSince = time.Now()

	out, ok := m.inv.Invoke(m.opts.CommandBin, "-time")
	if !ok {
		return
	}
	match := timeQueryRe.FindStringSubmatch(string(out))
	if match == nil {
		m.log.Warn("cannot parse time query response, assuming inactive", "output", strings.TrimSpace(string(out)))
		return
	}
	since, err := xss.ParseTimestamp(match[2])
	if err != nil {
		m.log.Warn("cannot parse time query timestamp, assuming inactive", "value", strings.TrimSpace(match[2]), "error", err)
		return
	}
	state := match[1]
	m.active = state != "non-blanked"
	m.locked = state == "locked"
	m.activeSince = since
	m.log.Debug("initial screensaver state", "active", m.active, "locked", m.locked, "since", since)
}

func (m *Manager) readWatcher(r io.ReadCloser) {
	defer r.Close()
	er := xss.NewEventReader(r, m.log)
	for {
		ev, err := er.Next()
		if err != nil {
			select {
			case <-m.stopped():
			default:
				m.log.Warn("watcher stream closed", "error", err)
			}
			return
		}
		m.handleEvent(ev)
	}
}

func (m *Manager) stopped() chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return m.stop
}

// handleEvent applies one watcher event. locked follows every recognized
// line; active-changed fires only when active actually flips.
func (m *Manager) handleEvent(ev xss.Event) {
	m.mu.Lock()
	m.locked = ev.Locked
	changed := ev.Active != m.active
	if changed {
		m.active = ev.Active
		m.activeSince = ev.Since
	}
	m.mu.Unlock()

	if changed {
		select {
		case m.activeCh <- ev.Active:
		default:
			m.log.Warn("dropping active-changed notification, consumer not draining", "active", ev.Active)
		}
	}
}

func (m *Manager) watchOptions(w *xss.OptionsWatcher) {
	stop := m.stopped()
	for {
		select {
		case <-stop:
			return
		case t, ok := <-w.Updates():
			if !ok {
				return
			}
			m.setTimeout(t, false)
		}
	}
}

func (m *Manager) setTimeout(seconds int, force bool) {
	m.mu.Lock()
	if seconds == m.timeout && !force {
		m.mu.Unlock()
		return
	}
	old := m.timeout
	m.timeout = seconds
	engaged := m.inhibitor != nil && m.inhibitor.engaged()
	m.mu.Unlock()

	m.log.Debug("timeout changed", "was", old, "now", seconds)
	if engaged {
		m.armInhibit()
	}
	select {
	case m.timeoutCh <- seconds:
	default:
	}
}

// Active reports whether the blank/lock screen is currently shown.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Locked reports whether unlocking requires credentials.
func (m *Manager) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Timeout returns the current idle timeout in seconds.
func (m *Manager) Timeout() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// ActiveTime returns whole seconds since the screensaver became active,
// or 0 while inactive.
func (m *Manager) ActiveTime() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return 0
	}
	d := time.Since(m.activeSince)
	if d < 0 {
		return 0
	}
	return uint32(d.Seconds())
}

// SetActive asks the daemon to activate or deactivate. The command is
// fire-and-forget: the watcher stream, not the command outcome, decides
// the resulting transition.
func (m *Manager) SetActive(value bool) {
	if value == m.Active() {
		m.log.Debug("screensaver already in requested state", "active", value)
		return
	}
	cmd := "-deactivate"
	if value {
		m.log.Debug("screensaver is inactive, activating")
		cmd = "-activate"
	} else {
		m.log.Debug("screensaver is active, deactivating")
	}
	m.inv.Invoke(m.opts.CommandBin, cmd)
}

// Lock asks the daemon to lock unless it already is.
func (m *Manager) Lock() {
	if m.Locked() {
		m.log.Debug("already locked")
		return
	}
	m.log.Debug("locking")
	m.inv.Invoke(m.opts.CommandBin, "-lock")
}

// SimulateUserActivity wakes the screen unconditionally.
func (m *Manager) SimulateUserActivity() {
	m.log.Debug("simulating user activity")
	m.inv.Invoke(m.opts.CommandBin, "-deactivate")
}

// Inhibit starts periodic lock suppression: one immediate tick, then one
// every max(20, timeout-10) seconds. Calling it again re-arms the timer
// with the current timeout.
func (m *Manager) Inhibit() {
	m.armInhibit()
}

func (m *Manager) armInhibit() {
	m.mu.Lock()
	inh := m.inhibitor
	m.mu.Unlock()
	if inh == nil {
		return
	}
	interval := m.inhibitInterval()
	m.log.Debug("inhibiting screensaver", "interval_seconds", int(interval/time.Second))
	if err := inh.engage(interval); err != nil {
		m.log.Error("cannot arm inhibition timer", "error", err)
	}
}

func (m *Manager) inhibitInterval() time.Duration {
	secs := m.Timeout() - 10
	if secs < 20 {
		secs = 20
	}
	return time.Duration(secs) * time.Second
}

// Uninhibit re-enables display standby and cancels the suppression
// timer. It is a no-op when no timer is armed.
func (m *Manager) Uninhibit() {
	m.mu.Lock()
	inh := m.inhibitor
	m.mu.Unlock()
	if inh == nil {
		return
	}
	m.log.Debug("uninhibiting screensaver")
	if inh.disengage() {
		m.dpms.Set(true)
	}
}

// doInhibit is one suppression tick. An active lock always wins: a locked
// screen is neither deactivated nor has its standby touched.
func (m *Manager) doInhibit() {
	if m.Locked() {
		m.log.Debug("screensaver is locked, skipping inhibit tick")
		return
	}
	m.log.Debug("suppressing idle lock")
	m.inv.Invoke(m.opts.CommandBin, "-deactivate")
	m.dpms.Set(false)
}
