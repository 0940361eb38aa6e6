package xss

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// OptionsWatcher re-reads the idle timeout whenever the options file
// changes. A write or create triggers a reparse; a remove or rename
// resets to the default without touching the file. Re-reads that yield
// the current value are silent.
type OptionsWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	updates chan int
	last    int
	log     *slog.Logger
	stop    chan struct{}
}

// NewOptionsWatcher parses the file once for the initial value; Start
// begins delivering updates.
func NewOptionsWatcher(path string, log *slog.Logger) (*OptionsWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve options path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create file watcher: %w", err)
	}
	w := &OptionsWatcher{
		path:    abs,
		watcher: fw,
		updates: make(chan int, 4),
		log:     log,
		stop:    make(chan struct{}),
	}
	w.last = ReadTimeout(abs, log)
	return w, nil
}

// Timeout returns the value read at construction time.
func (w *OptionsWatcher) Timeout() int { return w.last }

// Updates delivers new timeout values in seconds.
func (w *OptionsWatcher) Updates() <-chan int { return w.updates }

func (w *OptionsWatcher) Start() error {
	// Watching the directory survives editors that replace the file.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	w.log.Debug("watching options file", "path", w.path)
	go w.loop()
	return nil
}

func (w *OptionsWatcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

func (w *OptionsWatcher) loop() {
	base := filepath.Base(w.path)
	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.log.Debug("options file changed, re-reading", "path", w.path)
				w.publish(ReadTimeout(w.path, w.log))
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.log.Debug("options file removed, resetting timeout to default", "path", w.path)
				w.publish(DefaultTimeout)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("options watcher error", "error", err)
		}
	}
}

func (w *OptionsWatcher) publish(timeout int) {
	if timeout == w.last {
		return
	}
	w.last = timeout
	select {
	case w.updates <- timeout:
	default:
		w.log.Warn("dropping timeout update, consumer not draining", "seconds", timeout)
	}
}
