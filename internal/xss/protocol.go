// Package xss decodes the line protocols of xscreensaver: the
// "xscreensaver-command -watch" event stream and the ~/.xscreensaver
// options file.
package xss

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// States reported by xscreensaver-command -watch. Unknown tokens are
// skipped so newer watcher versions don't break the reader.
const (
	StateBlank   = "BLANK"
	StateLock    = "LOCK"
	StateUnblank = "UNBLANK"
)

// Watcher lines and the "time" query response carry ctime-style
// timestamps ("Www Mmm dd HH:MM:SS yyyy").
const timestampLayout = "Mon Jan 2 15:04:05 2006"

// maxLineLen caps buffered watcher lines; overlong lines are dropped.
const maxLineLen = 1024

// Event is one decoded state change from the watcher stream.
type Event struct {
	State  string
	Active bool
	Locked bool
	Since  time.Time
}

// ParseTimestamp parses the fixed watcher timestamp format, tolerating
// both zero- and space-padded day numbers.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, strings.Join(strings.Fields(s), " "))
}

// ParseEvent decodes one watcher line. ok is false when the state token
// is unrecognized; err is set when a recognized line carries a malformed
// timestamp.
func ParseEvent(line string) (ev Event, ok bool, err error) {
	state, rest, found := strings.Cut(strings.TrimSpace(line), " ")
	if state != StateBlank && state != StateLock && state != StateUnblank {
		return Event{}, false, nil
	}
	if !found {
		return Event{}, false, fmt.Errorf("missing timestamp in %q", line)
	}
	since, err := ParseTimestamp(rest)
	if err != nil {
		return Event{}, false, fmt.Errorf("bad timestamp in %q: %w", line, err)
	}
	return Event{
		State:  state,
		Active: state != StateUnblank,
		Locked: state == StateLock,
		Since:  since,
	}, true, nil
}

// EventReader drains a watcher stdout stream and yields decoded events.
// Malformed and unrecognized lines are logged and skipped so the stream
// keeps being read.
type EventReader struct {
	br  *bufio.Reader
	log *slog.Logger
}

func NewEventReader(r io.Reader, log *slog.Logger) *EventReader {
	return &EventReader{br: bufio.NewReader(r), log: log}
}

// Next blocks until the next recognized event or a stream error.
func (er *EventReader) Next() (Event, error) {
	for {
		line, err := er.readLine()
		if err != nil {
			return Event{}, err
		}
		ev, ok, perr := ParseEvent(line)
		if perr != nil {
			er.log.Error("dropping malformed watcher line", "line", line, "error", perr)
			continue
		}
		if !ok {
			er.log.Debug("ignoring watcher line", "line", line)
			continue
		}
		er.log.Debug("screensaver state change", "state", ev.State, "since", ev.Since)
		return ev, nil
	}
}

func (er *EventReader) readLine() (string, error) {
	buf := make([]byte, 0, 64)
	overflow := false
	for {
		b, err := er.br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			if overflow {
				er.log.Warn("dropped overlong watcher line")
				buf = buf[:0]
				overflow = false
				continue
			}
			return string(buf), nil
		}
		if overflow {
			continue
		}
		if len(buf) >= maxLineLen {
			overflow = true
			continue
		}
		buf = append(buf, b)
	}
}
