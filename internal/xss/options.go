package xss

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultTimeout is the idle timeout, in seconds, used when the options
// file is missing, has no timeout line, or the value cannot be parsed.
const DefaultTimeout = 600

// 12 hours is the maximum xscreensaver timeout, so HH:MM:SS always fits.
const timeoutLayout = "15:04:05"

// ReadTimeout extracts the idle timeout in seconds from an xscreensaver
// options file. The first line whose first token is "timeout:" and that
// has exactly one trailing token decides the result, parsable or not.
func ReadTimeout(path string, log *slog.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		log.Debug("cannot read options file, using default timeout", "path", path, "error", err)
		return DefaultTimeout
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 || fields[0] != "timeout:" {
			continue
		}
		t, err := time.Parse(timeoutLayout, fields[1])
		if err != nil {
			log.Debug("cannot parse timeout, using default", "value", fields[1], "error", err)
			return DefaultTimeout
		}
		secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
		log.Debug("found timeout", "value", fields[1], "seconds", secs)
		return secs
	}
	if err := sc.Err(); err != nil {
		log.Debug("error reading options file, using default timeout", "path", path, "error", err)
	}
	return DefaultTimeout
}
