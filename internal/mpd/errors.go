package mpd

import (
	"errors"
	"strings"
)

// Sentinel errors reported by the driver. Callers map these onto
// protocol-level failures.
var (
	// ErrConnectionLost is returned when the control connection is down
	// or had to be abandoned mid-command.
	ErrConnectionLost = errors.New("mpd: connection lost")

	// ErrUnavailable is returned when the daemon did not answer within
	// the configured command timeout.
	ErrUnavailable = errors.New("mpd: backend unavailable")

	// ErrNotExist is returned when a command names a song, directory or
	// playlist the daemon does not know about.
	ErrNotExist = errors.New("mpd: no such object")
)

// isNotExist reports whether an MPD ACK denotes a missing object rather
// than a broken session.
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such")
}
