package discovery

import (
	"time"

	"github.com/jkindrix/claude-snatch/internal/clock"
)

// Activity classifies how recently a session file was written to.
type Activity int

const (
	Inactive Activity = iota
	RecentlyActive
	PossiblyActive
)

const (
	possiblyActiveWindow = 5 * time.Second
	recentlyActiveWindow = 60 * time.Second
)

// ClassifyActivity compares a file's mtime against now, without
// taking any file lock — the log store is append-only and concurrent
// readers must never block the writer.
func ClassifyActivity(mtime time.Time, now time.Time) Activity {
	age := now.Sub(mtime)
	switch {
	case age <= possiblyActiveWindow:
		return PossiblyActive
	case age <= recentlyActiveWindow:
		return RecentlyActive
	default:
		return Inactive
	}
}

// Activity classifies this session's file against c's current time,
// so callers can inject a fixed clock in tests instead of racing
// against the real filesystem mtime.
func (s Session) Activity(c clock.Clock) Activity {
	return ClassifyActivity(time.Unix(s.File.Mtime, 0), c.Now())
}
