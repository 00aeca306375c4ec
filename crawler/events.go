package crawler

import (
	"time"

	"github.com/contrafy/seedcrawl/result"
)

// StatsEvent carries one reporter tick to an observer such as the TUI.
type StatsEvent struct {
	Elapsed  time.Duration
	Queued   int
	Snapshot result.Snapshot
	PPS      float64
	Mbps     float64
}
