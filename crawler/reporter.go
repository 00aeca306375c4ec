package crawler

import (
	"time"

	"github.com/contrafy/seedcrawl/result"
)

// reportInterval is the cadence of the periodic status lines.
const reportInterval = 2 * time.Second

// report prints the periodic status lines until done is signaled. Each tick
// snapshots the counter bank, prints the status pair, and records the
// crawled/byte values for the next tick's delta rates. The reporter is the
// only goroutine that watches the shutdown signal; workers always run to
// queue exhaustion.
func (c *Crawler) report(done <-chan struct{}) {
	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()

	last := c.start
	var lastCrawled, lastBytes int64

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			snap := c.stats.Snapshot()
			queued := c.queue.Len()
			elapsed := now.Sub(c.start)

			tick := now.Sub(last).Seconds()
			var pps, mbps float64
			if tick > 0 {
				pps = float64(snap.PagesCrawled-lastCrawled) / tick
				mbps = float64(snap.TotalBytes-lastBytes) * 8.0 / (tick * 1024.0 * 1024.0)
			}

			result.PrintProgress(c.cfg.Output, elapsed, queued, snap, pps, mbps)
			if c.events != nil {
				select {
				case c.events <- StatsEvent{Elapsed: elapsed, Queued: queued, Snapshot: snap, PPS: pps, Mbps: mbps}:
				default:
					// A stalled observer never holds up the reporter.
				}
			}

			lastCrawled = snap.PagesCrawled
			lastBytes = snap.TotalBytes
			last = now
		}
	}
}
