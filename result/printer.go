package result

import (
	"fmt"
	"io"
	"time"
)

// PrintProgress writes the two-line periodic status report: the counter line
// followed by the pages-per-second and megabits-per-second deltas computed
// by the reporter.
func PrintProgress(w io.Writer, elapsed time.Duration, queued int, snap Snapshot, pps, mbps float64) {
	fmt.Fprintf(w, "[%3d] %3d Q %7d E %7d H %6d D %5d I %5d R %5d C %5d L %4dK\n",
		int(elapsed.Seconds()), snap.ActiveWorkers, queued,
		snap.ExtractedURLs, snap.UniqueHosts, snap.DNSLookups, snap.UniqueIPs,
		snap.RobotsPassed, snap.PagesCrawled, snap.TotalLinks/1000)
	fmt.Fprintf(w, "     *** crawling %.1f pps @ %.1f Mbps\n", pps, mbps)
}

// PrintSummary writes the end-of-run totals and per-second rates against the
// run's total elapsed time.
func PrintSummary(w io.Writer, snap Snapshot, elapsed time.Duration) {
	secs := elapsed.Seconds()
	rate := func(n int64) float64 {
		if secs > 0 {
			return float64(n) / secs
		}
		return 0
	}

	fmt.Fprintf(w, "Extracted %d URLs @ %.0f/s\n", snap.ExtractedURLs, rate(snap.ExtractedURLs))
	fmt.Fprintf(w, "Looked up %d DNS names @ %.0f/s\n", snap.UniqueHosts, rate(snap.UniqueHosts))
	fmt.Fprintf(w, "Attempted %d site robots @ %.0f/s\n", snap.UniqueIPs, rate(snap.UniqueIPs))
	fmt.Fprintf(w, "Crawled %d pages @ %.0f/s (%.2f MB)\n",
		snap.PagesCrawled, rate(snap.PagesCrawled), float64(snap.TotalBytes)/(1024.0*1024.0))
	fmt.Fprintf(w, "Parsed %d links @ %.0f/s\n", snap.TotalLinks, rate(snap.TotalLinks))
	fmt.Fprintf(w, "HTTP codes: 2xx = %d, 3xx = %d, 4xx = %d, 5xx = %d, other = %d\n",
		snap.HTTP2xx, snap.HTTP3xx, snap.HTTP4xx, snap.HTTP5xx, snap.HTTPOther)
}
