package crawler

import (
	"sync/atomic"

	"github.com/contrafy/seedcrawl/result"
)

// Stats is the process-wide counter bank. Every field is updated with
// atomic read-modify-write operations; no mutex guards any counter. A single
// Stats value is shared by reference between the workers and the reporter.
type Stats struct {
	ExtractedURLs atomic.Int64
	UniqueHosts   atomic.Int64
	DNSLookups    atomic.Int64
	UniqueIPs     atomic.Int64
	RobotsChecked atomic.Int64
	RobotsPassed  atomic.Int64
	PagesCrawled  atomic.Int64
	TotalLinks    atomic.Int64
	TotalBytes    atomic.Int64

	HTTP2xx   atomic.Int64
	HTTP3xx   atomic.Int64
	HTTP4xx   atomic.Int64
	HTTP5xx   atomic.Int64
	HTTPOther atomic.Int64

	ActiveWorkers atomic.Int64

	failInvalidURL atomic.Int64
	failDNS        atomic.Int64
	failConnect    atomic.Int64
	failTimeout    atomic.Int64
	failOversize   atomic.Int64
	failOther      atomic.Int64
}

// TallyStatus increments the class counter for a page status code.
func (s *Stats) TallyStatus(code int) {
	switch {
	case code >= 200 && code < 300:
		s.HTTP2xx.Add(1)
	case code >= 300 && code < 400:
		s.HTTP3xx.Add(1)
	case code >= 400 && code < 500:
		s.HTTP4xx.Add(1)
	case code >= 500 && code < 600:
		s.HTTP5xx.Add(1)
	default:
		s.HTTPOther.Add(1)
	}
}

// RecordFailure tallies a discarded URL under its failure category.
func (s *Stats) RecordFailure(cat result.FailureCategory) {
	switch cat {
	case result.FailureInvalidURL:
		s.failInvalidURL.Add(1)
	case result.FailureDNS:
		s.failDNS.Add(1)
	case result.FailureConnect:
		s.failConnect.Add(1)
	case result.FailureTimeout:
		s.failTimeout.Add(1)
	case result.FailureOversize:
		s.failOversize.Add(1)
	default:
		s.failOther.Add(1)
	}
}

// Snapshot copies the current counter values. Counters are loaded
// individually, so a snapshot taken mid-run is internally consistent only
// up to the ordering guarantees of the pipeline gates.
func (s *Stats) Snapshot() result.Snapshot {
	return result.Snapshot{
		ExtractedURLs: s.ExtractedURLs.Load(),
		UniqueHosts:   s.UniqueHosts.Load(),
		DNSLookups:    s.DNSLookups.Load(),
		UniqueIPs:     s.UniqueIPs.Load(),
		RobotsChecked: s.RobotsChecked.Load(),
		RobotsPassed:  s.RobotsPassed.Load(),
		PagesCrawled:  s.PagesCrawled.Load(),
		TotalLinks:    s.TotalLinks.Load(),
		TotalBytes:    s.TotalBytes.Load(),
		HTTP2xx:       s.HTTP2xx.Load(),
		HTTP3xx:       s.HTTP3xx.Load(),
		HTTP4xx:       s.HTTP4xx.Load(),
		HTTP5xx:       s.HTTP5xx.Load(),
		HTTPOther:     s.HTTPOther.Load(),
		ActiveWorkers: s.ActiveWorkers.Load(),
		Failures: result.FailureCounts{
			InvalidURL: s.failInvalidURL.Load(),
			DNS:        s.failDNS.Load(),
			Connect:    s.failConnect.Load(),
			Timeout:    s.failTimeout.Load(),
			Oversize:   s.failOversize.Load(),
			Other:      s.failOther.Load(),
		},
	}
}
