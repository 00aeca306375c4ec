// Package crawler implements the seeded crawl pipeline: a one-shot work
// queue drained by a pool of workers, host and IP deduplication gates, a
// robots probe, a bounded page fetch, and a periodic statistics reporter.
// Extracted links are counted, never enqueued.
package crawler

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contrafy/seedcrawl/fetch"
	"github.com/contrafy/seedcrawl/result"
)

// defaultWorkers is used when the configuration leaves Workers unset.
const defaultWorkers = 8

// Config holds crawler configuration. Zero values select the defaults.
type Config struct {
	InputPath string        // file of candidate URLs, one per line
	Workers   int           // number of concurrent workers (default 8)
	Timeout   time.Duration // network operation bound (default 10s)
	UserAgent string        // User-agent request header token
	RateLimit int           // global connections per second, 0 = unlimited
	SeenFile  string        // persistent host filter path, "" = disabled
	Output    io.Writer     // progress destination (default os.Stdout)

	// Resolve and Dial override the network backends; tests point them at
	// scripted servers.
	Resolve fetch.ResolveFunc
	Dial    fetch.DialFunc
}

// Crawler coordinates the worker pool, the dedup gates, and the reporter
// over a single run.
type Crawler struct {
	cfg     Config
	queue   *Queue
	hosts   *Set
	ips     *Set
	stats   *Stats
	seen    *HostFilter
	limiter *Limiter
	events  chan<- StatsEvent
	start   time.Time
}

// New creates a Crawler with the given configuration. The events channel is
// optional; pass nil when no observer wants reporter ticks.
func New(cfg Config, events chan<- StatsEvent) (*Crawler, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = fetch.DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetch.DefaultUserAgent
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	c := &Crawler{
		cfg:     cfg,
		queue:   NewQueue(),
		hosts:   NewSet(),
		ips:     NewSet(),
		stats:   &Stats{},
		limiter: NewLimiter(cfg.RateLimit),
		events:  events,
	}

	if cfg.SeenFile != "" {
		seen, err := OpenHostFilter(cfg.SeenFile)
		if err != nil {
			return nil, fmt.Errorf("open host filter: %w", err)
		}
		c.seen = seen
	}

	return c, nil
}

// Stats exposes the live counter bank, mainly for tests and observers.
func (c *Crawler) Stats() *Stats {
	return c.stats
}

// QueueLen reports the number of URLs not yet dequeued.
func (c *Crawler) QueueLen() int {
	return c.queue.Len()
}

// Run loads the input file, drains it through the worker pool, and returns
// the final report. The reporter runs for the duration of the crawl and is
// signaled to stop once every worker has exited.
func (c *Crawler) Run(ctx context.Context) (*result.Report, error) {
	if _, err := loadURLs(c.cfg.InputPath, c.queue, c.cfg.Output); err != nil {
		return nil, fmt.Errorf("load URLs: %w", err)
	}

	c.stats.ActiveWorkers.Store(int64(c.cfg.Workers))
	c.start = time.Now()

	done := make(chan struct{})
	var reporterWg sync.WaitGroup
	reporterWg.Add(1)
	go func() {
		defer reporterWg.Done()
		c.report(done)
	}()

	g, workerCtx := errgroup.WithContext(ctx)
	for range c.cfg.Workers {
		g.Go(func() error {
			c.runWorker(workerCtx)
			return nil
		})
	}
	_ = g.Wait() // workers only ever return nil

	close(done)
	reporterWg.Wait()

	if c.seen != nil {
		if err := c.seen.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "seen file: %v\n", err)
		}
	}

	return &result.Report{
		Counters: c.stats.Snapshot(),
		Duration: time.Since(c.start),
	}, nil
}
