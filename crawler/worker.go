package crawler

import (
	"bytes"
	"context"
	"strings"

	"github.com/contrafy/seedcrawl/fetch"
	"github.com/contrafy/seedcrawl/result"
	"github.com/contrafy/seedcrawl/urlutil"
)

const (
	// robotsByteLimit caps the HEAD /robots.txt response.
	robotsByteLimit = 16 * 1024
	// pageByteLimit caps the page response.
	pageByteLimit = 2 * 1024 * 1024
)

// headerEnd separates response headers from the body.
var headerEnd = []byte("\r\n\r\n")

// runWorker drains the queue. Each worker owns one fetch client, and with
// it one response buffer, for its whole lifetime; the client holds at most
// one open socket, replaced for every request.
func (c *Crawler) runWorker(ctx context.Context) {
	client := fetch.NewClient(fetch.Options{
		Timeout:   c.cfg.Timeout,
		UserAgent: c.cfg.UserAgent,
		Resolve:   c.cfg.Resolve,
		Dial:      c.cfg.Dial,
	})
	defer client.Close()
	defer c.stats.ActiveWorkers.Add(-1)

	for {
		raw, ok := c.queue.TryPop()
		if !ok {
			return
		}
		c.stats.ExtractedURLs.Add(1)
		c.crawlOne(ctx, client, raw)
	}
}

// crawlOne runs one URL through the gate pipeline. Every stage either
// admits the URL to the next or discards it; failures are tallied in
// aggregate and never surfaced individually.
func (c *Crawler) crawlOne(ctx context.Context, client *fetch.Client, raw string) {
	u, err := urlutil.Parse(raw)
	if err != nil {
		c.stats.RecordFailure(result.FailureInvalidURL)
		return
	}

	hostKey := strings.ToLower(u.Host)
	if c.seen != nil && c.seen.Contains(hostKey) {
		return
	}
	if !c.hosts.CheckAndInsert(hostKey) {
		return
	}
	c.stats.UniqueHosts.Add(1)
	if c.seen != nil {
		c.seen.Add(hostKey)
	}

	ip, err := client.Resolve(ctx, u.Host)
	if err != nil {
		c.stats.RecordFailure(result.FailureDNS)
		return
	}
	c.stats.DNSLookups.Add(1)

	if !c.ips.CheckAndInsert(ip.String()) {
		return
	}
	c.stats.UniqueIPs.Add(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}
	if err := client.Connect(ctx, u.Port); err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	if err := client.Send(u.Host, "/robots.txt", "HEAD"); err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	_, status, err := client.Receive(robotsByteLimit)
	if err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	c.stats.RobotsChecked.Add(1)

	// Only a clear 4xx reads as "robots.txt exists and may restrict us";
	// absence, server errors, and everything else admit the page.
	if status >= 400 && status < 500 {
		return
	}
	c.stats.RobotsPassed.Add(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return
	}
	if err := client.Connect(ctx, u.Port); err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	if err := client.Send(u.Host, u.Path, "GET"); err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	resp, status, err := client.Receive(pageByteLimit)
	if err != nil {
		c.stats.RecordFailure(result.Classify(err))
		return
	}
	c.stats.TotalBytes.Add(int64(len(resp)))

	c.stats.TallyStatus(status)
	if status >= 200 && status < 300 {
		if i := bytes.Index(resp, headerEnd); i >= 0 {
			n := CountLinks(resp[i+len(headerEnd):], "http://"+u.Host)
			if n < 0 {
				n = 0
			}
			c.stats.TotalLinks.Add(int64(n))
		}
	}

	// NB: the page bytes land in totalBytes twice; the reported MB figure
	// is defined against that total.
	c.stats.TotalBytes.Add(int64(len(resp)))
	c.stats.PagesCrawled.Add(1)
}
