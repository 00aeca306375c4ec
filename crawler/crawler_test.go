package crawler

import (
	"context"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/contrafy/seedcrawl/result"
)

const (
	robotsOKResponse  = "HTTP/1.0 200 OK\r\n\r\n"
	robots403Response = "HTTP/1.0 403 Forbidden\r\n\r\n"
	robots500Response = "HTTP/1.0 500 Internal Server Error\r\n\r\n"
	pageResponse      = "HTTP/1.0 200 OK\r\nContent-Type: text/html\r\n\r\n" +
		`<html><body><a href="/x">x</a><a href="http://other.test/y">y</a></body></html>`
)

// scriptedServer answers each connection with the response scripted for its
// request line, recording requests as they arrive.
type scriptedServer struct {
	ln        net.Listener
	mu        sync.Mutex
	responses map[string]string
	requests  []string
}

func newScriptedServer(t *testing.T, responses map[string]string) *scriptedServer {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &scriptedServer{ln: ln, responses: responses}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(conn)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *scriptedServer) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	var sb strings.Builder
	buf := make([]byte, 512)
	for !strings.Contains(sb.String(), "\r\n\r\n") {
		n, err := conn.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			return
		}
	}

	line, _, _ := strings.Cut(sb.String(), "\r\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	key := fields[0] + " " + fields[1]

	s.mu.Lock()
	s.requests = append(s.requests, key)
	resp, ok := s.responses[key]
	s.mu.Unlock()
	if !ok {
		resp = "HTTP/1.0 404 Not Found\r\n\r\n"
	}
	_, _ = io.WriteString(conn, resp)
}

func (s *scriptedServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *scriptedServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func loopbackResolve(ctx context.Context, host string) (net.IP, error) {
	return net.IPv4(127, 0, 0, 1).To4(), nil
}

func newTestCrawler(t *testing.T, urls []string, tweak func(*Config)) *Crawler {
	t.Helper()
	cfg := Config{
		InputPath: writeInputFile(t, strings.Join(urls, "\n")+"\n"),
		Workers:   2,
		Timeout:   2 * time.Second,
		Output:    io.Discard,
		Resolve:   loopbackResolve,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func runCrawl(t *testing.T, c *Crawler) result.Snapshot {
	t.Helper()
	rep, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertInvariants(t, c, rep.Counters)
	return rep.Counters
}

// assertInvariants checks the gate inequalities and termination state that
// must hold after every run.
func assertInvariants(t *testing.T, c *Crawler, snap result.Snapshot) {
	t.Helper()
	chain := []struct {
		name string
		a, b int64
	}{
		{"uniqueHosts <= extractedURLs", snap.UniqueHosts, snap.ExtractedURLs},
		{"dnsLookups <= uniqueHosts", snap.DNSLookups, snap.UniqueHosts},
		{"uniqueIPs <= dnsLookups", snap.UniqueIPs, snap.DNSLookups},
		{"robotsChecked <= uniqueIPs", snap.RobotsChecked, snap.UniqueIPs},
		{"robotsPassed <= robotsChecked", snap.RobotsPassed, snap.RobotsChecked},
		{"pagesCrawled <= robotsPassed", snap.PagesCrawled, snap.RobotsPassed},
	}
	for _, gate := range chain {
		if gate.a > gate.b {
			t.Errorf("invariant violated: %s (%d > %d)", gate.name, gate.a, gate.b)
		}
	}
	sum := snap.HTTP2xx + snap.HTTP3xx + snap.HTTP4xx + snap.HTTP5xx + snap.HTTPOther
	if sum != snap.PagesCrawled {
		t.Errorf("status class sum = %d, want pagesCrawled = %d", sum, snap.PagesCrawled)
	}
	if snap.ActiveWorkers != 0 {
		t.Errorf("ActiveWorkers = %d after run, want 0", snap.ActiveWorkers)
	}
	if got := c.QueueLen(); got != 0 {
		t.Errorf("queue length = %d after run, want 0", got)
	}
}

func TestCrawlSingleURL(t *testing.T) {
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
	})
	urls := []string{fmt.Sprintf("http://a.test:%d/", srv.port())}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.ExtractedURLs != 1 || snap.UniqueHosts != 1 || snap.DNSLookups != 1 ||
		snap.UniqueIPs != 1 || snap.RobotsChecked != 1 || snap.RobotsPassed != 1 ||
		snap.PagesCrawled != 1 {
		t.Errorf("pipeline counters = %+v, want all gate counters 1", snap)
	}
	if snap.HTTP2xx != 1 {
		t.Errorf("HTTP2xx = %d, want 1", snap.HTTP2xx)
	}
	if snap.TotalLinks != 2 {
		t.Errorf("TotalLinks = %d, want 2", snap.TotalLinks)
	}
	if want := int64(2 * len(pageResponse)); snap.TotalBytes != want {
		t.Errorf("TotalBytes = %d, want %d", snap.TotalBytes, want)
	}
}

func TestCrawlRobots403(t *testing.T) {
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robots403Response,
		"GET /":            pageResponse,
	})
	urls := []string{fmt.Sprintf("http://b.test:%d/", srv.port())}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.RobotsChecked != 1 {
		t.Errorf("RobotsChecked = %d, want 1", snap.RobotsChecked)
	}
	if snap.RobotsPassed != 0 {
		t.Errorf("RobotsPassed = %d, want 0", snap.RobotsPassed)
	}
	if snap.PagesCrawled != 0 {
		t.Errorf("PagesCrawled = %d, want 0", snap.PagesCrawled)
	}
	if got := srv.requestCount(); got != 1 {
		t.Errorf("server saw %d requests, want only the robots probe", got)
	}
}

func TestCrawlRobots500(t *testing.T) {
	// Server errors on the probe read as permissive.
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robots500Response,
		"GET /":            pageResponse,
	})
	urls := []string{fmt.Sprintf("http://c.test:%d/", srv.port())}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.RobotsPassed != 1 {
		t.Errorf("RobotsPassed = %d, want 1", snap.RobotsPassed)
	}
	if snap.PagesCrawled != 1 {
		t.Errorf("PagesCrawled = %d, want 1", snap.PagesCrawled)
	}
	if snap.HTTP2xx != 1 {
		t.Errorf("HTTP2xx = %d, want 1", snap.HTTP2xx)
	}
}

func TestCrawlDuplicateHost(t *testing.T) {
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
		"GET /x":           pageResponse,
	})
	urls := []string{
		fmt.Sprintf("http://d.test:%d/", srv.port()),
		fmt.Sprintf("http://d.test:%d/x", srv.port()),
	}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.ExtractedURLs != 2 {
		t.Errorf("ExtractedURLs = %d, want 2", snap.ExtractedURLs)
	}
	if snap.UniqueHosts != 1 {
		t.Errorf("UniqueHosts = %d, want 1", snap.UniqueHosts)
	}
	if got := srv.requestCount(); got > 2 {
		t.Errorf("server saw %d requests, want at most one robots+page pair", got)
	}
}

func TestCrawlHostCaseFolds(t *testing.T) {
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
	})
	urls := []string{
		fmt.Sprintf("http://E.test:%d/", srv.port()),
		fmt.Sprintf("http://e.test:%d/", srv.port()),
	}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.UniqueHosts != 1 {
		t.Errorf("UniqueHosts = %d, want 1 (host gate keys are lowercase)", snap.UniqueHosts)
	}
}

func TestCrawlSameIP(t *testing.T) {
	// Distinct hosts resolving to the same address stop at the IP gate.
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
	})
	urls := []string{
		fmt.Sprintf("http://e1.test:%d/", srv.port()),
		fmt.Sprintf("http://e2.test:%d/", srv.port()),
	}

	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.UniqueHosts != 2 {
		t.Errorf("UniqueHosts = %d, want 2", snap.UniqueHosts)
	}
	if snap.DNSLookups != 2 {
		t.Errorf("DNSLookups = %d, want 2", snap.DNSLookups)
	}
	if snap.UniqueIPs != 1 {
		t.Errorf("UniqueIPs = %d, want 1", snap.UniqueIPs)
	}
	if snap.RobotsChecked != 1 {
		t.Errorf("RobotsChecked = %d, want 1", snap.RobotsChecked)
	}
}

func TestCrawlInvalidURLs(t *testing.T) {
	urls := []string{"ftp://x/", "http://", "http://h:0/", "http://h:70000/"}

	c := newTestCrawler(t, urls, func(cfg *Config) {
		cfg.Resolve = func(ctx context.Context, host string) (net.IP, error) {
			t.Errorf("resolver called for %q, invalid URLs must not reach DNS", host)
			return nil, fmt.Errorf("unexpected lookup")
		}
	})
	snap := runCrawl(t, c)

	if snap.ExtractedURLs != 4 {
		t.Errorf("ExtractedURLs = %d, want 4", snap.ExtractedURLs)
	}
	if snap.UniqueHosts != 0 {
		t.Errorf("UniqueHosts = %d, want 0", snap.UniqueHosts)
	}
	if snap.Failures.InvalidURL != 4 {
		t.Errorf("invalid URL failures = %d, want 4", snap.Failures.InvalidURL)
	}
}

func TestCrawlDNSFailure(t *testing.T) {
	urls := []string{"http://unresolvable.test/"}

	c := newTestCrawler(t, urls, func(cfg *Config) {
		cfg.Resolve = func(ctx context.Context, host string) (net.IP, error) {
			return nil, &net.DNSError{Err: "no such host", Name: host}
		}
	})
	snap := runCrawl(t, c)

	if snap.UniqueHosts != 1 {
		t.Errorf("UniqueHosts = %d, want 1", snap.UniqueHosts)
	}
	if snap.DNSLookups != 0 {
		t.Errorf("DNSLookups = %d, want 0", snap.DNSLookups)
	}
	if snap.Failures.DNS != 1 {
		t.Errorf("DNS failures = %d, want 1", snap.Failures.DNS)
	}
}

func TestCrawlConnectFailure(t *testing.T) {
	// A listener that is immediately closed leaves a port nothing accepts on.
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	urls := []string{fmt.Sprintf("http://gone.test:%d/", port)}
	snap := runCrawl(t, newTestCrawler(t, urls, nil))

	if snap.UniqueIPs != 1 {
		t.Errorf("UniqueIPs = %d, want 1", snap.UniqueIPs)
	}
	if snap.RobotsChecked != 0 {
		t.Errorf("RobotsChecked = %d, want 0", snap.RobotsChecked)
	}
	if snap.Failures.Connect != 1 {
		t.Errorf("connect failures = %d, want 1", snap.Failures.Connect)
	}
}

func TestCrawlDeterministic(t *testing.T) {
	responses := map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
		"GET /x":           pageResponse,
	}

	run := func() result.Snapshot {
		srv := newScriptedServer(t, responses)
		urls := []string{
			fmt.Sprintf("http://a.test:%d/", srv.port()),
			fmt.Sprintf("http://b.test:%d/x", srv.port()),
			fmt.Sprintf("http://a.test:%d/x", srv.port()),
			"ftp://nope/",
		}
		return runCrawl(t, newTestCrawler(t, urls, nil))
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("two runs diverged:\n first = %+v\nsecond = %+v", first, second)
	}
}

func TestCrawlSeenFilterSkipsPriorHosts(t *testing.T) {
	srv := newScriptedServer(t, map[string]string{
		"HEAD /robots.txt": robotsOKResponse,
		"GET /":            pageResponse,
	})
	urls := []string{fmt.Sprintf("http://repeat.test:%d/", srv.port())}
	seenPath := filepath.Join(t.TempDir(), "seen.bloom")

	tweak := func(cfg *Config) { cfg.SeenFile = seenPath }

	first := runCrawl(t, newTestCrawler(t, urls, tweak))
	if first.UniqueHosts != 1 {
		t.Fatalf("first run UniqueHosts = %d, want 1", first.UniqueHosts)
	}

	second := runCrawl(t, newTestCrawler(t, urls, tweak))
	if second.ExtractedURLs != 1 {
		t.Errorf("second run ExtractedURLs = %d, want 1", second.ExtractedURLs)
	}
	if second.UniqueHosts != 0 {
		t.Errorf("second run UniqueHosts = %d, want 0 (host filtered)", second.UniqueHosts)
	}
}

func TestRunMissingInputFile(t *testing.T) {
	c, err := New(Config{InputPath: "/nonexistent/urls.txt", Workers: 1, Output: io.Discard}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Run(context.Background()); err == nil {
		t.Error("Run with missing input file succeeded, want error")
	}
}
