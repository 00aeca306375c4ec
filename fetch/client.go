// Package fetch implements the raw HTTP/1.0 transport used by the crawl
// workers: pre-resolved IPv4 connections, verbatim request bytes, and a
// bounded response reader. Every request rides a fresh connection; the
// server closes it to delimit the response.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	// DefaultTimeout bounds every blocking network operation: dial, send,
	// each read wait, and the whole download.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent is the token sent in the User-agent request header.
	DefaultUserAgent = "ahmadCrawler/1.3"
)

var (
	// ErrNoAddress reports a host that resolved but has no IPv4 address.
	ErrNoAddress = errors.New("fetch: host has no IPv4 address")
	// ErrNotResolved reports a Connect call before a successful Resolve.
	ErrNotResolved = errors.New("fetch: connect before resolve")
	// ErrNotConnected reports a Send or Receive call without a connection.
	ErrNotConnected = errors.New("fetch: no open connection")
)

// ResolveFunc resolves a host name to a single IPv4 address.
type ResolveFunc func(ctx context.Context, host string) (net.IP, error)

// DialFunc opens a TCP connection to addr ("ip:port") within timeout.
type DialFunc func(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout   time.Duration // per-operation and total-download bound
	UserAgent string        // User-agent header token
	Resolve   ResolveFunc   // DNS backend, swappable in tests
	Dial      DialFunc      // TCP backend, swappable in tests
}

// Client is a single-connection HTTP/1.0 fetcher. It is owned by one worker
// at a time: the resolved address and the response buffer are reused across
// fetches, each Connect replaces the connection, and none of it is shared.
type Client struct {
	timeout   time.Duration
	userAgent string
	resolveFn ResolveFunc
	dialFn    DialFunc

	conn net.Conn
	ip   net.IP
	buf  []byte
	pos  int
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Resolve == nil {
		opts.Resolve = defaultResolve
	}
	if opts.Dial == nil {
		opts.Dial = defaultDial
	}
	return &Client{
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		resolveFn: opts.Resolve,
		dialFn:    opts.Dial,
		buf:       make([]byte, initialBufSize),
	}
}

// defaultResolve asks the OS resolver for the host's A records and returns
// the first one.
func defaultResolve(ctx context.Context, host string) (net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range addrs {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, ErrNoAddress
}

func defaultDial(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp4", addr)
}

// Resolve looks up host and remembers the address for subsequent Connect
// calls. It returns the dotted-decimal form via net.IP.
func (c *Client) Resolve(ctx context.Context, host string) (net.IP, error) {
	ip, err := c.resolveFn(ctx, host)
	if err != nil {
		return nil, err
	}
	c.ip = ip
	return ip, nil
}

// Connect opens a fresh TCP connection to the resolved address on port,
// closing any connection left over from a previous fetch.
func (c *Client) Connect(ctx context.Context, port int) error {
	c.closeConn()
	if c.ip == nil {
		return ErrNotResolved
	}
	addr := net.JoinHostPort(c.ip.String(), strconv.Itoa(port))
	conn, err := c.dialFn(ctx, addr, c.timeout)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	c.conn = conn
	return nil
}

// Send transmits a minimal HTTP/1.0 request. The bytes on the wire are
// exactly the request line, Host, Connection: close, and User-agent headers;
// no body.
func (c *Client) Send(host, path, method string) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	req := method + " " + path + " HTTP/1.0\r\n" +
		"Host: " + host + "\r\n" +
		"Connection: close\r\n" +
		"User-agent: " + c.userAgent + "\r\n\r\n"
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := io.WriteString(c.conn, req); err != nil {
		return fmt.Errorf("send %s %s: %w", method, path, err)
	}
	return nil
}

// Receive reads the whole response, headers included, up to limit bytes and
// returns it with the parsed status code. The returned slice aliases the
// client's buffer and is valid until the next Receive. A malformed status
// line yields code 0 without error.
func (c *Client) Receive(limit int) ([]byte, int, error) {
	if c.conn == nil {
		return nil, 0, ErrNotConnected
	}
	if err := c.read(limit); err != nil {
		return nil, 0, err
	}
	resp := c.buf[:c.pos]
	return resp, parseStatusCode(resp), nil
}

// Close releases the client's connection, if any.
func (c *Client) Close() {
	c.closeConn()
}

func (c *Client) closeConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// parseStatusCode extracts the integer between the first and second space of
// the response, the status-line's second token. Anything else is 0.
func parseStatusCode(resp []byte) int {
	first := bytes.IndexByte(resp, ' ')
	if first < 0 {
		return 0
	}
	rest := resp[first+1:]
	second := bytes.IndexByte(rest, ' ')
	if second < 0 {
		return 0
	}
	code, err := strconv.Atoi(string(rest[:second]))
	if err != nil {
		return 0
	}
	return code
}
