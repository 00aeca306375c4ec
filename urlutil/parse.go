// Package urlutil provides the URL parsing used by the crawl pipeline.
package urlutil

import (
	"errors"
	"regexp"
	"strconv"
)

// URL is the decomposed form of a crawlable address.
type URL struct {
	Scheme string // always "http" for a parsed URL
	Host   string // DNS name, as written
	Port   int    // 1-65535, 80 when the URL carries none
	Path   string // path and query, "/" when the URL carries none
}

var (
	// ErrMalformed reports input that does not match the URL grammar.
	ErrMalformed = errors.New("malformed URL")
	// ErrScheme reports a well-formed URL with a scheme other than http.
	ErrScheme = errors.New("unsupported scheme")
	// ErrPort reports a port outside the valid range.
	ErrPort = errors.New("port out of range")
)

// urlPattern accepts scheme "://" host [":" port] [ "/" rest ]. The scheme is
// a letter followed by letters, digits, '+', '.' or '-'; the host is anything
// up to the first '/' or ':'. Query strings ride along in the path group.
var urlPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://([^/:]+)(?::([0-9]+))?(/.*)?$`)

// Parse decomposes raw into its URL parts. The raw string is taken verbatim:
// no case folding, percent-decoding, or IDN handling. Only http URLs are
// accepted; a missing port defaults to 80 and a missing path to "/".
func Parse(raw string) (URL, error) {
	m := urlPattern.FindStringSubmatch(raw)
	if m == nil {
		return URL{}, ErrMalformed
	}
	if m[1] != "http" {
		return URL{}, ErrScheme
	}

	port := 80
	if m[3] != "" {
		p, err := strconv.Atoi(m[3])
		if err != nil || p < 1 || p > 65535 {
			return URL{}, ErrPort
		}
		port = p
	}

	path := m[4]
	if path == "" {
		path = "/"
	}

	return URL{Scheme: m[1], Host: m[2], Port: port, Path: path}, nil
}
