package result

import (
	"context"
	"errors"
	"net"

	"github.com/contrafy/seedcrawl/fetch"
)

// FailureCategory classifies why a URL was discarded.
type FailureCategory string

const (
	FailureInvalidURL FailureCategory = "invalid_url"
	FailureDNS        FailureCategory = "dns_failure"
	FailureConnect    FailureCategory = "connection_failed"
	FailureTimeout    FailureCategory = "timeout"
	FailureOversize   FailureCategory = "response_too_large"
	FailureOther      FailureCategory = "unknown"
)

// Classify maps an error from the fetch pipeline to its failure category.
func Classify(err error) FailureCategory {
	if err == nil {
		return FailureOther
	}

	if errors.Is(err, fetch.ErrResponseTooLarge) {
		return FailureOversize
	}
	if errors.Is(err, fetch.ErrSlowResponse) || errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return FailureTimeout
		}
		return FailureConnect
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	return FailureOther
}

// FormatCategory returns a human-readable label for a failure category.
func FormatCategory(cat FailureCategory) string {
	switch cat {
	case FailureInvalidURL:
		return "Invalid URLs"
	case FailureDNS:
		return "DNS Failures"
	case FailureConnect:
		return "Connection Failures"
	case FailureTimeout:
		return "Timeouts"
	case FailureOversize:
		return "Oversize Responses"
	default:
		return "Other Failures"
	}
}
