package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the report as formatted JSON to w.
func WriteJSON(w io.Writer, rep *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the report as metric,value rows to w. A header row is
// always included.
func WriteCSV(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"metric", "value"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	snap := rep.Counters
	rows := []struct {
		metric string
		value  int64
	}{
		{"extracted_urls", snap.ExtractedURLs},
		{"unique_hosts", snap.UniqueHosts},
		{"dns_lookups", snap.DNSLookups},
		{"unique_ips", snap.UniqueIPs},
		{"robots_checked", snap.RobotsChecked},
		{"robots_passed", snap.RobotsPassed},
		{"pages_crawled", snap.PagesCrawled},
		{"total_links", snap.TotalLinks},
		{"total_bytes", snap.TotalBytes},
		{"http_2xx", snap.HTTP2xx},
		{"http_3xx", snap.HTTP3xx},
		{"http_4xx", snap.HTTP4xx},
		{"http_5xx", snap.HTTP5xx},
		{"http_other", snap.HTTPOther},
		{"failures_invalid_url", snap.Failures.InvalidURL},
		{"failures_dns", snap.Failures.DNS},
		{"failures_connect", snap.Failures.Connect},
		{"failures_timeout", snap.Failures.Timeout},
		{"failures_oversize", snap.Failures.Oversize},
		{"failures_other", snap.Failures.Other},
		{"duration_ms", rep.Duration.Milliseconds()},
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.metric, strconv.FormatInt(row.value, 10)}); err != nil {
			return fmt.Errorf("write csv record %s: %w", row.metric, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
