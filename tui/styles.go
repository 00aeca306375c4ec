package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/contrafy/seedcrawl/result"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	valueStyle   = lipgloss.NewStyle()
)

// renderLive produces the in-flight dashboard line block.
func renderLive(m Model) string {
	snap := m.snap
	return fmt.Sprintf("%s Crawling... %ds elapsed, %d workers, %d queued\n%s\n%s\n",
		m.spinner.View(),
		int(m.elapsed.Seconds()),
		snap.ActiveWorkers,
		m.queued,
		dimStyle.Render(fmt.Sprintf("  extracted %d  hosts %d  dns %d  ips %d  robots %d  crawled %d  links %d",
			snap.ExtractedURLs, snap.UniqueHosts, snap.DNSLookups, snap.UniqueIPs,
			snap.RobotsPassed, snap.PagesCrawled, snap.TotalLinks)),
		dimStyle.Render(fmt.Sprintf("  %.1f pps @ %.1f Mbps", m.pps, m.mbps)),
	)
}

// RenderSummary produces a Lip Gloss styled summary of the final counters.
func RenderSummary(rep *result.Report) string {
	if rep == nil {
		return errorStyle.Render("No results available.")
	}
	snap := rep.Counters

	var builder strings.Builder
	builder.WriteString(successStyle.Render("Crawl complete"))
	builder.WriteString("\n")

	rows := [][]string{
		{"Extracted URLs", fmt.Sprintf("%d", snap.ExtractedURLs)},
		{"Unique hosts", fmt.Sprintf("%d", snap.UniqueHosts)},
		{"DNS lookups", fmt.Sprintf("%d", snap.DNSLookups)},
		{"Unique IPs", fmt.Sprintf("%d", snap.UniqueIPs)},
		{"Robots checked", fmt.Sprintf("%d", snap.RobotsChecked)},
		{"Robots passed", fmt.Sprintf("%d", snap.RobotsPassed)},
		{"Pages crawled", fmt.Sprintf("%d", snap.PagesCrawled)},
		{"Links parsed", fmt.Sprintf("%d", snap.TotalLinks)},
		{"MB received", fmt.Sprintf("%.2f", float64(snap.TotalBytes)/(1024.0*1024.0))},
	}

	counterTable := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Counter", "Total").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return valueStyle
		}).
		Rows(rows...)

	builder.WriteString(counterTable.Render())
	builder.WriteString("\n")
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"HTTP codes: 2xx = %d, 3xx = %d, 4xx = %d, 5xx = %d, other = %d",
		snap.HTTP2xx, snap.HTTP3xx, snap.HTTP4xx, snap.HTTP5xx, snap.HTTPOther)))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf("Finished in %s", rep.Duration.Round(1_000_000))))
	builder.WriteString("\n")

	return builder.String()
}
