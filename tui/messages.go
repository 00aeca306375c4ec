package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/contrafy/seedcrawl/crawler"
	"github.com/contrafy/seedcrawl/result"
)

// StatsMsg carries one reporter tick into the TUI.
type StatsMsg crawler.StatsEvent

// CrawlDoneMsg signals the crawl has completed.
type CrawlDoneMsg struct {
	Report *result.Report
	Err    error
}

// waitForStats returns a tea.Cmd that reads one event from the reporter
// channel. The done signal arrives separately via CrawlDoneMsg, so a tick
// pending after completion is simply dropped by the runtime.
func waitForStats(ch <-chan crawler.StatsEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return StatsMsg(evt)
	}
}
