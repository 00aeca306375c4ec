// Package main provides the seedcrawl CLI entrypoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/contrafy/seedcrawl/crawler"
	"github.com/contrafy/seedcrawl/result"
	"github.com/contrafy/seedcrawl/tui"
)

// cliFlags holds parsed command-line flags.
type cliFlags struct {
	userAgent  string
	rateLimit  int
	seenFile   string
	timeout    time.Duration
	useTUI     bool
	outputJSON bool
	outputCSV  bool
	outputFile string
}

// parseFlags parses command-line flags and returns the parsed values.
func parseFlags() *cliFlags {
	opts := &cliFlags{}
	flag.StringVar(&opts.userAgent, "user-agent", "", "user agent token (default ahmadCrawler/1.3)")
	flag.IntVar(&opts.rateLimit, "rate-limit", 0, "global connections per second (0 = unlimited)")
	flag.StringVar(&opts.seenFile, "seen-file", "", "persistent seen-host filter file")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "network operation timeout")
	flag.BoolVar(&opts.useTUI, "tui", false, "show a live dashboard instead of plain status lines")

	// Output format
	flag.BoolVar(&opts.outputJSON, "j", false, "write final counters as JSON")
	flag.BoolVar(&opts.outputJSON, "json", false, "write final counters as JSON")
	flag.BoolVar(&opts.outputCSV, "c", false, "write final counters as CSV")
	flag.BoolVar(&opts.outputCSV, "csv", false, "write final counters as CSV")
	flag.StringVar(&opts.outputFile, "o", "", "write JSON/CSV output to file")
	flag.StringVar(&opts.outputFile, "output", "", "write JSON/CSV output to file")

	flag.Parse()
	return opts
}

// validateFlags validates flag combinations and returns an error if invalid.
func validateFlags(opts *cliFlags) error {
	if opts.outputJSON && opts.outputCSV {
		return fmt.Errorf("--json and --csv are mutually exclusive")
	}
	return nil
}

// runTUI creates and runs the dashboard, returning the final model.
func runTUI(ctx context.Context, cancel context.CancelFunc, cfg crawler.Config) (tui.Model, error) {
	events := make(chan crawler.StatsEvent, 8)
	crawlerInstance, err := crawler.New(cfg, events)
	if err != nil {
		return tui.Model{}, fmt.Errorf("create crawler: %w", err)
	}

	tuiModel := tui.NewModel(ctx, cancel, crawlerInstance, events)
	program := tea.NewProgram(tuiModel)

	finalModel, err := program.Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("run tui: %w", err)
	}

	return finalModel.(tui.Model), nil
}

// writeReport handles writing JSON/CSV output to stdout or a file.
func writeReport(opts *cliFlags, rep *result.Report) error {
	var writer io.Writer = os.Stdout
	if opts.outputFile != "" {
		outFile, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if cerr := outFile.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", cerr)
			}
		}()
		writer = outFile
	}

	// Default to JSON if -o specified without format
	if opts.outputJSON || (!opts.outputCSV && opts.outputFile != "") {
		if err := result.WriteJSON(writer, rep); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil
	}
	if err := result.WriteCSV(writer, rep); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func main() {
	opts := parseFlags()

	if err := validateFlags(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: seedcrawl [flags] <numThreads> <inputFilePath>")
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	workers, err := strconv.Atoi(flag.Arg(0))
	if err != nil || workers < 1 {
		fmt.Fprintln(os.Stderr, "Invalid number of threads")
		os.Exit(1)
	}

	cfg := crawler.Config{
		InputPath: flag.Arg(1),
		Workers:   workers,
		Timeout:   opts.timeout,
		UserAgent: opts.userAgent,
		RateLimit: opts.rateLimit,
		SeenFile:  opts.seenFile,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var report *result.Report
	if opts.useTUI {
		cfg.Output = io.Discard

		finalModel, err := runTUI(ctx, cancel, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if tuiErr := finalModel.Err(); tuiErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", tuiErr)
			os.Exit(1)
		}
		report = finalModel.Report()
	} else {
		crawlerInstance, err := crawler.New(cfg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		report, err = crawlerInstance.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		result.PrintSummary(os.Stdout, report.Counters, report.Duration)
	}

	if report != nil && (opts.outputJSON || opts.outputCSV || opts.outputFile != "") {
		if err := writeReport(opts, report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
