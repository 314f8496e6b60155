package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/runspec/packages/core/runner"
	"github.com/abdul-hamid-achik/runspec/packages/core/scheduler"
	"github.com/abdul-hamid-achik/runspec/packages/loader"
	"github.com/abdul-hamid-achik/runspec/packages/metrics"
	"github.com/abdul-hamid-achik/runspec/packages/report"
	"github.com/abdul-hamid-achik/runspec/packages/spec"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Run test suites from .suite.yaml files",
	Long: `Run test suites defined in .suite.yaml files.

Examples:
  runspec run payments.suite.yaml
  runspec run ./suites/ --tags smoke
  runspec run payments.suite.yaml --isolation fresh
  runspec run ./suites/ --output junit --output-file results.xml
  runspec run payments.suite.yaml --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	tagsFlag       string
	isolationFlag  string
	outputFlag     string
	outputFileFlag string
	timeoutFlag    string
	quietFlag      bool
	verboseFlag    bool
	noColorFlag    bool
	watchFlag      bool
	metricsFlag    bool
	rateFlag       float64
)

func init() {
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", "", "Comma-delimited active tags; empty runs everything")
	runCmd.Flags().StringVarP(&isolationFlag, "isolation", "i", "shared", "Isolation mode: shared or fresh")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "console", "Output format: console, json or junit")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", "", "Write output to a file instead of stdout")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", "", "Default case timeout for cases without one (e.g. 30s)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress live per-case output")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print case start events too")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch suite files for changes and re-run")
	runCmd.Flags().BoolVar(&metricsFlag, "metrics", false, "Print invocation latency metrics after the run")
	runCmd.Flags().Float64Var(&rateFlag, "rate", 0, "Pace invocation starts at this rate per second")
}

func runCommand(cmd *cobra.Command, args []string) error {
	files, err := loader.Collect(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", loader.SuiteFileExt)
	}

	isolation, err := runner.ParseIsolation(isolationFlag)
	if err != nil {
		return err
	}

	failed, err := runFiles(cmd, files, isolation)
	if err != nil {
		return err
	}

	if !watchFlag {
		if failed > 0 {
			return fmt.Errorf("%d case(s) failed", failed)
		}
		return nil
	}

	return watchAndRerun(cmd, args, files, isolation)
}

// runFiles runs every suite file once and returns the failed case count
func runFiles(cmd *cobra.Command, files []string, isolation runner.Isolation) (int, error) {
	out, closeOut, err := outputWriter(cmd)
	if err != nil {
		return 0, err
	}
	defer closeOut()

	var schedOpts []scheduler.Option
	if rateFlag > 0 {
		schedOpts = append(schedOpts, scheduler.WithRate(rateFlag))
	}
	var m *metrics.Metrics
	if metricsFlag {
		m = metrics.New()
		schedOpts = append(schedOpts, scheduler.WithMetrics(m))
	}

	totalFailed := 0
	for _, path := range files {
		f, err := loader.Load(path)
		if err != nil {
			return totalFailed, err
		}
		applyDefaultTimeout(f)

		recorder := report.NewRecorder()
		reporters := report.Multi{recorder}
		var console *report.Console
		if strings.EqualFold(outputFlag, "console") {
			console = report.NewConsole(
				report.WithWriter(out),
				report.WithVerbose(verboseFlag),
				report.WithNoColor(noColorFlag),
			)
			// Quiet keeps the summary but drops the live per-case lines
			if !quietFlag {
				fmt.Fprintf(out, "\nRunning: %s\n\n", path)
				reporters = append(reporters, console)
			}
		}

		r := runner.NewRunner(&runner.Config{
			Tags:             spec.ParseTags(tagsFlag),
			Isolation:        isolation,
			Reporter:         reporters,
			SchedulerOptions: schedOpts,
		})
		if err := r.Run(cmd.Context(), f.Factory()); err != nil {
			return totalFailed, fmt.Errorf("running %s: %w", path, err)
		}

		summary := recorder.Summary()
		totalFailed += summary.Failed

		switch strings.ToLower(outputFlag) {
		case "console", "":
			if console != nil {
				console.PrintSummary(summary)
			}
		case "json":
			if err := report.WriteJSON(out, summary); err != nil {
				return totalFailed, err
			}
		case "junit":
			if err := report.WriteJUnit(out, summary); err != nil {
				return totalFailed, err
			}
		default:
			return totalFailed, fmt.Errorf("unknown output format %q", outputFlag)
		}
	}

	if m != nil {
		printMetrics(cmd.OutOrStdout(), m.Snapshot())
	}
	return totalFailed, nil
}

// applyDefaultTimeout injects the --timeout flag as the file's default
// case timeout when the file does not set one itself
func applyDefaultTimeout(f *loader.File) {
	if timeoutFlag == "" {
		return
	}
	if f.Defaults == nil {
		f.Defaults = &loader.Defaults{}
	}
	if f.Defaults.Timeout == "" {
		f.Defaults.Timeout = timeoutFlag
	}
}

func outputWriter(cmd *cobra.Command) (io.Writer, func(), error) {
	if outputFileFlag == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	file, err := os.Create(outputFileFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

func printMetrics(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "\nInvocations: %d total | %d failed | %d timeouts (%.1f%% errors)\n",
		snap.Total, snap.Failures, snap.Timeouts, snap.ErrorRate()*100)
	fmt.Fprintf(w, "Latency: p50: %s | p95: %s | p99: %s | max: %s\n",
		snap.P50, snap.P95, snap.P99, snap.Max)
}

// watchAndRerun blocks watching the suite files and their directories,
// re-running on write events with a debounce
func watchAndRerun(cmd *cobra.Command, args, files []string, isolation runner.Isolation) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() && !watchedDirs[arg] {
			_ = watcher.Add(arg)
			watchedDirs[arg] = true
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounceTimer *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !strings.HasSuffix(event.Name, loader.SuiteFileExt) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n", event.Name)
				if _, err := runFiles(cmd, files, isolation); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			})
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", werr)
		case <-cmd.Context().Done():
			return nil
		}
	}
}
