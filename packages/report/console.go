package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Console is a live Reporter that prints events as they happen. Late
// failures (after a case's finished event) are printed on arrival,
// since the scheduler does not order them relative to finished.
type Console struct {
	mu      sync.Mutex
	writer  io.Writer
	verbose bool

	failed map[Description]int

	green *color.Color
	red   *color.Color
	cyan  *color.Color
	bold  *color.Color
	dim   *color.Color
}

// ConsoleOption configures the console reporter
type ConsoleOption func(*Console)

// WithWriter sets the output writer
func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		c.writer = w
	}
}

// WithVerbose enables per-event output
func WithVerbose(verbose bool) ConsoleOption {
	return func(c *Console) {
		c.verbose = verbose
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ConsoleOption {
	return func(c *Console) {
		color.NoColor = noColor
	}
}

// NewConsole creates a console reporter
func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		writer: os.Stdout,
		failed: make(map[Description]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.green = color.New(color.FgGreen)
	c.red = color.New(color.FgRed)
	c.cyan = color.New(color.FgCyan)
	c.bold = color.New(color.Bold)
	c.dim = color.New(color.Faint)
	return c
}

func (c *Console) Started(desc Description) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.verbose {
		c.dim.Fprintf(c.writer, "  ▸ %s\n", desc)
	}
}

func (c *Console) Failure(desc Description, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failed[desc]++
	c.red.Fprintf(c.writer, "  ✗ %s", desc)
	fmt.Fprintf(c.writer, " — %v\n", err)
}

func (c *Console) Finished(desc Description) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed[desc] > 0 {
		return
	}
	c.green.Fprintf(c.writer, "  ✓ ")
	fmt.Fprintf(c.writer, "%s\n", desc)
}

// PrintSummary prints the final run summary in the usual layout
func (c *Console) PrintSummary(summary *RunSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.writer)
	c.bold.Fprintf(c.writer, "Run %s\n", summary.RunID)
	fmt.Fprintf(c.writer, "Cases:    %d total | ", summary.Total)
	c.green.Fprintf(c.writer, "%d passed", summary.Passed)
	fmt.Fprintf(c.writer, " | ")
	if summary.Failed > 0 {
		c.red.Fprintf(c.writer, "%d failed", summary.Failed)
	} else {
		fmt.Fprintf(c.writer, "%d failed", summary.Failed)
	}
	fmt.Fprintf(c.writer, "\nDuration: %s\n", formatDuration(summary.Duration))

	if summary.Failed > 0 {
		fmt.Fprintln(c.writer)
		c.bold.Fprintln(c.writer, "FAILURES")
		for _, result := range summary.Results {
			if result.Passed() {
				continue
			}
			kind := ""
			if result.Timeout {
				kind = " (timeout)"
			}
			c.red.Fprintf(c.writer, "  %s%s\n", result.Desc, kind)
			for _, msg := range result.Errors {
				fmt.Fprintf(c.writer, "    %s\n", msg)
			}
		}
	}
	fmt.Fprintln(c.writer)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}
