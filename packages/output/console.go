package output

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/metrics"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	headers bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints full error diagnostics instead of a one-line summary.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

// WithHeaders prints response headers before the body.
func WithHeaders(h bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.headers = h
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(r Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	if r.Err != nil {
		status := "ERR"
		if r.Err.StatusCode != 0 {
			status = fmt.Sprintf("%d", r.Err.StatusCode)
		}
		fmt.Fprintf(f.writer, "%s %s %s %s\n", red("✗ "+status), bold(string(r.Method)), r.URL, gray(formatDuration(r.Duration)))
		if f.verbose {
			fmt.Fprint(f.writer, r.Err.DebugInfo())
			return
		}
		fmt.Fprintf(f.writer, "  %s\n", r.Err.Error())
		return
	}

	resp := r.Response
	fmt.Fprintf(f.writer, "%s %s %s %s\n",
		green(fmt.Sprintf("✓ %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))),
		bold(string(r.Method)), r.URL, gray(formatDuration(r.Duration)))

	if f.headers {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "%s %s\n", gray(k+":"), resp.Headers[k])
		}
		fmt.Fprintln(f.writer)
	}

	if resp.HasBody() && len(resp.Body) > 0 {
		fmt.Fprintf(f.writer, "%s\n", resp.BodyString())
	}
}

func (f *ConsoleFormatter) FormatSummary(s metrics.LatencySummary) {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	errors := fmt.Sprintf("%d", s.Errors)
	if s.Errors > 0 {
		errors = red(errors)
	}

	fmt.Fprintf(f.writer, "\n%s\n", bold("Summary"))
	fmt.Fprintf(f.writer, "  requests: %d  errors: %s\n", s.Count, errors)
	fmt.Fprintf(f.writer, "  latency:  min %s  p50 %s  p95 %s  p99 %s  max %s  mean %s\n",
		cyan(formatDuration(s.Min)), cyan(formatDuration(s.P50)), cyan(formatDuration(s.P95)),
		cyan(formatDuration(s.P99)), cyan(formatDuration(s.Max)), cyan(formatDuration(s.Mean)))
}

func (f *ConsoleFormatter) FormatChain(host string, chain []ChainCert) {
	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold("Chain presented by"), host)
	for _, c := range chain {
		fmt.Fprintf(f.writer, "\n[%d] %s\n", c.Index, bold(c.Subject))
		fmt.Fprintf(f.writer, "    %s %s\n", gray("issuer:   "), c.Issuer)
		fmt.Fprintf(f.writer, "    %s %s\n", gray("expires:  "), c.NotAfter.Format(time.RFC3339))
		fmt.Fprintf(f.writer, "    %s %s\n", gray("cert:     "), c.CertSHA256)
		if c.SPKIPin != "" {
			fmt.Fprintf(f.writer, "    %s %s\n", gray("spki pin: "), yellow(c.SPKIPin))
		}
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0ms"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
