package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleLogger writes one coloured, category-tagged entry per message.
type ConsoleLogger struct {
	mu         sync.Mutex
	writer     io.Writer
	verbose    bool
	noColor    bool
	timestamps bool
	categories map[Category]bool
}

type ConsoleOption func(*ConsoleLogger)

func NewConsoleLogger(opts ...ConsoleOption) *ConsoleLogger {
	l := &ConsoleLogger{
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.noColor {
		color.NoColor = true
	}
	return l
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(l *ConsoleLogger) {
		l.writer = w
	}
}

// WithVerbose keeps multi-line messages intact. Otherwise only the first
// line of each message is written.
func WithVerbose(v bool) ConsoleOption {
	return func(l *ConsoleLogger) {
		l.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(l *ConsoleLogger) {
		l.noColor = nc
	}
}

func WithTimestamps(ts bool) ConsoleOption {
	return func(l *ConsoleLogger) {
		l.timestamps = ts
	}
}

// WithCategories restricts output to the given categories.
func WithCategories(categories ...Category) ConsoleOption {
	return func(l *ConsoleLogger) {
		if len(categories) == 0 {
			l.categories = nil
			return
		}
		l.categories = make(map[Category]bool, len(categories))
		for _, c := range categories {
			l.categories[c] = true
		}
	}
}

func (l *ConsoleLogger) Log(category Category, msg string) {
	if l.categories != nil && !l.categories[category] {
		return
	}

	if !l.verbose {
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
	}

	tag := categoryColor(category).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	if l.timestamps {
		b.WriteString(dim(time.Now().Format("15:04:05.000")))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s %s\n", tag("["+string(category)+"]"), strings.TrimRight(msg, "\n"))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, b.String())
}

func categoryColor(category Category) *color.Color {
	switch category {
	case CategoryAPI:
		return color.New(color.FgCyan)
	case CategoryChallenge:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
