package trace

// Category tags a trace message with the subsystem that produced it.
type Category string

const (
	// CategoryAPI covers the request lifecycle.
	CategoryAPI Category = "api"
	// CategoryChallenge covers TLS trust challenges.
	CategoryChallenge Category = "challenge"
)

// Logger receives trace messages. Implementations must be safe for
// concurrent use.
type Logger interface {
	Log(category Category, msg string)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(category Category, msg string)

func (f LoggerFunc) Log(category Category, msg string) {
	f(category, msg)
}

type nopLogger struct{}

func (nopLogger) Log(Category, string) {}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// Safe calls l.Log and swallows any panic raised by it.
func Safe(l Logger, category Category, msg string) {
	if l == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	l.Log(category, msg)
}
