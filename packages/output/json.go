package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/metrics"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Results []JSONResult `json:"results,omitempty"`
	Summary *JSONSummary `json:"summary,omitempty"`
	Host    string       `json:"host,omitempty"`
	Chain   []ChainCert  `json:"chain,omitempty"`
	Time    string       `json:"time"`
}

// JSONResult represents one dispatch
type JSONResult struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	BodyText   string            `json:"bodyText,omitempty"`
	Duration   float64           `json:"duration"` // milliseconds
	Error      *JSONError        `json:"error,omitempty"`
}

type JSONError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// JSONSummary holds latency figures in milliseconds
type JSONSummary struct {
	Count  int64   `json:"count"`
	Errors int64   `json:"errors"`
	Min    float64 `json:"min"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// JSONFormatter formats results as a single JSON document on Flush
type JSONFormatter struct {
	writer io.Writer
	doc    JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(r Result) {
	jr := JSONResult{
		Method:   string(r.Method),
		URL:      r.URL,
		Duration: millis(r.Duration),
	}

	if r.Err != nil {
		jr.StatusCode = r.Err.StatusCode
		jr.Headers = r.Err.ResponseHeaders
		jr.Error = &JSONError{Kind: string(r.Err.Kind), Message: r.Err.Error(), RequestID: r.Err.RequestID}
		setBody(&jr, r.Err.Body)
	} else {
		jr.StatusCode = r.Response.StatusCode
		jr.Headers = r.Response.Headers
		setBody(&jr, r.Response.Body)
	}

	f.doc.Results = append(f.doc.Results, jr)
}

// setBody embeds JSON bodies as-is and everything else as text.
func setBody(jr *JSONResult, body []byte) {
	if len(body) == 0 {
		return
	}
	if json.Valid(body) {
		jr.Body = json.RawMessage(body)
		return
	}
	jr.BodyText = string(body)
}

func (f *JSONFormatter) FormatSummary(s metrics.LatencySummary) {
	f.doc.Summary = &JSONSummary{
		Count:  s.Count,
		Errors: s.Errors,
		Min:    millis(s.Min),
		P50:    millis(s.P50),
		P95:    millis(s.P95),
		P99:    millis(s.P99),
		Max:    millis(s.Max),
		Mean:   millis(s.Mean),
	}
}

func (f *JSONFormatter) FormatChain(host string, chain []ChainCert) {
	f.doc.Host = host
	f.doc.Chain = chain
}

func (f *JSONFormatter) Flush() error {
	f.doc.Time = time.Now().UTC().Format(time.RFC3339)
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(f.doc)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
