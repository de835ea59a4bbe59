package rpc

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrClientClosed is the cause of failures for dispatches made after Close.
var ErrClientClosed = errors.New("rpc: client closed")

// Kind classifies an Error by where the request failed.
type Kind string

const (
	// KindBuild: the logical request could not be turned into a transport request.
	KindBuild Kind = "build_failure"
	// KindTransport: the transport failed before any response was obtained.
	KindTransport Kind = "transport_failure"
	// KindNoResponse: the transport returned no HTTP response.
	KindNoResponse Kind = "no_response"
	// KindStatus: the status code is outside the dispatch style's accepted set.
	KindStatus Kind = "status_failure"
	// KindNoBody: the status was accepted but no body arrived (callbacks only).
	KindNoBody Kind = "no_body"
)

// Error describes one failed dispatch. StatusCode is 0 when no HTTP response
// was received. Errors are built once at the point of failure and not
// modified afterwards.
type Error struct {
	Kind            Kind
	StatusCode      int
	Message         string
	Method          Method
	Path            string
	URL             string
	RequestID       string
	Headers         map[string]string
	Params          map[string]string
	Body            []byte
	ResponseHeaders map[string]string
	Err             error
}

// Error implements error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil && !strings.Contains(e.Message, e.Err.Error()) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same Kind, so errors.Is(err,
// &Error{Kind: KindStatus}) tests the failure class.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*Error); ok {
		return t.Kind != "" && e.Kind == t.Kind
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Kind: %s\n", e.Kind)
	fmt.Fprintf(&b, "Message: %s\n", e.Message)
	if e.RequestID != "" {
		fmt.Fprintf(&b, "Request ID: %s\n", e.RequestID)
	}
	fmt.Fprintf(&b, "Request: %s %s\n", e.Method, e.Path)
	if e.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", e.URL)
	}
	fmt.Fprintf(&b, "Status Code: %d\n", e.StatusCode)
	writeMap(&b, "Headers", e.Headers)
	writeMap(&b, "Params", e.Params)
	writeMap(&b, "Response Headers", e.ResponseHeaders)
	if e.Body != nil {
		fmt.Fprintf(&b, "Body: %s\n", preview(e.Body))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, "Cause: %v\n", e.Err)
	}
	return b.String()
}

func writeMap(b *strings.Builder, title string, m map[string]string) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %s\n", k, m[k])
	}
}

// AsError extracts an *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
