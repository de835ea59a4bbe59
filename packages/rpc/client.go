package rpc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
	"github.com/google/uuid"
)

// Style identifies the dispatch surface that produced an Event.
type Style string

const (
	StyleCallback Style = "callback"
	StyleStream   Style = "stream"
	StyleUpload   Style = "upload"
)

// Event reports one finished dispatch. Kind is empty on success.
type Event struct {
	Style      Style
	Method     Method
	Path       string
	StatusCode int
	Kind       Kind
	Duration   time.Duration
}

// Observer is notified once per finished dispatch.
type Observer interface {
	ObserveDispatch(Event)
}

// Client dispatches requests through a transport.
//
// Completions run on goroutines chosen by the transport, never on the
// caller's goroutine; callers must synchronize any state they touch from
// onSuccess / onFail.
type Client struct {
	transport transport.Transport
	urls      URLBuilder
	logger    trace.Logger
	observer  Observer
	newID     func() string

	// ctx is cancelled by Close, aborting in-flight work.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

type Option func(*Client)

func WithLogger(l trace.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithRequestIDs overrides how per-dispatch request IDs are generated.
func WithRequestIDs(gen func() string) Option {
	return func(c *Client) {
		c.newID = gen
	}
}

// NewClient creates a client that resolves paths with urls and submits
// requests to t.
func NewClient(t transport.Transport, urls URLBuilder, opts ...Option) *Client {
	c := &Client{
		transport: t,
		urls:      urls,
		logger:    trace.Nop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.urls == nil {
		c.urls = &BaseURL{}
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Close tears the client down. In-flight requests are aborted and their
// continuations become no-ops; later dispatches fail with ErrClientClosed.
func (c *Client) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.cancel()
	}
}

func (c *Client) Closed() bool {
	return c.closed.Load()
}

// call carries the per-dispatch context used to build errors and traces.
type call struct {
	id    string
	style Style
	req   Request
	url   string
	start time.Time
}

func (c *Client) newCall(style Style, req Request) *call {
	return &call{
		id:    c.newID(),
		style: style,
		req:   req,
		start: time.Now(),
	}
}

// fail builds the single Error for a failure path.
func (c *Client) fail(cl *call, kind Kind, status int, msg string, opts ...func(*Error)) *Error {
	e := &Error{
		Kind:       kind,
		StatusCode: status,
		Message:    msg,
		Method:     cl.req.Method,
		Path:       cl.req.Path,
		URL:        cl.url,
		RequestID:  cl.id,
		Headers:    cloneMap(cl.req.Headers),
		Params:     cloneMap(cl.req.Params),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func withCause(err error) func(*Error) {
	return func(e *Error) { e.Err = err }
}

func withBody(body []byte) func(*Error) {
	return func(e *Error) { e.Body = body }
}

func withResponseHeaders(headers map[string]string) func(*Error) {
	return func(e *Error) { e.ResponseHeaders = headers }
}

func (c *Client) buildFailure(cl *call, err error) *Error {
	return c.fail(cl, KindBuild, 0, fmt.Sprintf("unable to build url: %v", err), withCause(err))
}

func (c *Client) closedFailure(cl *call) *Error {
	return c.fail(cl, KindTransport, 0, ErrClientClosed.Error(), withCause(ErrClientClosed))
}

func (c *Client) traceBegin(cl *call) {
	trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("beginning %s %s [%s]\n%s",
		cl.req.Method, cl.req.Path, cl.id, trace.Curl(string(cl.req.Method), cl.url, cl.req.Headers, cl.req.Body)))
}

func (c *Client) traceSuccess(cl *call, resp *Response) {
	trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("successful %s %s [%s] %d\nresponse data: %s\nheaders: %s",
		cl.req.Method, cl.req.Path, cl.id, resp.StatusCode, preview(resp.Body), formatHeaders(resp.Headers)))
}

func (c *Client) traceFailure(cl *call, e *Error) {
	trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("fail %s %s [%s]\nerror: %s",
		cl.req.Method, cl.req.Path, cl.id, e.Error()))
}

func (c *Client) observe(cl *call, status int, kind Kind) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveDispatch(Event{
		Style:      cl.style,
		Method:     cl.req.Method,
		Path:       cl.req.Path,
		StatusCode: status,
		Kind:       kind,
		Duration:   time.Since(cl.start),
	})
}

// report logs and observes a terminal outcome.
func (c *Client) report(cl *call, resp *Response, e *Error) {
	if e != nil {
		c.traceFailure(cl, e)
		c.observe(cl, e.StatusCode, e.Kind)
		return
	}
	c.traceSuccess(cl, resp)
	c.observe(cl, resp.StatusCode, "")
}

func formatHeaders(h map[string]string) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+h[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
