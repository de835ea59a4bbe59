package rpc

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
	"github.com/stretchr/testify/require"
)

// fakeTransport records submitted requests and answers with respond on a
// fresh goroutine.
type fakeTransport struct {
	mu      sync.Mutex
	reqs    []*http.Request
	bodies  [][]byte
	respond func(ctx context.Context, req *http.Request) transport.Outcome
}

func newFake(respond func(ctx context.Context, req *http.Request) transport.Outcome) *fakeTransport {
	return &fakeTransport{respond: respond}
}

// answer returns a fake that always replies with o.
func answer(o transport.Outcome) *fakeTransport {
	return newFake(func(context.Context, *http.Request) transport.Outcome { return o })
}

// blocking returns a fake that only completes once ctx is cancelled. The
// returned channel is closed when that happens.
func blocking() (*fakeTransport, <-chan struct{}) {
	aborted := make(chan struct{})
	var once sync.Once
	f := newFake(func(ctx context.Context, _ *http.Request) transport.Outcome {
		<-ctx.Done()
		once.Do(func() { close(aborted) })
		return transport.Outcome{Err: ctx.Err()}
	})
	return f, aborted
}

func (f *fakeTransport) Submit(ctx context.Context, req *http.Request, done transport.CompletionFunc) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	go func() {
		done(f.respond(ctx, req))
	}()
}

func (f *fakeTransport) RegisterTrustDelegate(transport.TrustDelegate) {}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeTransport) Request(i int) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[i]
}

func (f *fakeTransport) Body(i int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[i]
}

func ok(status int, body []byte, header http.Header) transport.Outcome {
	if header == nil {
		header = http.Header{}
	}
	return transport.Outcome{
		Body:     body,
		Response: &transport.RawResponse{StatusCode: status, Header: header},
	}
}

func newTestClient(t *testing.T, tr transport.Transport, opts ...Option) *Client {
	t.Helper()
	urls, err := NewBaseURL("https://api.example.com/v1")
	require.NoError(t, err)
	c := NewClient(tr, urls, opts...)
	t.Cleanup(c.Close)
	return c
}

// outcome captures the single terminal event of a callback dispatch and
// counts how many were delivered.
type outcome struct {
	resp     *Response
	err      *Error
	count    atomic.Int32
	received chan struct{}
}

func newOutcome() *outcome {
	return &outcome{received: make(chan struct{}, 8)}
}

func (o *outcome) onSuccess(r *Response) {
	o.resp = r
	o.count.Add(1)
	o.received <- struct{}{}
}

func (o *outcome) onFail(e *Error) {
	o.err = e
	o.count.Add(1)
	o.received <- struct{}{}
}

func (o *outcome) wait(t *testing.T) {
	t.Helper()
	select {
	case <-o.received:
	case <-time.After(5 * time.Second):
		t.Fatal("no terminal event delivered")
	}
	// Give a duplicate delivery a chance to show up.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), o.count.Load(), "exactly one terminal event")
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) ObserveDispatch(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) Log(_ trace.Category, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *recordingLogger) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type panicLogger struct{}

func (panicLogger) Log(trace.Category, string) { panic("logger exploded") }
