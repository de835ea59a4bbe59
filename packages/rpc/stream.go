package rpc

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
)

// Stream is a cold, single-value result source. Creating one does no work;
// every Subscribe starts an independent request that ends in at most one
// terminal event.
//
// Any 2xx status succeeds. 204 yields a Response with a nil Body; other 2xx
// statuses always carry a non-nil (possibly empty) Body. Callbacks are
// stricter; see Client.Dispatch.
type Stream struct {
	client *Client
	req    Request
}

// Stream returns a cold stream for req.
func (c *Client) Stream(req Request) *Stream {
	return &Stream{client: c, req: req}
}

// Perform returns a cold stream for endpoint. GET and HEAD never send a
// body.
func (c *Client) Perform(endpoint Endpoint, headers, params map[string]string, body []byte) *Stream {
	req := Request{Method: endpoint.Method, Path: endpoint.Path, Headers: headers, Params: params, Body: body}
	if endpoint.Method == MethodGet || endpoint.Method == MethodHead {
		req.Body = nil
	}
	return c.Stream(req)
}

func (c *Client) GetStream(path string, headers, params map[string]string) *Stream {
	return c.Perform(Endpoint{Method: MethodGet, Path: path}, headers, params, nil)
}

func (c *Client) PostStream(path string, headers, params map[string]string, body []byte) *Stream {
	return c.Perform(Endpoint{Method: MethodPost, Path: path}, headers, params, body)
}

func (c *Client) PutStream(path string, headers, params map[string]string, body []byte) *Stream {
	return c.Perform(Endpoint{Method: MethodPut, Path: path}, headers, params, body)
}

func (c *Client) DeleteStream(path string, headers, params map[string]string, body []byte) *Stream {
	return c.Perform(Endpoint{Method: MethodDelete, Path: path}, headers, params, body)
}

func (c *Client) HeadStream(path string, headers, params map[string]string) *Stream {
	return c.Perform(Endpoint{Method: MethodHead, Path: path}, headers, params, nil)
}

func (c *Client) PatchStream(path string, headers, params map[string]string, body []byte) *Stream {
	return c.Perform(Endpoint{Method: MethodPatch, Path: path}, headers, params, body)
}

// Subscribe starts the request. Exactly one of onSuccess or onFail runs,
// unless the subscription is cancelled first, in which case neither does.
//
// A request that cannot be built fails synchronously, before Subscribe
// returns, without touching the transport. All other terminal events arrive
// on a transport goroutine. Cancelling ctx is equivalent to calling Cancel.
func (s *Stream) Subscribe(ctx context.Context, onSuccess func(*Response), onFail func(*Error)) *Subscription {
	c := s.client
	cl := c.newCall(StyleStream, s.req)
	closed := c.closed.Load()

	owner := c.ctx
	if closed {
		// The closed failure must not race the owner's cancellation.
		owner = context.Background()
	}
	sub := newSubscription(ctx, owner)

	emit := func(resp *Response, e *Error) {
		sub.complete(func() {
			c.report(cl, resp, e)
			if e != nil {
				onFail(e)
				return
			}
			onSuccess(resp)
		})
	}

	if closed {
		emit(nil, c.closedFailure(cl))
		return sub
	}

	httpReq, u, err := c.resolve(s.req)
	if err != nil {
		emit(nil, c.buildFailure(cl, err))
		return sub
	}
	cl.url = u.String()
	c.traceBegin(cl)

	c.transport.Submit(sub.ctx, httpReq, func(o transport.Outcome) {
		if c.closed.Load() || sub.ctx.Err() != nil {
			sub.Cancel()
			return
		}
		emit(c.classifyStream(cl, o))
	})
	return sub
}

// Await subscribes and blocks until the terminal event. When ctx ends first
// the request is aborted and ctx's error is returned.
func (s *Stream) Await(ctx context.Context) (*Response, error) {
	var (
		resp    *Response
		failure *Error
	)
	sub := s.Subscribe(ctx,
		func(r *Response) { resp = r },
		func(e *Error) { failure = e },
	)
	<-sub.Done()

	if !sub.Completed() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	if failure != nil {
		return nil, failure
	}
	return resp, nil
}

func (c *Client) classifyStream(cl *call, o transport.Outcome) (*Response, *Error) {
	if o.Err != nil {
		if e, ok := AsError(o.Err); ok {
			return nil, e
		}
		return nil, c.fail(cl, KindTransport, 0, fmt.Sprintf("unknown error occurred: %v", o.Err), withCause(o.Err))
	}

	if o.Response == nil {
		return nil, c.fail(cl, KindNoResponse, 0, "no response: "+preview(o.Body), withBody(o.Body))
	}

	code := o.Response.StatusCode
	if code < 200 || code >= 300 {
		return nil, c.fail(cl, KindStatus, code, "bad response: "+preview(o.Body),
			withBody(o.Body),
			withResponseHeaders(normalizeHeaders(o.Response.Header)))
	}

	if code == http.StatusNoContent {
		return newResponse(nil, o.Response.Header, code), nil
	}

	body := o.Body
	if body == nil {
		body = []byte{}
	}
	return newResponse(body, o.Response.Header, code), nil
}

const (
	subPending int32 = iota
	subCompleted
	subCancelled
)

// Subscription controls one in-flight stream request.
type Subscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32
	done   chan struct{}
}

// newSubscription derives the request context from parent. Closing the
// owning client cancels it too.
func newSubscription(parent, owner context.Context) *Subscription {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	stopOwner := context.AfterFunc(owner, cancel)
	context.AfterFunc(ctx, func() {
		stopOwner()
		s.Cancel()
	})
	return s
}

// Cancel aborts the request. Nothing is emitted afterwards. Cancelling a
// finished subscription is a no-op.
func (s *Subscription) Cancel() {
	if s.state.CompareAndSwap(subPending, subCancelled) {
		close(s.done)
	}
	s.cancel()
}

// Done is closed once the subscription has completed or been cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Completed reports whether a terminal event was delivered.
func (s *Subscription) Completed() bool {
	return s.state.Load() == subCompleted
}

// Cancelled reports whether the subscription ended without an event.
func (s *Subscription) Cancelled() bool {
	return s.state.Load() == subCancelled
}

func (s *Subscription) complete(deliver func()) {
	if !s.state.CompareAndSwap(subPending, subCompleted) {
		return
	}
	deliver()
	close(s.done)
	s.cancel()
}
