package rpc

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/abdul-hamid-achik/rpcpin/packages/trace"
	"github.com/abdul-hamid-achik/rpcpin/packages/transport"
)

// Dispatch submits req and reports the outcome through exactly one of
// onSuccess or onFail, called exactly once on a goroutine that is not the
// caller's. Dispatch itself never blocks.
//
// Only status 200 with a body counts as success here. Any other status,
// including 201 and 204, is reported as a KindStatus failure. Streams use a
// wider acceptance window; see Stream.
func (c *Client) Dispatch(req Request, onSuccess func(*Response), onFail func(*Error)) {
	cl := c.newCall(StyleCallback, req)

	var once sync.Once
	finish := func(resp *Response, e *Error) {
		once.Do(func() {
			c.report(cl, resp, e)
			if e != nil {
				onFail(e)
				return
			}
			onSuccess(resp)
		})
	}

	if c.closed.Load() {
		go finish(nil, c.closedFailure(cl))
		return
	}

	httpReq, u, err := c.resolve(req)
	if err != nil {
		go finish(nil, c.buildFailure(cl, err))
		return
	}
	cl.url = u.String()
	c.traceBegin(cl)

	c.transport.Submit(c.ctx, httpReq, func(o transport.Outcome) {
		if c.closed.Load() {
			return
		}
		finish(c.classifyCallback(cl, o))
	})
}

// Get dispatches a GET request with callbacks.
func (c *Client) Get(path string, headers, params map[string]string, onSuccess func(*Response), onFail func(*Error)) {
	c.Dispatch(Request{Method: MethodGet, Path: path, Headers: headers, Params: params}, onSuccess, onFail)
}

// Post dispatches a POST request with callbacks.
func (c *Client) Post(path string, headers, params map[string]string, body []byte, onSuccess func(*Response), onFail func(*Error)) {
	c.Dispatch(Request{Method: MethodPost, Path: path, Headers: headers, Params: params, Body: body}, onSuccess, onFail)
}

func (c *Client) classifyCallback(cl *call, o transport.Outcome) (*Response, *Error) {
	if o.Err != nil {
		return nil, c.fail(cl, KindTransport, 0, fmt.Sprintf("transport error: %v", o.Err), withCause(o.Err))
	}

	if o.Response == nil {
		return nil, c.fail(cl, KindNoResponse, 0, "response: nil")
	}

	code := o.Response.StatusCode
	if code != http.StatusOK {
		return nil, c.fail(cl, KindStatus, code, "incorrect request")
	}

	if o.Body == nil {
		return nil, c.fail(cl, KindNoBody, code, "data: nil",
			withResponseHeaders(normalizeHeaders(o.Response.Header)))
	}

	return newResponse(o.Body, o.Response.Header, code), nil
}

// Upload POSTs body to path without reporting the outcome. Only a failure
// to build the request is returned; everything after submission is logged.
func (c *Client) Upload(path string, headers map[string]string, body []byte) error {
	req := Request{Method: MethodPost, Path: path, Headers: headers, Body: body}
	cl := c.newCall(StyleUpload, req)

	if c.closed.Load() {
		return c.closedFailure(cl)
	}

	httpReq, u, err := c.resolve(req)
	if err != nil {
		e := c.buildFailure(cl, err)
		c.report(cl, nil, e)
		return e
	}
	cl.url = u.String()
	c.traceBegin(cl)

	c.transport.Submit(c.ctx, httpReq, func(o transport.Outcome) {
		if c.closed.Load() {
			return
		}
		status := 0
		if o.Response != nil {
			status = o.Response.StatusCode
			trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("upload %s [%s] response: %d", path, cl.id, status))
		}
		if o.Body != nil {
			trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("upload %s [%s] data: %s", path, cl.id, preview(o.Body)))
		}
		var kind Kind
		switch {
		case o.Err != nil:
			kind = KindTransport
			trace.Safe(c.logger, trace.CategoryAPI, fmt.Sprintf("upload %s [%s] error: %v", path, cl.id, o.Err))
		case o.Response == nil:
			kind = KindNoResponse
		case status < 200 || status >= 300:
			kind = KindStatus
		}
		c.observe(cl, status, kind)
	})
	return nil
}
