package rpc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Method is an HTTP method supported by the dispatcher.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodHead   Method = http.MethodHead
	MethodPatch  Method = http.MethodPatch
)

func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead, MethodPatch:
		return true
	}
	return false
}

// Request is a logical request. Path is resolved against the client's
// URLBuilder; Headers are sent verbatim, keeping the caller's casing. A nil
// Body sends no payload.
type Request struct {
	Method  Method
	Path    string
	Headers map[string]string
	Params  map[string]string
	Body    []byte
}

// Endpoint names a method and path pair.
type Endpoint struct {
	Method Method
	Path   string
}

// resolve builds the transport request. It either succeeds completely or
// returns an error; nothing is partially built.
func (c *Client) resolve(req Request) (*http.Request, *url.URL, error) {
	if !req.Method.Valid() {
		return nil, nil, fmt.Errorf("unsupported method %q", string(req.Method))
	}

	u, err := c.urls.Build(req.Path, req.Params)
	if err != nil {
		return nil, nil, err
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequest(string(req.Method), u.String(), body)
	if err != nil {
		return nil, nil, err
	}

	for k, v := range req.Headers {
		httpReq.Header[k] = []string{v}
	}

	return httpReq, u, nil
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
