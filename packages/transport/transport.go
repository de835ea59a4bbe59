package transport

import (
	"context"
	"net/http"
)

// RawResponse is the HTTP-level part of an Outcome.
type RawResponse struct {
	StatusCode int
	Header     http.Header
}

// Outcome is the raw result of one submitted request. Any combination of the
// three fields may be set; classification is left to the caller.
type Outcome struct {
	Body     []byte
	Response *RawResponse
	Err      error
}

// CompletionFunc receives the Outcome of a submitted request. It is called
// exactly once, on a goroutine owned by the transport.
type CompletionFunc func(Outcome)

// Transport submits requests and reports their outcomes asynchronously.
//
// Submit must return without blocking. Cancelling ctx aborts the request;
// the completion still runs once, carrying the context error.
type Transport interface {
	Submit(ctx context.Context, req *http.Request, done CompletionFunc)
	RegisterTrustDelegate(d TrustDelegate)
}
