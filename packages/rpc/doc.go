// Package rpc dispatches logical requests through a transport and normalizes
// the outcome into a Response or an *Error.
//
// Two dispatch styles are offered:
//   - Callbacks: Dispatch, Get and Post invoke exactly one of onSuccess or
//     onFail, exactly once, on a transport goroutine
//   - Cold streams: Stream and Perform return a *Stream that does nothing
//     until subscribed; each subscription is an independent, cancellable
//     request producing at most one terminal event
//
// The two styles accept different status codes. Callbacks succeed only on
// 200 and require a body; streams succeed on any 2xx and map 204 to a
// Response without a body. Both policies are kept as they are relied upon
// by existing callers.
package rpc
