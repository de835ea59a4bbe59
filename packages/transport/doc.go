// Package transport is the network collaborator used by the rpc dispatcher.
//
// It provides:
//   - A Transport interface that submits one request per call and reports a
//     raw (body, response, error) Outcome through a completion callback
//   - An HTTPTransport implementation built on net/http
//   - A TLS trust delegate hook invoked once per handshake, before any
//     request bytes are written
//   - Optional submission rate limiting
package transport
