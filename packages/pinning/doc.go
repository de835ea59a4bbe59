// Package pinning implements certificate and public-key pinning for TLS
// trust evaluation.
//
// A Validator compares the chain a server presents against a pinned set
// computed once, at construction, from static sources. Two independent
// policy axes configure it:
//   - Granularity: compare whole certificates or their public keys (SPKI)
//   - Strategy: accept when any presented element is pinned, or only when
//     every presented element is pinned
//
// Validators are safe for concurrent use and plug into the transport as its
// trust delegate. There is no fallback to system trust: a rejection is final
// for that connection attempt.
package pinning
