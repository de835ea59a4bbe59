// Package metrics turns dispatch and handshake notifications into numbers.
//
// Collector exports Prometheus counters and histograms and satisfies both
// rpc.Observer and pinning.Observer. Latency keeps an HDR histogram of
// dispatch durations for percentile summaries, the way a load run reports
// them.
package metrics
