package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/abdul-hamid-achik/rpcpin/packages/rpc"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Latency records dispatch durations in an HDR histogram with microsecond
// resolution, from 1us up to 60s.
type Latency struct {
	mu        sync.Mutex
	histogram *hdrhistogram.Histogram

	total  atomic.Int64
	errors atomic.Int64
}

// LatencySummary is a point-in-time view of a Latency recorder.
type LatencySummary struct {
	Count  int64
	Errors int64
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
}

var _ rpc.Observer = (*Latency)(nil)

func NewLatency() *Latency {
	return &Latency{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

func (l *Latency) ObserveDispatch(e rpc.Event) {
	l.Record(e.Duration, e.Kind != "")
}

// Record adds one sample. Durations outside the histogram range are clamped.
func (l *Latency) Record(d time.Duration, failed bool) {
	l.total.Add(1)
	if failed {
		l.errors.Add(1)
	}

	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}

	l.mu.Lock()
	_ = l.histogram.RecordValue(us)
	l.mu.Unlock()
}

func (l *Latency) Summary() LatencySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := LatencySummary{
		Count:  l.total.Load(),
		Errors: l.errors.Load(),
	}
	if l.histogram.TotalCount() == 0 {
		return s
	}
	s.Min = micros(l.histogram.Min())
	s.Max = micros(l.histogram.Max())
	s.Mean = time.Duration(l.histogram.Mean() * float64(time.Microsecond))
	s.P50 = micros(l.histogram.ValueAtQuantile(50))
	s.P95 = micros(l.histogram.ValueAtQuantile(95))
	s.P99 = micros(l.histogram.ValueAtQuantile(99))
	return s
}

func (l *Latency) Reset() {
	l.mu.Lock()
	l.histogram.Reset()
	l.mu.Unlock()
	l.total.Store(0)
	l.errors.Store(0)
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Observers fans a dispatch event out to several observers.
type Observers []rpc.Observer

func (o Observers) ObserveDispatch(e rpc.Event) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveDispatch(e)
		}
	}
}
