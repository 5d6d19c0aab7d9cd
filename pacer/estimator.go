// Package pacer implements the BBR-style bandwidth-delay estimator and
// the token-bucket pacer it feeds (spec.md §4.7), including the
// constant-rate floor that drives chaff emission when the tunnel is
// otherwise idle.
package pacer

import "time"

// windowSize is the ring buffer depth for both the max-bandwidth and
// min-RTT filters (spec.md §3: "two 10-slot ring buffers").
const windowSize = 10

// bwWindow is the time window the max-bandwidth filter covers.
const bwWindow = 10 * time.Second

// startupGainPct implements the 2.89x startup pacing gain as an integer
// percentage (spec.md §4.7: "gain is fixed at 2.89x").
const startupGainPct = 289

// defaultFallbackBps is used when the bandwidth filter is empty.
const defaultFallbackBps = 100_000 // 100 kbps

type sample struct {
	at    time.Time
	value uint64
	set   bool
}

// Estimator keeps windowed max-bandwidth and min-RTT filters fed by
// delivery-rate samples (spec.md §4.7).
type Estimator struct {
	bwSamples  [windowSize]sample
	bwCursor   int
	rttSamples [windowSize]sample
	rttCursor  int
}

// NewEstimator returns an empty estimator.
func NewEstimator() *Estimator {
	return &Estimator{}
}

// OnAck pushes one delivery-rate/RTT sample pair, as produced by the
// transport's acknowledgment path (spec.md §4.7: on_ack).
func (e *Estimator) OnAck(deliveredBps uint64, rttUs uint64, now time.Time) {
	e.bwSamples[e.bwCursor] = sample{at: now, value: deliveredBps, set: true}
	e.bwCursor = (e.bwCursor + 1) % windowSize

	e.rttSamples[e.rttCursor] = sample{at: now, value: rttUs, set: true}
	e.rttCursor = (e.rttCursor + 1) % windowSize
}

// maxBandwidthBps returns the maximum bandwidth sample within bwWindow of
// now, or 0 if the filter is empty.
func (e *Estimator) maxBandwidthBps(now time.Time) uint64 {
	var max uint64
	for _, s := range e.bwSamples {
		if !s.set || now.Sub(s.at) > bwWindow {
			continue
		}
		if s.value > max {
			max = s.value
		}
	}
	return max
}

// minRTTUs returns the minimum RTT sample within bwWindow of now, or 0 if
// the filter is empty.
func (e *Estimator) minRTTUs(now time.Time) uint64 {
	var min uint64
	found := false
	for _, s := range e.rttSamples {
		if !s.set || now.Sub(s.at) > bwWindow {
			continue
		}
		if !found || s.value < min {
			min = s.value
			found = true
		}
	}
	if !found {
		return 0
	}
	return min
}

// MinRTTUs returns the windowed minimum RTT sample in microseconds, or 0
// if the filter is empty.
func (e *Estimator) MinRTTUs(now time.Time) uint64 {
	return e.minRTTUs(now)
}

// GetPacingRateBps returns max_over_window(bw) * gain / 100, falling back
// to defaultFallbackBps when the filter is empty (spec.md §4.7).
func (e *Estimator) GetPacingRateBps(now time.Time) uint64 {
	bw := e.maxBandwidthBps(now)
	if bw == 0 {
		bw = defaultFallbackBps
	}
	return bw * startupGainPct / 100
}
