package pacer

import (
	"testing"
	"time"

	"github.com/montanaflynn/stats"
)

// TestMaxBandwidthTracksWindowedP100 cross-checks maxBandwidthBps against an
// independent percentile computation over the same window: the windowed max
// filter is exactly the 100th percentile of the in-window samples, so a
// known-good stats library gives a sanity check that doesn't share any code
// with the filter under test (spec.md §4.7 windowed max-bandwidth filter).
func TestMaxBandwidthTracksWindowedP100(t *testing.T) {
	t0 := time.Unix(0, 0)
	e := NewEstimator()

	samples := []float64{}
	for i, bps := range []uint64{200_000, 900_000, 450_000, 700_000} {
		at := t0.Add(time.Duration(i) * time.Second)
		e.OnAck(bps, 50_000, at)
		samples = append(samples, float64(bps))
	}

	now := t0.Add(3 * time.Second)
	want, err := stats.Percentile(samples, 100)
	if err != nil {
		t.Fatalf("stats.Percentile: %v", err)
	}
	if got := e.maxBandwidthBps(now); got != uint64(want) {
		t.Fatalf("maxBandwidthBps = %d, want %d (p100 of in-window samples)", got, uint64(want))
	}
}

// TestMinRTTTracksWindowedP0 mirrors the bandwidth check for the min-RTT
// filter: the windowed minimum is the 0th percentile of the in-window RTT
// samples.
func TestMinRTTTracksWindowedP0(t *testing.T) {
	t0 := time.Unix(0, 0)
	e := NewEstimator()

	samples := []float64{}
	for i, rtt := range []uint64{80_000, 20_000, 55_000, 40_000} {
		at := t0.Add(time.Duration(i) * time.Second)
		e.OnAck(1_000_000, rtt, at)
		samples = append(samples, float64(rtt))
	}

	now := t0.Add(3 * time.Second)
	want, err := stats.Percentile(samples, 0)
	if err != nil {
		t.Fatalf("stats.Percentile: %v", err)
	}
	if got := e.MinRTTUs(now); got != uint64(want) {
		t.Fatalf("MinRTTUs = %d, want %d (p0 of in-window samples)", got, uint64(want))
	}

	// Once every sample has aged past bwWindow, both filters go empty.
	fresh := NewEstimator()
	fresh.OnAck(5_000_000, 5_000, t0)
	longAfter := t0.Add(bwWindow + time.Second)
	if got := fresh.maxBandwidthBps(longAfter); got != 0 {
		t.Fatalf("expected empty filter after full window elapsed, got %d", got)
	}
	if got := fresh.MinRTTUs(longAfter); got != 0 {
		t.Fatalf("expected empty RTT filter after full window elapsed, got %d", got)
	}
}
