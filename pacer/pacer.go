package pacer

import (
	"time"
)

// BurstCeilingBytes is the hardware-ring-safety bound on token balance
// (spec.md §3: "on the order of 150 KiB").
const BurstCeilingBytes = 150 * 1024

// CBRFloorBps is the constant-rate floor: refill never drops below this,
// guaranteeing chaff emission when the tunnel is otherwise idle
// (spec.md §3 invariant).
const CBRFloorBps = 200_000 // 200 kbps

// Pacer is a signed-token bucket in bytes (spec.md §4.7). Consume may
// drive the balance negative; that debt is repaid by future ticks.
type Pacer struct {
	lastTick  time.Time
	balance   int64
	estimator *Estimator
	cbrFloor  uint64
}

// New returns a Pacer primed at t0 with an empty balance. cbrFloorBps
// overrides CBRFloorBps when nonzero (0 uses the default).
func New(t0 time.Time, estimator *Estimator, cbrFloorBps uint64) *Pacer {
	if cbrFloorBps == 0 {
		cbrFloorBps = CBRFloorBps
	}
	return &Pacer{lastTick: t0, estimator: estimator, cbrFloor: cbrFloorBps}
}

// Tick advances the bucket to now, adding target_rate * elapsed tokens and
// capping the balance at BurstCeilingBytes (spec.md §4.7).
func (p *Pacer) Tick(now time.Time) {
	elapsedUs := now.Sub(p.lastTick).Microseconds()
	p.lastTick = now
	if elapsedUs <= 0 {
		return
	}

	estimatorBps := p.estimator.GetPacingRateBps(now)
	targetBytesPerSec := estimatorBps / 8
	cbrBytesPerSec := p.cbrFloor / 8
	if cbrBytesPerSec > targetBytesPerSec {
		targetBytesPerSec = cbrBytesPerSec
	}

	added := int64(targetBytesPerSec) * elapsedUs / 1_000_000
	p.balance += added
	if p.balance > BurstCeilingBytes {
		p.balance = BurstCeilingBytes
	}
}

// Consume debits n bytes from the balance. The balance may go negative —
// that is how debt is tracked (spec.md §4.7).
func (p *Pacer) Consume(n int) {
	p.balance -= int64(n)
}

// Balance returns the current signed token balance.
func (p *Pacer) Balance() int64 {
	return p.balance
}

// ChaffNeeded reports whether the pacer has spare capacity for an mtu-sized
// chaff packet: balance >= mtu (spec.md §4.7).
func (p *Pacer) ChaffNeeded(mtu int) bool {
	return p.balance >= int64(mtu)
}
