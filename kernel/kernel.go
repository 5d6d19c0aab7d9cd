// Package kernel implements the cooperative single-threaded
// packet-processing loop (spec.md §4.9): batched ingress, the handshake
// state machine, fountain encode/decode, pacer-gated egress, and hub-side
// route learning. It is the one place that wires together wire, gf256,
// aead, pqc, fragment, fountain, pacer, slab, session and hal.
package kernel

import (
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"

	"github.com/duskwire/duskwire/config"
	"github.com/duskwire/duskwire/fragment"
	"github.com/duskwire/duskwire/hal"
	"github.com/duskwire/duskwire/pacer"
	"github.com/duskwire/duskwire/pqc"
	"github.com/duskwire/duskwire/session"
	"github.com/duskwire/duskwire/slab"
	"github.com/duskwire/duskwire/wire"
)

// Kernel owns every piece of mutable state the poll loop touches
// (spec.md §5: "no await or callback suspension inside the core").
type Kernel struct {
	cfg config.Config

	transport hal.Transport
	nic       hal.VirtualNIC
	clock     hal.Clock

	pool     *slab.Pool
	sessions *session.Table
	routes   *session.RouteTable // nil in node mode

	pc        *pacer.Pacer
	estimator *pacer.Estimator

	logger *slog.Logger

	nextGenID uint16

	// Hub-only identity.
	signer *pqc.Signer

	// Node-only state.
	upstream             net.Addr
	verifier             *pqc.Verifier
	lastHandshakeAttempt time.Time
	wakeupLimiter        *rate.Limiter
	wakeupSent           int

	droppedPreHandshake int
}

// HubOptions configures a hub kernel.
type HubOptions struct {
	Cfg       config.Config
	Transport hal.Transport
	NIC       hal.VirtualNIC
	Clock     hal.Clock
	Logger    *slog.Logger
	Signer    *pqc.Signer
}

// NewHub builds a kernel in hub mode: no default send target, a routing
// table, and a long-lived signing identity for authenticating handshakes.
func NewHub(opts HubOptions) (*Kernel, error) {
	if opts.Clock == nil {
		opts.Clock = hal.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = config.DiscardLogger()
	}
	if opts.Signer == nil {
		s, err := pqc.GenerateSigner()
		if err != nil {
			return nil, fmt.Errorf("kernel.NewHub: %w", err)
		}
		opts.Signer = s
	}
	now := time.UnixMicro(opts.Clock.NowUs())
	return &Kernel{
		cfg:       opts.Cfg,
		transport: opts.Transport,
		nic:       opts.NIC,
		clock:     opts.Clock,
		pool:      slab.New(opts.Cfg.FrameCountOrDefault()),
		sessions:  session.NewTable(opts.Cfg.MaxSessions),
		routes:    session.NewRouteTable(opts.Cfg.RouteTTL),
		estimator: pacer.NewEstimator(),
		pc:        pacer.New(now, pacer.NewEstimator(), opts.Cfg.CBRFloorBps),
		logger:    opts.Logger,
		signer:    opts.Signer,
	}, nil
}

// NodeOptions configures a node kernel.
type NodeOptions struct {
	Cfg       config.Config
	Transport hal.Transport
	NIC       hal.VirtualNIC
	Clock     hal.Clock
	Logger    *slog.Logger
	Upstream  net.Addr
	// HubPublicKey is the pinned Dilithium3 public key used to verify the
	// hub's HandshakeInit signature.
	HubPublicKey []byte
}

// NewNode builds a kernel in node mode: one upstream hub and a pinned
// verifier for the hub's identity.
func NewNode(opts NodeOptions) (*Kernel, error) {
	if opts.Clock == nil {
		opts.Clock = hal.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = config.DiscardLogger()
	}
	verifier, err := pqc.NewVerifier(opts.HubPublicKey)
	if err != nil {
		return nil, fmt.Errorf("kernel.NewNode: %w", err)
	}
	now := time.UnixMicro(opts.Clock.NowUs())
	return &Kernel{
		cfg:           opts.Cfg,
		transport:     opts.Transport,
		nic:           opts.NIC,
		clock:         opts.Clock,
		pool:          slab.New(opts.Cfg.FrameCountOrDefault()),
		sessions:      session.NewTable(opts.Cfg.MaxSessions),
		estimator:     pacer.NewEstimator(),
		pc:            pacer.New(now, pacer.NewEstimator(), opts.Cfg.CBRFloorBps),
		logger:        opts.Logger,
		upstream:      opts.Upstream,
		verifier:      verifier,
		wakeupLimiter: rate.NewLimiter(rate.Every(config.DefaultWakeupBurstSpacing), 1),
	}, nil
}

func (k *Kernel) now() time.Time {
	return time.UnixMicro(k.clock.NowUs())
}

// Poll runs exactly one iteration of the kernel loop (spec.md §4.9) and
// reports whether any work was done, so the hosting binary can back off
// when idle.
func (k *Kernel) Poll() bool {
	now := k.now()
	worked := false

	if k.coldHandshake(now) {
		worked = true
	}
	if k.ingressBatch(now) {
		worked = true
	}
	k.pc.Tick(now)
	if k.egressBatch(now) {
		worked = true
	}
	return worked
}

// coldHandshake runs the node-only bring-up step: a rate-limited wake-up
// burst spread across polls, then a retried ClientHello until a cipher is
// installed (spec.md §4.9 step 1, §6 wake-up datagrams). Pacing the burst
// through a limiter rather than sleeping keeps every poll non-blocking
// (spec.md §5).
func (k *Kernel) coldHandshake(now time.Time) bool {
	if k.cfg.Mode != config.ModeNode {
		return false
	}
	worked := false

	if k.sendWakeupDatagram(now) {
		worked = true
	}

	s := k.sessions.GetOrCreate(k.upstream, now)
	if s.Established() {
		return worked
	}
	if now.Sub(k.lastHandshakeAttempt) < k.cfg.HandshakeRetryIntervalOrDefault() {
		return worked
	}

	k.lastHandshakeAttempt = now
	s.AbandonHandshake()
	cs, err := pqc.NewClientState()
	if err != nil {
		k.logger.Error("handshake: generate KEM keypair failed", "err", err)
		return true
	}
	s.Pending = cs

	pub, err := cs.PublicKeyBytes()
	if err != nil {
		k.logger.Error("handshake: marshal public key failed", "err", err)
		return true
	}
	chunks := fragment.Chunks(pub, fragmentChunkSize())
	if err := sendChunksAs(k.transport, k.upstream, wire.TypeClientHello, chunks); err != nil {
		k.logger.Warn("handshake: send ClientHello failed", "err", err)
	}
	return true
}

// sendWakeupDatagram fires one garbage datagram toward the hub, gated by
// wakeupLimiter so the DefaultWakeupBurstCount-datagram burst is spread
// roughly DefaultWakeupBurstSpacing apart across successive polls without
// ever blocking one (spec.md §6): these deliberately fail hub validation
// and carry no meaning beyond their timing.
func (k *Kernel) sendWakeupDatagram(now time.Time) bool {
	if k.wakeupSent >= config.DefaultWakeupBurstCount {
		return false
	}
	if !k.wakeupLimiter.AllowN(now, 1) {
		return false
	}
	junk := make([]byte, wire.HeaderLen)
	_, _ = k.transport.Send(junk, k.upstream)
	k.wakeupSent++
	return true
}

func fragmentChunkSize() int {
	return config.DefaultFragmentChunkSize
}
