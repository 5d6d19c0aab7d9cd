package session

import (
	"net"
	"sync"
	"time"
)

// DefaultRouteTTL is the refresh-on-use binding lifetime absent an
// explicit Config.RouteTTL (spec.md §9 open question 2: the base design
// has no TTL on the inner-IP-to-peer map; duskwire adds one, refreshed on
// every lookup hit so an active flow never expires mid-session).
const DefaultRouteTTL = 5 * time.Minute

type routeBinding struct {
	peer    net.Addr
	expires time.Time
}

// RouteTable maps an inner tunnel IPv4 address to the outer peer address
// last seen sending traffic from it (spec.md §4.7, hub-only). Entries
// expire TTL after their last use; an expired entry is removed when a
// Lookup finds it, or by Prune.
type RouteTable struct {
	mu       sync.Mutex
	ttl      time.Duration
	bindings map[string]*routeBinding
}

// NewRouteTable returns an empty route table with the given TTL (0 means
// DefaultRouteTTL).
func NewRouteTable(ttl time.Duration) *RouteTable {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RouteTable{ttl: ttl, bindings: make(map[string]*routeBinding)}
}

// Learn records (or refreshes) the binding from innerIP to peer, observed
// at now. Called by the hub after decrypting a peer's first inner IPv4
// packet, and on every subsequent one.
func (rt *RouteTable) Learn(innerIP net.IP, peer net.Addr, now time.Time) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.bindings[innerIP.String()] = &routeBinding{peer: peer, expires: now.Add(rt.ttl)}
}

// Lookup returns the peer bound to innerIP, refreshing its TTL on a hit.
// A miss (absent or expired) returns (nil, false); egress must drop the
// packet silently in that case (spec.md §4.7).
func (rt *RouteTable) Lookup(innerIP net.IP, now time.Time) (net.Addr, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	key := innerIP.String()
	b, ok := rt.bindings[key]
	if !ok {
		return nil, false
	}
	if now.After(b.expires) {
		delete(rt.bindings, key)
		return nil, false
	}
	b.expires = now.Add(rt.ttl)
	return b.peer, true
}

// Prune removes every binding expired as of now, returning the count
// removed. The kernel does not call it; without it, an expired binding
// stays in the map until a Lookup of that address finds it expired.
func (rt *RouteTable) Prune(now time.Time) int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	removed := 0
	for k, b := range rt.bindings {
		if now.After(b.expires) {
			delete(rt.bindings, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored bindings, including expired ones not
// yet removed by Lookup or Prune.
func (rt *RouteTable) Len() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.bindings)
}
